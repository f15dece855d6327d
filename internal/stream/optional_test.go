package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type book struct {
	Figi string
	Bids []int
}

func TestFromPointerAbsentIsEmptySuccess(t *testing.T) {
	o := FromPointer(func(context.Context) (*book, error) { return nil, nil })

	_, ok, err := o.Get(context.Background())
	require.NoError(t, err, "absence is not an error")
	require.False(t, ok)

	got, err := o.Stream().Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFromPointerPresentYieldsExactlyOne(t *testing.T) {
	o := FromPointer(func(context.Context) (*book, error) { return &book{Figi: "X"}, nil })

	v, ok, err := o.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "X", v.Figi)

	got, err := o.Stream().Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFromValueAlwaysPresent(t *testing.T) {
	v, ok, err := FromValue(func(context.Context) (int, error) { return 0, nil }).Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, v)

	boom := errors.New("boom")
	_, ok, err = FromValue(func(context.Context) (int, error) { return 0, boom }).Get(context.Background())
	require.ErrorIs(t, err, boom)
	require.False(t, ok)
}

func TestOptionalIsLazy(t *testing.T) {
	calls := 0
	o := FromPointer(func(context.Context) (*book, error) {
		calls++
		return nil, nil
	})
	require.Zero(t, calls)
	_, _, _ = o.Get(context.Background())
	_, _, _ = o.Get(context.Background())
	require.Equal(t, 2, calls)
}

func TestMapOptionalAndFlatten(t *testing.T) {
	present := FromPointer(func(context.Context) (*book, error) {
		return &book{Figi: "X", Bids: []int{3, 2, 1}}, nil
	})
	figi, ok, err := MapOptional(present, func(b book) string { return b.Figi }).Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "X", figi)

	bids, err := Flatten(present, func(b book) []int { return b.Bids }).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 1}, bids)

	bids, err = Flatten(None[book](), func(b book) []int { return b.Bids }).Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, bids)
}

func TestCompletion(t *testing.T) {
	runs := 0
	c := FromAction(func(context.Context) error {
		runs++
		return nil
	})
	require.Zero(t, runs)
	require.NoError(t, c.Await(context.Background()))
	require.NoError(t, c.Await(context.Background()))
	require.Equal(t, 2, runs)

	boom := errors.New("boom")
	require.ErrorIs(t, FromAction(func(context.Context) error { return boom }).Await(context.Background()), boom)

	items, err := c.Stream().Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}
