package stream

import "errors"

// errHalted stops a subscription when an iterator consumer breaks out early.
var errHalted = errors.New("stream: consumer halted")
