package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys for investflow telemetry.
const (
	// AttrEnvironment specifies the deployment environment for every metric.
	AttrEnvironment = attribute.Key("environment")
	// AttrDomain identifies the API domain a producer serves (market, orders, ...).
	AttrDomain = attribute.Key("domain")
	// AttrResult records the outcome of an acquisition.
	AttrResult = attribute.Key("result")
)

// Metric names recorded by resource producers.
const (
	MetricAdmissionGranted = "producer.admission.granted"
	MetricAdmissionDenied  = "producer.admission.denied"
	MetricFactoryFailures  = "producer.factory.failures"
	MetricAcquireDuration  = "producer.acquire.duration"
)

// Acquisition results.
const (
	ResultSuccess  = "success"
	ResultFailure  = "factory_error"
	ResultCanceled = "canceled"
	ResultTimeout  = "timeout"
)

// DomainAttributes returns the common attributes for producer metrics.
func DomainAttributes(domain string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(Environment()),
		AttrDomain.String(domain),
	}
}

// AcquireAttributes returns attributes for acquisition duration samples.
func AcquireAttributes(domain, result string) []attribute.KeyValue {
	return append(DomainAttributes(domain), AttrResult.String(result))
}
