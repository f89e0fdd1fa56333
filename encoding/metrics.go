package encoding

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric result labels.
const (
	resultSuccess   = "success"
	resultError     = "error"
	resultNoMatch   = "no_match"
	resultSniffed   = "sniffed"
	operationEncode = "encode"
	operationDecode = "decode"
	// Content type label for requests no codec handled.
	labelNone = "none"
)

// Metrics holds the Prometheus counters of an Engine. A nil *Metrics records nothing.
type Metrics struct {
	negotiationsTotal *prometheus.CounterVec
	encodeTotal       *prometheus.CounterVec
	decodeTotal       *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

// NewMetrics creates the counters under namespace and registers them on registerer.
// Counters already registered by an earlier call are reused.
func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		negotiationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "encoding",
				Name:      "negotiations_total",
				Help:      "Total number of content type negotiations",
			},
			[]string{"content_type", "result"},
		),
		encodeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "encoding",
				Name:      "encode_total",
				Help:      "Total number of encode operations",
			},
			[]string{"content_type", "result"},
		),
		decodeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "encoding",
				Name:      "decode_total",
				Help:      "Total number of decode operations",
			},
			[]string{"content_type", "result"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "encoding",
				Name:      "errors_total",
				Help:      "Total number of encoding/decoding errors",
			},
			[]string{"content_type", "operation"},
		),
	}

	counters := []**prometheus.CounterVec{
		&metrics.negotiationsTotal,
		&metrics.encodeTotal,
		&metrics.decodeTotal,
		&metrics.errorsTotal,
	}
	for _, counter := range counters {
		err := registerer.Register(*counter)
		if err == nil {
			continue
		}

		registered := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &registered) {
			return nil, err
		}
		existing, ok := registered.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		*counter = existing
	}

	return metrics, nil
}

// RecordNegotiation records a content type negotiation result.
func (metrics *Metrics) RecordNegotiation(contentType, result string) {
	if metrics == nil {
		return
	}
	metrics.negotiationsTotal.WithLabelValues(contentType, result).Inc()
}

// RecordEncode records an encode operation.
func (metrics *Metrics) RecordEncode(contentType, result string) {
	if metrics == nil {
		return
	}
	metrics.encodeTotal.WithLabelValues(contentType, result).Inc()
}

// RecordDecode records a decode operation.
func (metrics *Metrics) RecordDecode(contentType, result string) {
	if metrics == nil {
		return
	}
	metrics.decodeTotal.WithLabelValues(contentType, result).Inc()
}

// RecordError records an encoding/decoding error.
func (metrics *Metrics) RecordError(contentType, operation string) {
	if metrics == nil {
		return
	}
	metrics.errorsTotal.WithLabelValues(contentType, operation).Inc()
}

// Content type label of a codec, always one of its declared media types.
func codecLabel(codec Codec) string {
	mediaType, ok := primaryMediaType(codec)
	if !ok {
		return labelNone
	}
	return mediaType.Essence()
}
