// Package handlers provides HTTP handlers for the alert-service API.
package handlers

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	alerts    AlertService
	trips     TripService
	notifier  Notifier
	states    StateReader
	docs      DocumentLister
	uploads   DocumentUploader
	metricsRd MetricsReader
	metrics   MetricsRecorder
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMetrics sets a custom metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(h *Handlers) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithMetricsReader enables the service metrics endpoint.
func WithMetricsReader(r MetricsReader) Option {
	return func(h *Handlers) {
		h.metricsRd = r
	}
}

// WithDocuments enables the document endpoints. uploads may be nil when no bucket is
// configured.
func WithDocuments(docs DocumentLister, uploads DocumentUploader) Option {
	return func(h *Handlers) {
		h.docs = docs
		h.uploads = uploads
	}
}

// NewHandlers creates a new handlers instance.
func NewHandlers(alerts AlertService, trips TripService, notifier Notifier, states StateReader, opts ...Option) *Handlers {
	h := &Handlers{
		alerts:   alerts,
		trips:    trips,
		notifier: notifier,
		states:   states,
		metrics:  NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Metrics returns the recorder used by the handlers, for middleware use.
func (h *Handlers) Metrics() MetricsRecorder {
	return h.metrics
}
