package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/event"
	"github.com/seedit/seedit-challenge/internal/logging"
)

const namespace = "seedit_challenge"

// Collector turns bus events into Prometheus series.
type Collector struct {
	registry *prometheus.Registry

	announced     *prometheus.CounterVec
	submitted     *prometheus.CounterVec
	abandoned     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	depth         prometheus.Gauge
	answerTime    *prometheus.HistogramVec

	bus    *event.Bus
	subIDs []string
}

// NewCollector registers the challenge series on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		announced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Challenge rounds received, by publication kind.",
		}, []string{"publication"}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Challenge answer submissions, by publication kind and delivery result.",
		}, []string{"publication", "result"}),
		abandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abandoned_total",
			Help:      "Challenges dismissed without answering.",
		}, []string{"publication"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification outcomes reported by the network.",
		}, []string{"publication", "result"}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Pending challenge rounds, including the one on screen.",
		}),
		answerTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_duration_seconds",
			Help:      "Time from a round reaching the head to its submission.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"publication"}),
	}
	c.registry.MustRegister(c.announced, c.submitted, c.abandoned, c.verifications, c.depth, c.answerTime)
	return c
}

// Registry returns the registry holding the challenge series.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Attach subscribes the collector to bus. Attaching again moves it.
func (c *Collector) Attach(bus *event.Bus) {
	c.Detach()
	c.bus = bus
	c.subIDs = []string{
		bus.Subscribe(event.TypeChallengeAnnounced, c.handle),
		bus.Subscribe(event.TypeChallengeSubmitted, c.handle),
		bus.Subscribe(event.TypeChallengeAbandoned, c.handle),
		bus.Subscribe(event.TypeQueueDepthChanged, c.handle),
		bus.Subscribe(event.TypeVerification, c.handle),
	}
}

// Detach removes the collector's subscriptions.
func (c *Collector) Detach() {
	if c.bus == nil {
		return
	}
	for _, id := range c.subIDs {
		c.bus.Unsubscribe(id)
	}
	c.bus = nil
	c.subIDs = nil
}

func (c *Collector) handle(e event.Event) {
	switch ev := e.(type) {
	case event.ChallengeAnnouncedEvent:
		c.announced.WithLabelValues(ev.PublicationKind).Inc()
	case event.ChallengeSubmittedEvent:
		result := "delivered"
		if ev.Error != "" {
			result = "failed"
		}
		c.submitted.WithLabelValues(ev.PublicationKind, result).Inc()
		c.answerTime.WithLabelValues(ev.PublicationKind).Observe(ev.Duration.Seconds())
	case event.ChallengeAbandonedEvent:
		c.abandoned.WithLabelValues(ev.PublicationKind).Inc()
	case event.QueueDepthChangedEvent:
		c.depth.Set(float64(ev.Depth))
	case event.VerificationEvent:
		result := "rejected"
		if ev.Success {
			result = "accepted"
		}
		c.verifications.WithLabelValues(ev.PublicationKind, result).Inc()
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Server exposes /metrics until its context is cancelled.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *logging.Logger
}

// Listen binds addr and prepares a /metrics server for c.
func Listen(addr string, c *Collector, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger.WithComponent("metrics"),
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve blocks until ctx is cancelled, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()
	s.logger.Info("metrics server listening", "addr", s.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
