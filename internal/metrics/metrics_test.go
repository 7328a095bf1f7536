package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/event"
)

type stubPublication struct {
	kind string
	err  error
}

func (p stubPublication) PublishChallengeAnswers([]string) error { return p.err }
func (p stubPublication) PublicationKind() string                { return p.kind }

func TestCollector_CountsLifecycle(t *testing.T) {
	bus := event.NewBus(nil)
	col := NewCollector()
	col.Attach(bus)

	c := challenge.NewCoordinator(challenge.WithBus(bus))
	q := []challenge.Question{{Kind: challenge.KindText, Payload: "q"}}

	if _, err := c.OnChallenge(q, stubPublication{kind: "post"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.OnChallenge(q, stubPublication{kind: "vote", err: io.ErrClosedPipe}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.OnChallenge(q, stubPublication{kind: "post"}, nil); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(col.depth); got != 3 {
		t.Errorf("queue_depth = %v, want 3", got)
	}
	if got := testutil.ToFloat64(col.announced.WithLabelValues("post")); got != 2 {
		t.Errorf("announcements{post} = %v, want 2", got)
	}

	if err := c.Submit(); err != nil {
		t.Fatal(err)
	}
	if err := c.Submit(); err == nil {
		t.Fatal("expected a transport error")
	}
	if err := c.Abandon(); err != nil {
		t.Fatal(err)
	}
	bus.Publish(event.NewVerificationEvent("post", true, ""))
	bus.Publish(event.NewVerificationEvent("post", false, "wrong"))

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"submitted delivered", testutil.ToFloat64(col.submitted.WithLabelValues("post", "delivered")), 1},
		{"submitted failed", testutil.ToFloat64(col.submitted.WithLabelValues("vote", "failed")), 1},
		{"abandoned", testutil.ToFloat64(col.abandoned.WithLabelValues("post")), 1},
		{"accepted", testutil.ToFloat64(col.verifications.WithLabelValues("post", "accepted")), 1},
		{"rejected", testutil.ToFloat64(col.verifications.WithLabelValues("post", "rejected")), 1},
		{"depth", testutil.ToFloat64(col.depth), 0},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(col.answerTime); n != 2 {
		t.Errorf("answer_duration series = %d, want 2", n)
	}
}

func TestCollector_Detach(t *testing.T) {
	bus := event.NewBus(nil)
	col := NewCollector()
	col.Attach(bus)
	if bus.SubscriptionCount() != 5 {
		t.Fatalf("SubscriptionCount() = %d, want 5", bus.SubscriptionCount())
	}
	col.Detach()
	col.Detach()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() after Detach = %d", bus.SubscriptionCount())
	}

	bus.Publish(event.NewQueueDepthChangedEvent(7))
	if got := testutil.ToFloat64(col.depth); got != 0 {
		t.Errorf("detached collector recorded depth %v", got)
	}
}

func TestServer_ExposesMetrics(t *testing.T) {
	col := NewCollector()
	col.handle(event.NewQueueDepthChangedEvent(2))

	srv, err := Listen("127.0.0.1:0", col, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var body string
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + srv.Addr() + "/metrics")
		if err == nil {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(data)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(body, "seedit_challenge_queue_depth 2") {
		t.Errorf("metrics body missing queue depth:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
