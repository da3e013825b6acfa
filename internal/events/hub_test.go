package events

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegisterUnregister(t *testing.T) {
	h := NewHub()
	c1 := h.register("r1")
	c2 := h.register("r1")
	c3 := h.register("r2")

	if h.ClientCount("r1") != 2 || h.ClientCount("r2") != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", h.ClientCount("r1"), h.ClientCount("r2"))
	}
	h.unregister(c1)
	h.unregister(c1) // double unregister must not panic
	h.unregister(c2)
	h.unregister(c3)
	if h.ClientCount("r1") != 0 || h.ClientCount("r2") != 0 {
		t.Fatal("expected 0 clients after full unregister")
	}
}

func TestPublishRoutesByRound(t *testing.T) {
	h := NewHub()
	c1 := h.register("r1")
	c2 := h.register("r2")
	defer h.unregister(c1)
	defer h.unregister(c2)

	if err := h.Publish("r1", Event{Name: NameFound, Data: map[string]string{"word": "APPLE"}}); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-c1.ch:
		if msg.name != NameFound || string(msg.data) != `{"word":"APPLE"}` {
			t.Fatalf("got %s %s", msg.name, msg.data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}
	select {
	case <-c2.ch:
		t.Fatal("c2 should not receive r1 events")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPublishErrors(t *testing.T) {
	h := NewHub()
	if err := h.Publish("nobody", Event{Name: NameTick, Data: 1}); !errors.Is(err, ErrNoListeners) {
		t.Fatalf("err = %v, want ErrNoListeners", err)
	}

	c := h.register("r1")
	defer h.unregister(c)
	for i := 0; i < channelBuffer; i++ {
		if err := h.Publish("r1", Event{Name: NameTick, Data: i}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if err := h.Publish("r1", Event{Name: NameTick, Data: 99}); !errors.Is(err, ErrDropped) {
		t.Fatalf("err = %v, want ErrDropped", err)
	}
}

func TestServeSSEWritesEvents(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/round/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeSSE(w, req, "r1")
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for h.ClientCount("r1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = h.Publish("r1", Event{Name: NameComplete, Data: map[string]float64{"total": 9}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: complete\ndata: {\"total\":9}\n\n") {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s", ct)
	}
}
