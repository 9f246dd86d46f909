package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeTimelineExported, Data: map[string]any{"path": "Timelines/ann.canvas", "eventCount": 4}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "id: 1\nevent: timeline.exported\n") || !strings.HasSuffix(s, "\n\n") {
			t.Errorf("bad framing in %q", s)
		}
		if !strings.Contains(s, `"path":"Timelines/ann.canvas"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_StaleThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("created", "Events/a.md")
	b.PublishChange("updated", "Events/b.md")

	time.Sleep(50 * time.Millisecond)
	staleCount := 0
	var changes []string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: timelines.stale") {
				staleCount++
			} else {
				changes = append(changes, s)
			}
		default:
			break loop
		}
	}

	if len(changes) != 2 {
		t.Fatalf("change events = %d, want 2", len(changes))
	}
	if !strings.Contains(changes[0], `{"change":"created","path":"Events/a.md"}`) {
		t.Errorf("first change = %q", changes[0])
	}
	if staleCount != 1 {
		t.Errorf("stale hints = %d, want 1", staleCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeTimelineRegenerated, Data: map[string]string{"path": "x.canvas"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: timeline.regenerated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// Reaching here without deadlock is the assertion.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeTimelineDeleted, Data: map[string]string{"path": "x.canvas"}})
	b.PublishChange("updated", "x.md")
}

func TestSubscribeAfter_Replay(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	first := b.Subscribe()
	defer b.Unsubscribe(first)

	for _, p := range []string{"a.canvas", "b.canvas", "c.canvas"} {
		b.Publish(Event{Type: TypeTimelineExported, Data: map[string]string{"path": p}})
	}
	for i := 0; i < 3; i++ {
		select {
		case <-first:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for live delivery")
		}
	}

	late := b.SubscribeAfter(1)
	defer b.Unsubscribe(late)
	var got []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-late:
			got = append(got, string(msg))
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for replay, got %d", len(got))
		}
	}
	if !strings.HasPrefix(got[0], "id: 2\n") || !strings.Contains(got[0], "b.canvas") {
		t.Errorf("first replayed = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "id: 3\n") {
		t.Errorf("second replayed = %q", got[1])
	}
	select {
	case msg := <-late:
		t.Errorf("unexpected extra message %q", msg)
	default:
	}
}

func TestSSEHandler_LastEventID(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	first := b.Subscribe()
	b.Publish(Event{Type: TypeTimelineExported, Data: map[string]string{"path": "old.canvas"}})
	b.Publish(Event{Type: TypeTimelineDeleted, Data: map[string]string{"path": "gone.canvas"}})
	for i := 0; i < 2; i++ {
		<-first
	}
	b.Unsubscribe(first)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "1")
	w := httptest.NewRecorder()
	b.ServeHTTP(w, req)

	body := w.Body.String()
	if strings.Contains(body, "old.canvas") {
		t.Errorf("message 1 replayed: %q", body)
	}
	if !strings.Contains(body, "id: 2\nevent: timeline.deleted") {
		t.Errorf("message 2 not replayed: %q", body)
	}
}
