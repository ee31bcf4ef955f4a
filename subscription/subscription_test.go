package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/igwemiracle/project-management-app-frontend/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
	states []bool
}

func (r *recorder) handle(ev domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) state(connected bool) {
	r.mu.Lock()
	r.states = append(r.states, connected)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) last() domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func setup(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return rc, func() {
		rc.Close()
		m.Close()
	}
}

func publish(t *testing.T, rc *redis.Client, channel string, ev domain.Event) {
	t.Helper()
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := rc.Publish(context.Background(), channel, payload).Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestTransportDeliversPresenceEvents(t *testing.T) {
	rc, cleanup := setup(t)
	defer cleanup()
	rec := &recorder{}
	tr := New(rc, "rt:", rec.handle, rec.state)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Close()
	time.Sleep(50 * time.Millisecond)

	data, _ := json.Marshal(domain.OnlineUser{UserID: "u1", Username: "ann"})
	publish(t, rc, "rt:presence", domain.Event{Type: domain.UserOnline, Data: data})
	time.Sleep(100 * time.Millisecond)

	if rec.count() != 1 {
		t.Fatalf("expected 1 event, got %d", rec.count())
	}
	if rec.last().Type != domain.UserOnline {
		t.Fatalf("unexpected event %+v", rec.last())
	}
	rec.mu.Lock()
	states := append([]bool(nil), rec.states...)
	rec.mu.Unlock()
	if len(states) == 0 || !states[0] {
		t.Fatalf("expected connected transition, got %v", states)
	}
}

func TestTransportJoinLeaveBoardChannels(t *testing.T) {
	rc, cleanup := setup(t)
	defer cleanup()
	rec := &recorder{}
	tr := New(rc, "rt:", rec.handle, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Close()

	if err := tr.JoinBoard(ctx, "b1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	data, _ := json.Marshal(domain.Card{ID: "c1", List: "l1", Board: "b1"})
	publish(t, rc, "rt:board:b1", domain.Event{Type: domain.CardCreated, Data: data})
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("expected board event, got %d events", rec.count())
	}

	if err := tr.LeaveBoard(ctx, "b1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	publish(t, rc, "rt:board:b1", domain.Event{Type: domain.CardCreated, Data: data})
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("left board still delivering, got %d events", rec.count())
	}
}

func TestTransportMalformedPayloadSkipped(t *testing.T) {
	rc, cleanup := setup(t)
	defer cleanup()
	rec := &recorder{}
	tr := New(rc, "", rec.handle, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Close()
	time.Sleep(50 * time.Millisecond)

	if err := rc.Publish(context.Background(), "presence", "{not json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	data, _ := json.Marshal(domain.OnlineUser{UserID: "u1"})
	publish(t, rc, "presence", domain.Event{Type: domain.UserOnline, Data: data})
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("expected only the valid event, got %d", rec.count())
	}
}

func TestTransportJoinBeforeConnect(t *testing.T) {
	rc, cleanup := setup(t)
	defer cleanup()
	tr := New(rc, "", func(domain.Event) {}, nil)
	if err := tr.JoinBoard(context.Background(), "b1"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
