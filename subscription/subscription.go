package subscription

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/igwemiracle/project-management-app-frontend/domain"
	"github.com/igwemiracle/project-management-app-frontend/internal/consts"
)

// Transport delivers push events over redis pub/sub. Every joined board
// or workspace maps to one channel, plus a shared presence channel that
// is always subscribed. Join and leave translate directly to channel
// subscribe and unsubscribe, so the gateway stops delivering a board's
// events as soon as the client leaves it.
type Transport struct {
	rc      *redis.Client
	prefix  string
	handler func(domain.Event)
	state   func(connected bool)

	mu  sync.Mutex
	sub *redis.PubSub
}

// New creates a redis push transport. prefix is prepended to every
// channel name so several deployments can share one redis. state may be
// nil; when set it receives connection transitions.
func New(rc *redis.Client, prefix string, handler func(domain.Event), state func(bool)) *Transport {
	return &Transport{rc: rc, prefix: prefix, handler: handler, state: state}
}

// Connect subscribes to the presence channel and starts the receive
// loop. The loop runs until ctx is cancelled or the transport is
// closed.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub != nil {
		return nil
	}
	sub := t.rc.Subscribe(ctx, t.prefix+consts.PresenceChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}
	t.sub = sub
	go t.run(ctx, sub)
	if t.state != nil {
		t.state(true)
	}
	return nil
}

func (t *Transport) run(ctx context.Context, sub *redis.PubSub) {
	defer func() {
		if t.state != nil {
			t.state(false)
		}
	}()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				log.Error("push subscription channel closed")
				return
			}
			var ev domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.WithField("channel", msg.Channel).Errorf("unable to parse push event: %v", err)
				continue
			}
			t.handler(ev)
		}
	}
}

func (t *Transport) JoinBoard(ctx context.Context, boardID string) error {
	return t.subscribe(ctx, t.prefix+consts.BoardChannelPrefix+boardID)
}

func (t *Transport) LeaveBoard(ctx context.Context, boardID string) error {
	return t.unsubscribe(ctx, t.prefix+consts.BoardChannelPrefix+boardID)
}

func (t *Transport) JoinWorkspace(ctx context.Context, workspaceID string) error {
	return t.subscribe(ctx, t.prefix+consts.WorkspaceChannelPrefix+workspaceID)
}

func (t *Transport) LeaveWorkspace(ctx context.Context, workspaceID string) error {
	return t.unsubscribe(ctx, t.prefix+consts.WorkspaceChannelPrefix+workspaceID)
}

func (t *Transport) subscribe(ctx context.Context, channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub == nil {
		return ErrNotConnected
	}
	return t.sub.Subscribe(ctx, channel)
}

func (t *Transport) unsubscribe(ctx context.Context, channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub == nil {
		return ErrNotConnected
	}
	return t.sub.Unsubscribe(ctx, channel)
}

// Close tears the subscription down. Safe to call more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub == nil {
		return nil
	}
	err := t.sub.Close()
	t.sub = nil
	return err
}
