package main

import (
	"context"
	"encoding/json"

	"github.com/igwemiracle/project-management-app-frontend/domain"
)

type eventApplier interface {
	Apply(ev domain.Event) error
}

type cacheRefresher interface {
	RefreshBoard(ctx context.Context, boardID string)
}

type changeNotifier interface {
	Notify()
}

// parentResolver resolves which board a list or card delete touches.
// Lookups must happen before the event is applied, because after apply
// the entity is gone.
type parentResolver interface {
	List(id string) (domain.List, bool)
	Card(id string) (domain.Card, bool)
}

// processor runs one inbound event through the applier and then fans
// the result out: snapshot cache refresh for the affected board, change
// tick for SSE subscribers.
type processor struct {
	applier  eventApplier
	cache    cacheRefresher
	notifier changeNotifier
	resolver parentResolver
}

func (p processor) process(ctx context.Context, ev domain.Event) error {
	boardID := p.affectedBoard(ev)
	if err := p.applier.Apply(ev); err != nil {
		return err
	}
	if p.cache != nil && boardID != "" {
		p.cache.RefreshBoard(ctx, boardID)
	}
	if p.notifier != nil {
		p.notifier.Notify()
	}
	return nil
}

// affectedBoard extracts the board id an event touches, or "" when no
// board snapshot needs refreshing (presence and workspace events, or
// payloads the applier will reject anyway).
func (p processor) affectedBoard(ev domain.Event) string {
	switch ev.Type {
	case domain.BoardCreated, domain.BoardUpdated:
		var b domain.Board
		if err := json.Unmarshal(ev.Data, &b); err == nil {
			return b.ID
		}
	case domain.BoardDeleted:
		if id, err := domain.EventID(ev.Data); err == nil {
			return id
		}
	case domain.ListCreated, domain.ListUpdated:
		var l domain.List
		if err := json.Unmarshal(ev.Data, &l); err == nil {
			return l.Board
		}
	case domain.ListDeleted:
		if id, err := domain.EventID(ev.Data); err == nil && p.resolver != nil {
			if l, ok := p.resolver.List(id); ok {
				return l.Board
			}
		}
	case domain.CardCreated, domain.CardUpdated:
		var c domain.Card
		if err := json.Unmarshal(ev.Data, &c); err == nil {
			return c.Board
		}
	case domain.CardDeleted:
		if id, err := domain.EventID(ev.Data); err == nil && p.resolver != nil {
			if c, ok := p.resolver.Card(id); ok {
				return c.Board
			}
		}
	}
	return ""
}
