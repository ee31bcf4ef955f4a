package domain

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// EntityStore is the normalized projection the applier writes into.
// Upserts replace by id, removes cascade to children and ignore absent
// ids, so every event path is idempotent.
type EntityStore interface {
	UpsertWorkspace(ws Workspace)
	RemoveWorkspace(id string)
	UpsertBoard(b Board)
	RemoveBoard(id string)
	UpsertList(l List)
	RemoveList(id string)
	UpsertCard(c Card)
	RemoveCard(id string)
	Card(id string) (Card, bool)
}

// Applier merges inbound realtime events into the entity store. All
// writes to the store funnel through it: remote events via Apply, the
// user's own optimistic edits via the Local* methods. Both converge on
// the same upsert/remove primitives, so a server echo of a local edit
// is a no-op by construction.
type Applier struct {
	store    EntityStore
	presence *Presence
	scope    *Scope
}

func NewApplier(store EntityStore, presence *Presence, scope *Scope) *Applier {
	return &Applier{store: store, presence: presence, scope: scope}
}

// Apply merges one event. Last message wins: whichever update arrives
// last overwrites the store, with no field-level merging and no
// position renumbering. Malformed payloads are dropped with an error;
// unknown kinds are logged and ignored.
func (a *Applier) Apply(ev Event) error {
	switch ev.Type {
	case WorkspaceUpdated:
		var ws Workspace
		if err := json.Unmarshal(ev.Data, &ws); err != nil || ws.ID == "" {
			return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
		}
		if !a.scope.HasWorkspace(ws.ID) {
			log.WithField("workspace", ws.ID).Debug("dropping event outside joined scope")
			return nil
		}
		a.store.UpsertWorkspace(ws)
	case WorkspaceDeleted:
		id, err := EventID(ev.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", ev.Type, err)
		}
		a.store.RemoveWorkspace(id)
	case BoardCreated, BoardUpdated:
		var b Board
		if err := json.Unmarshal(ev.Data, &b); err != nil || b.ID == "" {
			return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
		}
		if !a.scope.HasBoard(b.ID) && !a.scope.HasWorkspace(b.Workspace) {
			log.WithField("board", b.ID).Debug("dropping event outside joined scope")
			return nil
		}
		a.store.UpsertBoard(b)
	case BoardDeleted:
		id, err := EventID(ev.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", ev.Type, err)
		}
		a.store.RemoveBoard(id)
	case ListCreated, ListUpdated:
		var l List
		if err := json.Unmarshal(ev.Data, &l); err != nil || l.ID == "" {
			return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
		}
		if !a.scope.HasBoard(l.Board) {
			log.WithField("list", l.ID).Debug("dropping event outside joined scope")
			return nil
		}
		a.store.UpsertList(l)
	case ListDeleted:
		id, err := EventID(ev.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", ev.Type, err)
		}
		a.store.RemoveList(id)
	case CardCreated, CardUpdated:
		var c Card
		if err := json.Unmarshal(ev.Data, &c); err != nil || c.ID == "" {
			return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
		}
		if !a.scope.HasBoard(c.Board) {
			log.WithField("card", c.ID).Debug("dropping event outside joined scope")
			return nil
		}
		a.store.UpsertCard(c)
	case CardDeleted:
		id, err := EventID(ev.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", ev.Type, err)
		}
		a.store.RemoveCard(id)
	case UserOnline:
		var u OnlineUser
		if err := json.Unmarshal(ev.Data, &u); err != nil || u.UserID == "" {
			return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
		}
		a.presence.SetOnline(u)
	case UserOffline:
		var id string
		if err := json.Unmarshal(ev.Data, &id); err != nil || id == "" {
			var u OnlineUser
			if err := json.Unmarshal(ev.Data, &u); err != nil || u.UserID == "" {
				return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
			}
			id = u.UserID
		}
		a.presence.SetOffline(id)
	case OnlineUsers:
		var users []OnlineUser
		if err := json.Unmarshal(ev.Data, &users); err != nil {
			return fmt.Errorf("%s: %w", ev.Type, ErrMalformedEvent)
		}
		a.presence.ReplaceAll(users)
	default:
		log.WithField("event", ev.Type).Warn("ignoring unknown event kind")
	}
	return nil
}

// Local mutations: the optimistic half of a client-initiated edit. They
// skip scope gating (the user is editing what they see) and rely on the
// server echoing back the same id for convergence.

func (a *Applier) LocalUpsertWorkspace(ws Workspace) { a.store.UpsertWorkspace(ws) }
func (a *Applier) LocalRemoveWorkspace(id string)    { a.store.RemoveWorkspace(id) }
func (a *Applier) LocalUpsertBoard(b Board)          { a.store.UpsertBoard(b) }
func (a *Applier) LocalRemoveBoard(id string)        { a.store.RemoveBoard(id) }
func (a *Applier) LocalUpsertList(l List)            { a.store.UpsertList(l) }
func (a *Applier) LocalRemoveList(id string)         { a.store.RemoveList(id) }
func (a *Applier) LocalUpsertCard(c Card)            { a.store.UpsertCard(c) }
func (a *Applier) LocalRemoveCard(id string)         { a.store.RemoveCard(id) }

// MoveCard applies a drag-and-drop move optimistically. Reports whether
// the card was present. Positions are taken as-is; collisions between
// concurrent moves are resolved by whichever update lands last.
func (a *Applier) MoveCard(cardID, listID string, position int) bool {
	c, ok := a.store.Card(cardID)
	if !ok {
		return false
	}
	c.List = listID
	c.Position = position
	a.store.UpsertCard(c)
	return true
}
