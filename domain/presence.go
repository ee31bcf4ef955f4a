package domain

import (
	"sort"
	"sync"
)

// Presence is the set of users currently marked online, plus the
// transport connection flag. It is a last-write-wins projection:
// entries are corrected only by explicit offline events or snapshot
// replacement, so a missed disconnect leaves a stale entry until the
// next snapshot.
type Presence struct {
	mu        sync.RWMutex
	users     map[string]OnlineUser
	connected bool
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]OnlineUser)}
}

// SetOnline upserts the user keyed by its id.
func (p *Presence) SetOnline(u OnlineUser) {
	if u.UserID == "" {
		return
	}
	p.mu.Lock()
	p.users[u.UserID] = u
	p.mu.Unlock()
}

// SetOffline removes the user; unknown ids are a no-op.
func (p *Presence) SetOffline(userID string) {
	p.mu.Lock()
	delete(p.users, userID)
	p.mu.Unlock()
}

// ReplaceAll swaps the whole projection atomically. Used after a
// (re)connect to resync presence instead of replaying history.
func (p *Presence) ReplaceAll(users []OnlineUser) {
	next := make(map[string]OnlineUser, len(users))
	for _, u := range users {
		if u.UserID == "" {
			continue
		}
		next[u.UserID] = u
	}
	p.mu.Lock()
	p.users = next
	p.mu.Unlock()
}

// Online returns all online users ordered by user id.
func (p *Presence) Online() []OnlineUser {
	return p.filtered(func(OnlineUser) bool { return true })
}

// OnlineOnBoard returns the online users scoped to the given board.
func (p *Presence) OnlineOnBoard(boardID string) []OnlineUser {
	return p.filtered(func(u OnlineUser) bool { return u.BoardID == boardID })
}

// OnlineInWorkspace returns the online users scoped to the given workspace.
func (p *Presence) OnlineInWorkspace(workspaceID string) []OnlineUser {
	return p.filtered(func(u OnlineUser) bool { return u.WorkspaceID == workspaceID })
}

func (p *Presence) filtered(keep func(OnlineUser) bool) []OnlineUser {
	p.mu.RLock()
	users := make([]OnlineUser, 0, len(p.users))
	for _, u := range p.users {
		if keep(u) {
			users = append(users, u)
		}
	}
	p.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

func (p *Presence) SetConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *Presence) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}
