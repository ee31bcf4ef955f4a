package domain

import (
	"context"
	"sort"
	"sync"
)

// Transport is the push channel the client manages subscriptions on.
// Implementations deliver events for joined boards and workspaces back
// through a handler; the applier treats the transport as opaque.
type Transport interface {
	JoinBoard(ctx context.Context, boardID string) error
	LeaveBoard(ctx context.Context, boardID string) error
	JoinWorkspace(ctx context.Context, workspaceID string) error
	LeaveWorkspace(ctx context.Context, workspaceID string) error
}

// Scope tracks which boards and workspaces the client currently accepts
// realtime events for. Transitions happen only via explicit join/leave
// calls, never inferred from event content. A leave filters future
// events; state already merged stays in the store.
type Scope struct {
	transport Transport

	mu         sync.RWMutex
	boards     map[string]struct{}
	workspaces map[string]struct{}
}

// NewScope creates an empty scope. A nil transport keeps the scope
// purely local, which is what unit tests want.
func NewScope(t Transport) *Scope {
	return &Scope{
		transport:  t,
		boards:     make(map[string]struct{}),
		workspaces: make(map[string]struct{}),
	}
}

// JoinBoard subscribes to the board's events. Joining a board that is
// already joined is a no-op and does not hit the transport again.
func (s *Scope) JoinBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	if _, ok := s.boards[boardID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.boards[boardID] = struct{}{}
	s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	return s.transport.JoinBoard(ctx, boardID)
}

func (s *Scope) LeaveBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	if _, ok := s.boards[boardID]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.boards, boardID)
	s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	return s.transport.LeaveBoard(ctx, boardID)
}

func (s *Scope) JoinWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	if _, ok := s.workspaces[workspaceID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.workspaces[workspaceID] = struct{}{}
	s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	return s.transport.JoinWorkspace(ctx, workspaceID)
}

func (s *Scope) LeaveWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	if _, ok := s.workspaces[workspaceID]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.workspaces, workspaceID)
	s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	return s.transport.LeaveWorkspace(ctx, workspaceID)
}

func (s *Scope) HasBoard(boardID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.boards[boardID]
	return ok
}

func (s *Scope) HasWorkspace(workspaceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.workspaces[workspaceID]
	return ok
}

// Boards returns the joined board ids, sorted. Used to replay joins
// after a transport reconnect.
func (s *Scope) Boards() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.boards)
}

func (s *Scope) Workspaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.workspaces)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
