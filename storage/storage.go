package storage

import (
	"sort"
	"sync"

	"github.com/igwemiracle/project-management-app-frontend/domain"
)

// Store is the normalized in-memory projection of workspaces, boards,
// lists and cards, keyed by id. It owns the canonical copy of every
// entity: readers get copies, and all writes go through the upsert and
// remove primitives (driven by the event applier or the local reducer).
// The RWMutex lets transport goroutines and API readers share it, but
// the single-writer discipline still holds because only the applier
// path mutates it.
type Store struct {
	mu         sync.RWMutex
	seq        uint64
	workspaces map[string]workspaceEntry
	boards     map[string]boardEntry
	lists      map[string]listEntry
	cards      map[string]cardEntry
}

// Entries remember the insertion sequence so sibling queries can break
// position ties deterministically. Replacing an entity keeps its
// original sequence.
type workspaceEntry struct {
	ws  domain.Workspace
	seq uint64
}

type boardEntry struct {
	board domain.Board
	seq   uint64
}

type listEntry struct {
	list domain.List
	seq  uint64
}

type cardEntry struct {
	card domain.Card
	seq  uint64
}

func New() *Store {
	return &Store{
		workspaces: make(map[string]workspaceEntry),
		boards:     make(map[string]boardEntry),
		lists:      make(map[string]listEntry),
		cards:      make(map[string]cardEntry),
	}
}

func (s *Store) UpsertWorkspace(ws domain.Workspace) {
	if ws.ID == "" {
		return
	}
	s.mu.Lock()
	seq := s.seq
	if prev, ok := s.workspaces[ws.ID]; ok {
		seq = prev.seq
	} else {
		s.seq++
	}
	s.workspaces[ws.ID] = workspaceEntry{ws: ws, seq: seq}
	s.mu.Unlock()
}

// RemoveWorkspace deletes the workspace only. Boards under it stay in
// the store until their own deletion events arrive; this mirrors the
// server's behavior of emitting board deletions separately.
func (s *Store) RemoveWorkspace(id string) {
	s.mu.Lock()
	delete(s.workspaces, id)
	s.mu.Unlock()
}

func (s *Store) UpsertBoard(b domain.Board) {
	if b.ID == "" {
		return
	}
	s.mu.Lock()
	seq := s.seq
	if prev, ok := s.boards[b.ID]; ok {
		seq = prev.seq
	} else {
		s.seq++
	}
	s.boards[b.ID] = boardEntry{board: b, seq: seq}
	s.mu.Unlock()
}

// RemoveBoard deletes the board and cascades to every list and card on
// it. Cards are matched by board id rather than by surviving lists, so
// orphans whose list was already gone are swept out too. Absent ids are
// a no-op.
func (s *Store) RemoveBoard(id string) {
	s.mu.Lock()
	delete(s.boards, id)
	for lid, e := range s.lists {
		if e.list.Board == id {
			delete(s.lists, lid)
		}
	}
	for cid, e := range s.cards {
		if e.card.Board == id {
			delete(s.cards, cid)
		}
	}
	s.mu.Unlock()
}

func (s *Store) UpsertList(l domain.List) {
	if l.ID == "" {
		return
	}
	s.mu.Lock()
	seq := s.seq
	if prev, ok := s.lists[l.ID]; ok {
		seq = prev.seq
	} else {
		s.seq++
	}
	s.lists[l.ID] = listEntry{list: l, seq: seq}
	s.mu.Unlock()
}

// RemoveList deletes the list and cascades to its cards.
func (s *Store) RemoveList(id string) {
	s.mu.Lock()
	delete(s.lists, id)
	for cid, e := range s.cards {
		if e.card.List == id {
			delete(s.cards, cid)
		}
	}
	s.mu.Unlock()
}

func (s *Store) UpsertCard(c domain.Card) {
	if c.ID == "" {
		return
	}
	s.mu.Lock()
	seq := s.seq
	if prev, ok := s.cards[c.ID]; ok {
		seq = prev.seq
	} else {
		s.seq++
	}
	s.cards[c.ID] = cardEntry{card: c, seq: seq}
	s.mu.Unlock()
}

func (s *Store) RemoveCard(id string) {
	s.mu.Lock()
	delete(s.cards, id)
	s.mu.Unlock()
}

func (s *Store) Workspace(id string) (domain.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.workspaces[id]
	return e.ws, ok
}

func (s *Store) Board(id string) (domain.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.boards[id]
	return e.board, ok
}

func (s *Store) List(id string) (domain.List, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.lists[id]
	return e.list, ok
}

func (s *Store) Card(id string) (domain.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cards[id]
	return cloneCard(e.card), ok
}

// Workspaces returns all workspaces in insertion order.
func (s *Store) Workspaces() []domain.Workspace {
	s.mu.RLock()
	entries := make([]workspaceEntry, 0, len(s.workspaces))
	for _, e := range s.workspaces {
		entries = append(entries, e)
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]domain.Workspace, len(entries))
	for i, e := range entries {
		out[i] = e.ws
	}
	return out
}

// BoardsByWorkspace returns the workspace's boards in insertion order.
func (s *Store) BoardsByWorkspace(workspaceID string) []domain.Board {
	s.mu.RLock()
	entries := make([]boardEntry, 0)
	for _, e := range s.boards {
		if e.board.Workspace == workspaceID {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]domain.Board, len(entries))
	for i, e := range entries {
		out[i] = e.board
	}
	return out
}

// ListsByBoard returns the board's lists in ascending position order.
// Ties keep insertion order so repeated queries render identically.
func (s *Store) ListsByBoard(boardID string) []domain.List {
	s.mu.RLock()
	entries := make([]listEntry, 0)
	for _, e := range s.lists {
		if e.list.Board == boardID {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].list.Position < entries[j].list.Position })
	out := make([]domain.List, len(entries))
	for i, e := range entries {
		out[i] = e.list
	}
	return out
}

// CardsByList returns the list's cards in ascending position order,
// ties broken by insertion order. Cards referencing a dangling list id
// are simply never returned by any list's query.
func (s *Store) CardsByList(listID string) []domain.Card {
	s.mu.RLock()
	entries := make([]cardEntry, 0)
	for _, e := range s.cards {
		if e.card.List == listID {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].card.Position < entries[j].card.Position })
	out := make([]domain.Card, len(entries))
	for i, e := range entries {
		out[i] = cloneCard(e.card)
	}
	return out
}

// Load ingests the initial full-state REST fetch for a board. The
// response rows share the entity shapes, so they go through the same
// upsert primitives as realtime events.
func (s *Store) Load(boards []domain.Board, lists []domain.List, cards []domain.Card) {
	for _, b := range boards {
		s.UpsertBoard(b)
	}
	for _, l := range lists {
		s.UpsertList(l)
	}
	for _, c := range cards {
		s.UpsertCard(c)
	}
}

// BoardSnapshot is the nested read view handed to API consumers.
type BoardSnapshot struct {
	Board domain.Board   `json:"board"`
	Lists []ListSnapshot `json:"lists"`
}

type ListSnapshot struct {
	List  domain.List   `json:"list"`
	Cards []domain.Card `json:"cards"`
}

// Snapshot assembles the board with its lists and cards in render
// order. Reports false when the board is not loaded.
func (s *Store) Snapshot(boardID string) (BoardSnapshot, bool) {
	board, ok := s.Board(boardID)
	if !ok {
		return BoardSnapshot{}, false
	}
	snap := BoardSnapshot{Board: board, Lists: []ListSnapshot{}}
	for _, l := range s.ListsByBoard(boardID) {
		snap.Lists = append(snap.Lists, ListSnapshot{List: l, Cards: s.CardsByList(l.ID)})
	}
	return snap, true
}

// cloneCard detaches the slice fields so callers cannot reach back into
// the stored entity.
func cloneCard(c domain.Card) domain.Card {
	if c.AssignedTo != nil {
		c.AssignedTo = append([]string(nil), c.AssignedTo...)
	}
	if c.Labels != nil {
		c.Labels = append([]string(nil), c.Labels...)
	}
	if c.Attachments != nil {
		c.Attachments = append([]string(nil), c.Attachments...)
	}
	return c
}
