package domain

type fakeStore struct {
	workspaces map[string]Workspace
	boards     map[string]Board
	lists      map[string]List
	cards      map[string]Card
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workspaces: map[string]Workspace{},
		boards:     map[string]Board{},
		lists:      map[string]List{},
		cards:      map[string]Card{},
	}
}

func (f *fakeStore) UpsertWorkspace(ws Workspace) { f.workspaces[ws.ID] = ws }
func (f *fakeStore) RemoveWorkspace(id string)    { delete(f.workspaces, id) }

func (f *fakeStore) UpsertBoard(b Board) { f.boards[b.ID] = b }

func (f *fakeStore) RemoveBoard(id string) {
	delete(f.boards, id)
	for lid, l := range f.lists {
		if l.Board == id {
			delete(f.lists, lid)
		}
	}
	for cid, c := range f.cards {
		if c.Board == id {
			delete(f.cards, cid)
		}
	}
}

func (f *fakeStore) UpsertList(l List) { f.lists[l.ID] = l }

func (f *fakeStore) RemoveList(id string) {
	delete(f.lists, id)
	for cid, c := range f.cards {
		if c.List == id {
			delete(f.cards, cid)
		}
	}
}

func (f *fakeStore) UpsertCard(c Card)    { f.cards[c.ID] = c }
func (f *fakeStore) RemoveCard(id string) { delete(f.cards, id) }

func (f *fakeStore) Card(id string) (Card, bool) {
	c, ok := f.cards[id]
	return c, ok
}
