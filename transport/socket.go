package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/igwemiracle/project-management-app-frontend/domain"
)

const (
	joinBoardEvent      = "joinBoard"
	leaveBoardEvent     = "leaveBoard"
	joinWorkspaceEvent  = "joinWorkspace"
	leaveWorkspaceEvent = "leaveWorkspace"

	reconnectDelay = time.Second
)

// ErrNotConnected indicates an emit before Connect (or after Close).
var ErrNotConnected = errors.New("socket not connected")

// Socket is the websocket push transport: it dials the gateway with the
// user identity in the query string, turns inbound JSON frames into
// domain events, and emits join/leave frames for subscription scope.
// On a dropped connection it redials and replays the joined rooms, so
// the gateway may redeliver events; the applier's idempotence absorbs
// that.
type Socket struct {
	rawURL   string
	userID   string
	username string
	handler  func(domain.Event)
	state    func(connected bool)

	mu               sync.Mutex
	conn             *websocket.Conn
	joinedBoards     map[string]struct{}
	joinedWorkspaces map[string]struct{}
	closed           bool
}

// NewSocket creates a websocket transport. state may be nil; when set
// it receives connection transitions.
func NewSocket(rawURL, userID, username string, handler func(domain.Event), state func(bool)) *Socket {
	return &Socket{
		rawURL:           rawURL,
		userID:           userID,
		username:         username,
		handler:          handler,
		state:            state,
		joinedBoards:     make(map[string]struct{}),
		joinedWorkspaces: make(map[string]struct{}),
	}
}

// Connect dials the gateway and starts the read loop. The loop runs
// until ctx is cancelled or Close is called.
func (s *Socket) Connect(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.setState(true)
	go s.run(ctx)
	return nil
}

func (s *Socket) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("userId", s.userID)
	q.Set("username", s.username)
	u.RawQuery = q.Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func (s *Socket) run(ctx context.Context) {
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err == nil {
			var ev domain.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				log.Errorf("unable to parse push frame: %v", err)
				continue
			}
			s.handler(ev)
			continue
		}
		s.setState(false)
		if ctx.Err() != nil || s.isClosed() {
			return
		}
		log.Warnf("socket read failed, reconnecting: %v", err)
		if !s.reconnect(ctx) {
			return
		}
	}
}

// reconnect redials until it succeeds, then replays the joined rooms.
// Reports false when ctx was cancelled or the socket was closed.
func (s *Socket) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(reconnectDelay):
		}
		if s.isClosed() {
			return false
		}
		conn, err := s.dial(ctx)
		if err != nil {
			log.Errorf("socket redial failed: %v", err)
			continue
		}
		s.mu.Lock()
		s.conn = conn
		boards := make([]string, 0, len(s.joinedBoards))
		for id := range s.joinedBoards {
			boards = append(boards, id)
		}
		workspaces := make([]string, 0, len(s.joinedWorkspaces))
		for id := range s.joinedWorkspaces {
			workspaces = append(workspaces, id)
		}
		s.mu.Unlock()
		for _, id := range workspaces {
			if err := s.emit(joinWorkspaceEvent, id); err != nil {
				log.Errorf("rejoin workspace %s: %v", id, err)
			}
		}
		for _, id := range boards {
			if err := s.emit(joinBoardEvent, id); err != nil {
				log.Errorf("rejoin board %s: %v", id, err)
			}
		}
		s.setState(true)
		return true
	}
}

func (s *Socket) JoinBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	s.joinedBoards[boardID] = struct{}{}
	s.mu.Unlock()
	return s.emit(joinBoardEvent, boardID)
}

func (s *Socket) LeaveBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	delete(s.joinedBoards, boardID)
	s.mu.Unlock()
	return s.emit(leaveBoardEvent, boardID)
}

func (s *Socket) JoinWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	s.joinedWorkspaces[workspaceID] = struct{}{}
	s.mu.Unlock()
	return s.emit(joinWorkspaceEvent, workspaceID)
}

func (s *Socket) LeaveWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	delete(s.joinedWorkspaces, workspaceID)
	s.mu.Unlock()
	return s.emit(leaveWorkspaceEvent, workspaceID)
}

func (s *Socket) emit(event, id string) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.WriteJSON(domain.Event{Type: event, Data: data})
}

// Close shuts the connection down and stops any reconnect attempts.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Socket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Socket) setState(connected bool) {
	if s.state != nil {
		s.state(connected)
	}
}
