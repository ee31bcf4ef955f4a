package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/igwemiracle/project-management-app-frontend/domain"
	"github.com/igwemiracle/project-management-app-frontend/internal/consts"
	"github.com/igwemiracle/project-management-app-frontend/storage"
)

// Store is the read side of the local projection.
type Store interface {
	Snapshot(boardID string) (storage.BoardSnapshot, bool)
	Workspaces() []domain.Workspace
	BoardsByWorkspace(workspaceID string) []domain.Board
}

// PresenceSource exposes the presence projection.
type PresenceSource interface {
	Online() []domain.OnlineUser
	OnlineOnBoard(boardID string) []domain.OnlineUser
	OnlineInWorkspace(workspaceID string) []domain.OnlineUser
	Connected() bool
}

// UpdateBroker fans a "projection changed" tick out to SSE streams.
// Each subscriber holds a one-slot dirty flag, so a burst of events
// coalesces into a single re-read of the snapshot.
type UpdateBroker struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewUpdateBroker() *UpdateBroker {
	return &UpdateBroker{subs: make(map[chan struct{}]struct{})}
}

func (b *UpdateBroker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *UpdateBroker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Notify marks every subscriber dirty without blocking.
func (b *UpdateBroker) Notify() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// Register wires up the projection mirror endpoints.
func Register(e *echo.Echo, store Store, presence PresenceSource, broker *UpdateBroker) {
	e.GET("/workspaces", getWorkspaces(store))
	e.GET("/workspaces/:id/boards", getBoards(store))
	e.GET("/boards/:id", getBoard(store))
	e.GET("/presence", getPresence(presence))
	e.GET("/stream", streamBoard(store, broker))
}

func getWorkspaces(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, store.Workspaces())
	}
}

func getBoards(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, store.BoardsByWorkspace(c.Param("id")))
	}
}

func getBoard(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap, ok := store.Snapshot(c.Param("id"))
		if !ok {
			return c.NoContent(http.StatusNotFound)
		}
		return c.JSON(http.StatusOK, snap)
	}
}

func getPresence(presence PresenceSource) echo.HandlerFunc {
	return func(c echo.Context) error {
		var users []domain.OnlineUser
		switch {
		case c.QueryParam("board") != "":
			users = presence.OnlineOnBoard(c.QueryParam("board"))
		case c.QueryParam("workspace") != "":
			users = presence.OnlineInWorkspace(c.QueryParam("workspace"))
		default:
			users = presence.Online()
		}
		return c.JSON(http.StatusOK, map[string]any{
			"connected": presence.Connected(),
			"users":     users,
		})
	}
}

// streamBoard re-emits the board snapshot over SSE whenever the broker
// signals a change. The full snapshot is sent each time; clients never
// have to patch incremental diffs.
func streamBoard(store Store, broker *UpdateBroker) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID := c.QueryParam("board")
		if boardID == "" {
			return c.String(http.StatusBadRequest, "missing board query parameter")
		}
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ctx := c.Request().Context()
		ch := broker.subscribe()
		defer broker.unsubscribe(ch)
		for {
			snap, _ := store.Snapshot(boardID)
			data, err := json.Marshal(snap)
			if err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write([]byte(consts.SSEDataPrefix)); err != nil {
				return err
			}
			if _, err := c.Response().Write(data); err != nil {
				return err
			}
			if _, err := c.Response().Write([]byte("\n\n")); err != nil {
				return err
			}
			flusher.Flush()
			select {
			case <-ctx.Done():
				return nil
			case <-ch:
				continue
			}
		}
	}
}
