package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/igwemiracle/project-management-app-frontend/api"
	"github.com/igwemiracle/project-management-app-frontend/domain"
	"github.com/igwemiracle/project-management-app-frontend/storage"
	"github.com/igwemiracle/project-management-app-frontend/subscription"
	"github.com/igwemiracle/project-management-app-frontend/transport"
)

type pushTransport interface {
	domain.Transport
	Connect(ctx context.Context) error
	Close() error
}

func main() {
	log.Println("Board sync client starting")
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	store := storage.New()
	presence := domain.NewPresence()
	broker := api.NewUpdateBroker()

	var rc *redis.Client
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc = redis.NewClient(parseRedisOptions(redisConn))
	}

	var cache *cacheUpdater
	if rc != nil {
		ttl := time.Duration(0)
		if v := os.Getenv("SNAPSHOT_CACHE_TTL"); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				log.Fatalf("invalid SNAPSHOT_CACHE_TTL: %v", err)
			}
			ttl = parsed
		}
		cache = newCacheUpdater(store, rc, ttl)
	}

	// Events from the transport land on one queue drained by a single
	// goroutine, so the store only ever has one writer.
	events := make(chan domain.Event, 256)
	handler := func(ev domain.Event) { events <- ev }

	var tr pushTransport
	switch os.Getenv("PUSH_TRANSPORT") {
	case "", "websocket":
		socketURL := os.Getenv("SOCKET_URL")
		if socketURL == "" {
			log.Fatal("missing SOCKET_URL")
		}
		tr = transport.NewSocket(socketURL, os.Getenv("USER_ID"), os.Getenv("USERNAME"), handler, presence.SetConnected)
	case "redis":
		if rc == nil {
			log.Fatal("missing REDIS_CONNECTION_STRING for redis transport")
		}
		tr = subscription.New(rc, os.Getenv("EVENTS_CHANNEL_PREFIX"), handler, presence.SetConnected)
	default:
		log.Fatalf("unknown PUSH_TRANSPORT %q", os.Getenv("PUSH_TRANSPORT"))
	}

	scope := domain.NewScope(tr)
	applier := domain.NewApplier(store, presence, scope)
	proc := processor{applier: applier, cache: cache, notifier: broker, resolver: store}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tr.Connect(ctx); err != nil {
		log.Fatalf("transport: %v", err)
	}

	for _, id := range splitIDs(os.Getenv("WORKSPACE_IDS")) {
		if err := scope.JoinWorkspace(ctx, id); err != nil {
			log.Fatalf("join workspace %s: %v", id, err)
		}
	}
	for _, id := range splitIDs(os.Getenv("BOARD_IDS")) {
		if err := scope.JoinBoard(ctx, id); err != nil {
			log.Fatalf("join board %s: %v", id, err)
		}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if err := proc.process(ctx, ev); err != nil {
					log.WithField("event", ev.Type).Errorf("apply failed: %v", err)
				}
			}
		}
	}()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	api.Register(e, store, presence, broker)

	listenAddr := ":9100"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}
	go func() {
		if err := e.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	if err := tr.Close(); err != nil {
		log.Errorf("transport close: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}

// parseRedisOptions understands both redis URLs and the comma separated
// "host:port,password=...,ssl=true" connection string form.
func parseRedisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
