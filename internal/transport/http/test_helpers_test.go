package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/laibajaved880/team-chat/internal/auth"
	"github.com/laibajaved880/team-chat/internal/config"
	"github.com/laibajaved880/team-chat/internal/core"
	"github.com/laibajaved880/team-chat/internal/store"
	"github.com/laibajaved880/team-chat/internal/store/sqlite"
)

// testSink bridges the message store into the hub for tests, mirroring the
// app wiring.
type testSink struct {
	store store.MessageStore
}

func (s testSink) Append(ctx context.Context, msg core.Message) (int64, error) {
	return s.store.SaveMessage(ctx, &store.Message{
		Room:      msg.Room,
		Username:  msg.From,
		Content:   msg.Text,
		CreatedAt: msg.CreatedAt,
	})
}

type testEnv struct {
	server *httptest.Server
	store  store.Store
	hub    *core.Hub
	auth   *auth.Service
}

// startTestServer boots the full HTTP stack on an in-memory store.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	hub := core.NewHub(testSink{store: st}, &logger)

	server := NewServer(hub, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		HistoryLimit:      50,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st, hub: hub, auth: authService}
}
