package suite

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stockpile/internal/lib/jwt"
	"stockpile/internal/services/session"
	"stockpile/internal/services/tokenstore"
	"stockpile/internal/storage/keystore"
	"stockpile/internal/transport/client"
	"stockpile/tests/stub"
)

// Secret signs every token in the e2e suite; tests that need to mint
// tokens with a chosen expiry share it with the stub backend.
var Secret = []byte("e2e-test-secret")

type Suite struct {
	*testing.T
	Backend  *stub.Backend
	Client   *client.Client
	Manager  *session.Manager
	Store    *tokenstore.Store
	Keystore *keystore.FileKeystore
}

// New wires a full client stack against a fresh in-process stub backend.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()
	t.Parallel()

	backend := stub.New(Secret)

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	ks, err := keystore.New(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatalf("keystore: %v", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store := tokenstore.New(log, ks)
	apiClient := client.New(log, srv.URL, 5*time.Second, jwt.DefaultSkew, store)
	manager := session.New(log, apiClient)

	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Minute)

	t.Cleanup(func() {
		t.Helper()
		cancelCtx()
	})

	return ctx, &Suite{
		T:        t,
		Backend:  backend,
		Client:   apiClient,
		Manager:  manager,
		Store:    store,
		Keystore: ks,
	}
}
