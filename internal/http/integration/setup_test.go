package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geocoder89/contacts/internal/auth"
	"github.com/geocoder89/contacts/internal/avatar"
	"github.com/geocoder89/contacts/internal/config"
	"github.com/geocoder89/contacts/internal/db"
	apphttp "github.com/geocoder89/contacts/internal/http"
	"github.com/geocoder89/contacts/internal/http/handlers"
	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/geocoder89/contacts/internal/queue"
	"github.com/geocoder89/contacts/internal/repo/memory"
	"github.com/geocoder89/contacts/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type testApp struct {
	router http.Handler
	queue  *queue.Memory
}

func testConfig(t *testing.T) config.Config {
	root := t.TempDir()

	return config.Config{
		Env:            "test",
		Store:          "memory",
		JWTSecret:      "test-secret-key",
		BaseURL:        "http://localhost:8080",
		AvatarsDir:     filepath.Join(root, "avatars"),
		UploadTmpDir:   filepath.Join(root, "tmp"),
		AvatarSize:     50,
		MaxUploadBytes: 1 << 20,
		MaxBodyBytes:   1 << 20,
		AuthRateLimit:  1000,
		AuthRateWindow: time.Minute,
	}
}

func buildApp(t *testing.T, cfg config.Config, users apphttp.UsersBackend, contacts handlers.ContactsStore, ping func(context.Context) error) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	avatars, err := avatar.NewStore(cfg.AvatarsDir, cfg.UploadTmpDir)
	if err != nil {
		t.Fatalf("avatar store: %v", err)
	}

	reg := prometheus.NewRegistry()
	q := queue.NewMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Cfg:        cfg,
		Users:      users,
		Contacts:   contacts,
		Sessions:   auth.NewManager(cfg.JWTSecret),
		Queue:      q,
		Avatars:    avatars,
		AvatarsDir: cfg.AvatarsDir,
		Prom:       observability.NewProm(reg),
		Gatherer:   reg,
		Ping:       ping,
	})

	return &testApp{router: router, queue: q}
}

func setupMemoryApp(t *testing.T) *testApp {
	t.Helper()

	users := memory.NewUsersRepo()
	return buildApp(t, testConfig(t), users, memory.NewContactsRepo(), users.Ping)
}

// setupPostgresApp runs against TEST_DB_DSN and skips when it is not set.
func setupPostgresApp(t *testing.T) *testApp {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, db.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := testConfig(t)
	cfg.Store = "postgres"

	return buildApp(t, cfg,
		postgres.NewUsersRepo(pool, nil),
		postgres.NewContactsRepo(pool, nil),
		pool.Ping,
	)
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, status, w.Body.String())
	}
}

// verificationToken reads the token mailed to email from the queued jobs.
func (a *testApp) verificationToken(t *testing.T, email string) string {
	t.Helper()

	for _, j := range a.queue.Pending() {
		if j.Type != jobs.JobSendVerificationEmail {
			continue
		}
		decoded, err := jobs.DecodePayload(j)
		if err != nil {
			t.Fatalf("decode job: %v", err)
		}
		p := decoded.(jobs.SendVerificationEmailPayload)
		if p.Email == email {
			return p.VerificationToken
		}
	}

	t.Fatalf("no verification email queued for %s", email)
	return ""
}

// registerAndLogin walks signup, verification and login and returns the session token.
func (a *testApp) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": password}

	a.expect(t, a.do(t, http.MethodPost, "/users/signup", "", creds), http.StatusCreated)
	a.expect(t, a.do(t, http.MethodPatch, "/users/verify/"+a.verificationToken(t, email), "", nil), http.StatusOK)

	w := a.do(t, http.MethodPost, "/users/login", "", creds)
	a.expect(t, w, http.StatusOK)

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Token == "" {
		t.Fatalf("login response without token: %s", w.Body.String())
	}
	return body.Token
}
