package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/config"
	"github.com/medbase/medbase/internal/platform/db"
)

// fakePool answers health pings. Any query panics through the nil embedded
// interface, so tests only reach routes that never touch the database.
type fakePool struct {
	db.Pool
	pingErr error
}

func (p *fakePool) Ping(ctx context.Context) error { return p.pingErr }

func testConfig(env string) *config.Config {
	return &config.Config{
		AppName:                  "MedBase-API",
		Port:                     "8000",
		Env:                      env,
		SecretKey:                "test-signing-key-with-at-least-32-bytes",
		AccessTokenExpireMinutes: 30,
		CORSOrigins:              []string{"http://localhost:3000"},
		BodyLimit:                "2M",
		SequenceMaxAttempts:      5,
	}
}

func serve(t *testing.T, cfg *config.Config, pool serverPool, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := newServer(cfg, pool, zerolog.Nop())
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "status"},
		{"user", "create-admin"},
		{"sequence", "sync"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Errorf("%v: %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("%v resolved to %q", path, cmd.Name())
		}
	}
}

func TestCreateAdmin_RequiresCredentials(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"user", "create-admin", "--username", "admin"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected missing flag error, got %v", err)
	}
}

func TestServer_ServiceInfo(t *testing.T) {
	rec := serve(t, testConfig("development"), &fakePool{}, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"name":"MedBase-API"`) || !strings.Contains(body, `"version":"1.0.0"`) {
		t.Errorf("unexpected body: %s", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_HealthIsPublicInProduction(t *testing.T) {
	rec := serve(t, testConfig("production"), &fakePool{}, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_HealthDB(t *testing.T) {
	rec := serve(t, testConfig("development"), &fakePool{}, http.MethodGet, "/health/db")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(t, testConfig("development"), &fakePool{pingErr: errors.New("connection refused")}, http.MethodGet, "/health/db")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"unhealthy"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestServer_ProductionRequiresToken(t *testing.T) {
	rec := serve(t, testConfig("production"), &fakePool{}, http.MethodGet, "/api/v1/patients")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not authenticated") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestServer_RegistersEveryModule(t *testing.T) {
	e := newServer(testConfig("development"), &fakePool{}, zerolog.Nop())
	routes := make(map[string]bool)
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/users/me",
		"POST /api/v1/doctors",
		"GET /api/v1/patients/number/:number",
		"POST /api/v1/appointments",
		"GET /api/v1/medical-records/:id",
		"GET /api/v1/medicine-categories",
		"GET /api/v1/equipment-categories",
		"GET /api/v1/medical-device-categories",
		"PATCH /api/v1/medicines/:id",
		"POST /api/v1/inventory-transactions",
		"POST /api/v1/prescriptions",
		"GET /api/v1/prescribed-devices",
		"GET /api/v1/donors/code/:code",
		"DELETE /api/v1/donations/:id/medicine-items/:item_id",
		"GET /api/v1/system-settings/key/:key",
	} {
		if !routes[want] {
			t.Errorf("route %s not registered", want)
		}
	}
}

func TestNewLogger_WritesToFile(t *testing.T) {
	cfg := testConfig("production")
	cfg.LogLevel = "debug"
	cfg.LogFile = filepath.Join(t.TempDir(), "medbase.log")
	cfg.LogMaxSizeMB = 1

	logger, closer, err := newLogger(cfg, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug().Msg("sequence assigned")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "sequence assigned") || !strings.Contains(string(data), `"service":"MedBase-API"`) {
		t.Errorf("unexpected log file contents: %s", data)
	}
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := testConfig("production")
	cfg.LogLevel = "chatty"
	if _, _, err := newLogger(cfg, io.Discard); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestMigrationFiles_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles(""), ".")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Name() == "001_core.sql" {
			found = true
		}
	}
	if !found {
		t.Error("expected 001_core.sql in the embedded migrations")
	}
}
