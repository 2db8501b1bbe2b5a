package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/pkg/jwtx"
)

func testConfig(t *testing.T, dir string, extra map[string]string) Config {
	t.Helper()
	env := map[string]string{
		"PETBOOK_DATABASE_FILE": filepath.Join(dir, "petbook.db"),
		"PETBOOK_PEPPER_FILE":   filepath.Join(dir, "pepper"),
		"LOG_LEVEL":             "error",
	}
	for k, v := range extra {
		env[k] = v
	}
	cfg, err := LoadConfigFrom(t.Context(), envconfig.MapLookuper(env))
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg Config) *Application {
	t.Helper()
	app, err := New(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })
	return app
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func TestApplicationRoutes(t *testing.T) {
	app := newTestApp(t, testConfig(t, t.TempDir(), nil))
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	client := &http.Client{CheckRedirect: noRedirect}

	tests := []struct {
		path     string
		code     int
		location string
	}{
		{path: "/livez", code: http.StatusOK},
		{path: "/readyz", code: http.StatusOK},
		{path: "/.well-known/jwks.json", code: http.StatusOK},
		{path: "/metrics", code: http.StatusOK},
		{path: "/v1/dashboard", code: http.StatusUnauthorized},
		{path: "/auth/sign-in", code: http.StatusOK},
		{path: "/app/dashboard", code: http.StatusSeeOther, location: "/auth/sign-in?redirectTo=%2Fapp%2Fdashboard"},
	}
	for _, tt := range tests {
		resp, err := client.Get(srv.URL + tt.path)
		require.NoError(t, err, tt.path)
		_ = resp.Body.Close()
		require.Equal(t, tt.code, resp.StatusCode, tt.path)
		require.Equal(t, tt.location, resp.Header.Get("Location"), tt.path)
	}
}

func jwksKids(t *testing.T, app *Application) []string {
	t.Helper()
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var set jwtx.JWKS
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	kids := make([]string, 0, len(set.Keys))
	for _, k := range set.Keys {
		kids = append(kids, k.Kid)
	}
	return kids
}

func TestPersistentKeysSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "master.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("a-long-random-master-key-for-tests"), 0o600))

	cfg := testConfig(t, dir, map[string]string{
		"PETBOOK_KEY_STORAGE_MODE": "persistent",
		"PETBOOK_MASTER_KEY_PATH":  keyFile,
		"PETBOOK_NUM_KEYS":         "1",
	})

	first := newTestApp(t, cfg)
	kids := jwksKids(t, first)
	require.Len(t, kids, 1)
	require.NoError(t, first.db.Close())

	second := newTestApp(t, cfg)
	require.Equal(t, kids, jwksKids(t, second))
}

func TestEphemeralKeysRotateOnRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, nil)

	first := jwksKids(t, newTestApp(t, cfg))
	second := jwksKids(t, newTestApp(t, cfg))
	require.Len(t, first, 2)
	require.NotEqual(t, first, second)
}

func TestPersistentKeysNeedMasterKey(t *testing.T) {
	t.Setenv("PETBOOK_MASTER_KEY", "")
	cfg := testConfig(t, t.TempDir(), map[string]string{"PETBOOK_KEY_STORAGE_MODE": "persistent"})

	_, err := New(t.Context(), cfg)
	require.ErrorContains(t, err, "load master key")
}
