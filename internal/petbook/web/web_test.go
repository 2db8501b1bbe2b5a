package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/events"
	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqlite"
	"github.com/aussiebroadwan/petbook/internal/petbook/web"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
)

const issuer = "https://petbook.test"

var audience = []string{"petbook"}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "petbook-web")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type mailbox struct {
	mu    sync.Mutex
	links map[string][]string
}

func (m *mailbox) Publish(_ context.Context, subject string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string][]string)
	}
	m.links[subject] = append(m.links[subject], v.(events.MailLink).Link)
	return nil
}

func (m *mailbox) lastToken(t *testing.T, subject string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.links[subject]
	require.NotEmpty(t, list)
	u, err := url.Parse(list[len(list)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

type site struct {
	*httptest.Server
	keys *jwtx.KeyManager
	mail *mailbox
}

// newSite serves the pages over st. profiles may point at another store
// to simulate an enrichment outage.
func newSite(t *testing.T, st store.Store, profiles *service.ProfileService) *site {
	t.Helper()

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.Options{Issuer: issuer, Audience: audience})
	require.NoError(t, err)
	mail := &mailbox{}

	identity := &service.IdentityService{
		Store:     st,
		Tokens:    &service.TokenService{KeyManager: keys, Store: st, Issuer: issuer, Audience: audience},
		Events:    mail,
		Limiter:   ratelimit.New(ratelimit.Config{}),
		PublicURL: "https://petbook.test",
	}
	if profiles == nil {
		profiles = &service.ProfileService{Store: st}
	}
	pages, err := web.NewPages(identity, profiles,
		&service.ShopService{Store: st},
		&service.DashboardService{Store: st, Location: time.UTC},
		keys.Verifier,
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	pages.Register(mux)
	h := httpx.Chain(mux, web.NavigationMiddleware(web.NavigationConfig{Verifier: keys.Verifier}))

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &site{Server: srv, keys: keys, mail: mail}
}

func (s *site) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *site) cookie(t *testing.T, c *http.Client, name string) string {
	t.Helper()
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func read(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

var ownerForm = url.Values{
	"email":      {"ana@petbook.com.br"},
	"password":   {"senha1234"},
	"full_name":  {"Ana Souza"},
	"phone":      {"(11) 98765-4321"},
	"cpf":        {"123.456.789-09"},
	"shop_name":  {"Banho & Tosa da Ana"},
	"shop_phone": {"(11) 3333-4444"},
}

// signUp registers form and follows the confirmation link in c.
func (s *site) signUp(t *testing.T, c *http.Client, form url.Values) {
	t.Helper()

	resp, err := c.PostForm(s.URL+"/auth/sign-up", form)
	require.NoError(t, err)
	body := read(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Enviamos um link de confirmação")

	resp, err = c.Get(s.URL + "/auth/confirm?token=" + s.mail.lastToken(t, events.SubjectMailConfirm))
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, web.DefaultHome, resp.Header.Get("Location"))
	require.NotEmpty(t, s.cookie(t, c, web.AccessCookie))
	require.NotEmpty(t, s.cookie(t, c, web.RefreshCookie))
}

func TestOwnerPages(t *testing.T) {
	t.Parallel()
	s := newSite(t, newStore(t), nil)
	c := s.browser(t)
	s.signUp(t, c, ownerForm)

	resp, err := c.Get(s.URL + "/app/dashboard")
	require.NoError(t, err)
	body := read(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Faturamento do mês")
	require.Contains(t, body, "R$ 0,00")
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	resp, err = c.Get(s.URL + "/app/settings")
	require.NoError(t, err)
	body = read(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Banho &amp; Tosa da Ana")

	bad := url.Values{"name": {"Banho & Tosa"}, "phone": {"(11) 3333-4444"}, "cnpj": {"11.222.333/0001-82"}}
	resp, err = c.PostForm(s.URL+"/app/settings", bad)
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	good := url.Values{"name": {"Banho & Tosa"}, "phone": {"(11) 3333-4444"}, "cnpj": {"11.222.333/0001-81"}, "address": {"Rua A, 1"}}
	resp, err = c.PostForm(s.URL+"/app/settings", good)
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/app/settings?saved=1", resp.Header.Get("Location"))

	// Signed in: the auth pages bounce to the dashboard.
	resp, err = c.Get(s.URL + "/auth/sign-in")
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, web.DefaultHome, resp.Header.Get("Location"))

	resp, err = c.PostForm(s.URL+"/auth/sign-out", nil)
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Empty(t, s.cookie(t, c, web.AccessCookie))
	require.Empty(t, s.cookie(t, c, web.RefreshCookie))

	resp, err = c.Get(s.URL + "/app/dashboard")
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/auth/sign-in?redirectTo=%2Fapp%2Fdashboard", resp.Header.Get("Location"))
}

func TestSignInPage(t *testing.T) {
	t.Parallel()
	s := newSite(t, newStore(t), nil)
	s.signUp(t, s.browser(t), ownerForm)

	t.Run("wrong password", func(t *testing.T) {
		c := s.browser(t)
		resp, err := c.PostForm(s.URL+"/auth/sign-in", url.Values{"email": {"ana@petbook.com.br"}, "password": {"errada123"}})
		require.NoError(t, err)
		body := read(t, resp)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, body, "E-mail ou senha inválidos.")
		require.Contains(t, body, `value="ana@petbook.com.br"`)
	})

	t.Run("return path", func(t *testing.T) {
		c := s.browser(t)
		resp, err := c.PostForm(s.URL+"/auth/sign-in", url.Values{
			"email":      {"ana@petbook.com.br"},
			"password":   {"senha1234"},
			"redirectTo": {"/app/settings"},
		})
		require.NoError(t, err)
		_ = read(t, resp)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/app/settings", resp.Header.Get("Location"))
	})

	t.Run("foreign return path", func(t *testing.T) {
		c := s.browser(t)
		resp, err := c.PostForm(s.URL+"/auth/sign-in", url.Values{
			"email":      {"ana@petbook.com.br"},
			"password":   {"senha1234"},
			"redirectTo": {"//evil.example.com/"},
		})
		require.NoError(t, err)
		_ = read(t, resp)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, web.DefaultHome, resp.Header.Get("Location"))
	})
}

func TestPasswordResetPages(t *testing.T) {
	t.Parallel()
	s := newSite(t, newStore(t), nil)
	s.signUp(t, s.browser(t), ownerForm)
	c := s.browser(t)

	resp, err := c.PostForm(s.URL+"/auth/forgot-password", url.Values{"email": {"ana@petbook.com.br"}})
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := s.mail.lastToken(t, events.SubjectMailReset)
	resp, err = c.Get(s.URL + "/auth/update-password?token=" + token)
	require.NoError(t, err)
	require.Contains(t, read(t, resp), token)

	resp, err = c.PostForm(s.URL+"/auth/update-password", url.Values{"token": {token}, "password": {"curta"}})
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = c.PostForm(s.URL+"/auth/update-password", url.Values{"token": {token}, "password": {"novaSenha99"}})
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/auth/sign-in?reset=1", resp.Header.Get("Location"))

	resp, err = c.PostForm(s.URL+"/auth/sign-in", url.Values{"email": {"ana@petbook.com.br"}, "password": {"novaSenha99"}})
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestConfirmInvalidToken(t *testing.T) {
	t.Parallel()
	s := newSite(t, newStore(t), nil)

	resp, err := s.browser(t).Get(s.URL + "/auth/confirm?token=nope")
	require.NoError(t, err)
	body := read(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "Link inválido ou expirado.")
}

func TestForbiddenWithoutShop(t *testing.T) {
	t.Parallel()
	s := newSite(t, newStore(t), nil)
	c := s.browser(t)

	form := url.Values{}
	for k, v := range ownerForm {
		form[k] = v
	}
	form.Del("shop_name")
	form.Del("shop_phone")
	s.signUp(t, c, form)

	resp, err := c.Get(s.URL + "/app/dashboard")
	require.NoError(t, err)
	body := read(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, body, "Você não tem permissão")
}

func TestRefreshCookieRotates(t *testing.T) {
	t.Parallel()
	s := newSite(t, newStore(t), nil)
	first := s.browser(t)
	s.signUp(t, first, ownerForm)
	refresh := s.cookie(t, first, web.RefreshCookie)

	c := s.browser(t)
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: web.RefreshCookie, Value: refresh, Path: "/"}})

	resp, err := c.Get(s.URL + "/app/dashboard")
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, s.cookie(t, c, web.AccessCookie))
	require.NotEqual(t, refresh, s.cookie(t, c, web.RefreshCookie))
}

func TestEnrichmentOutage(t *testing.T) {
	t.Parallel()

	broken, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	s := newSite(t, newStore(t), &service.ProfileService{Store: broken})

	token, err := s.keys.Sign(jwtx.NewAccessClaims("user-1", "sid-1", "ana@petbook.com.br", issuer, audience, time.Minute, time.Now()))
	require.NoError(t, err)

	c := s.browser(t)
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: web.AccessCookie, Value: token, Path: "/"}})

	resp, err := c.Get(s.URL + "/app/dashboard")
	require.NoError(t, err)
	_ = read(t, resp)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "5", resp.Header.Get("Retry-After"))
}
