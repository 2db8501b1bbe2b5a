package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/events"
	petbookhttp "github.com/aussiebroadwan/petbook/internal/petbook/http"
	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/internal/petbook/storage"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqlite"
	"github.com/aussiebroadwan/petbook/internal/petbookctl/cli"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "petbookctl")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type mailbox struct {
	mu   sync.Mutex
	sent map[string][]events.MailLink
}

func (m *mailbox) Publish(_ context.Context, subject string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = make(map[string][]events.MailLink)
	}
	m.sent[subject] = append(m.sent[subject], v.(events.MailLink))
	return nil
}

func (m *mailbox) lastToken(t *testing.T, subject string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.sent[subject]
	require.NotEmpty(t, list)
	u, err := url.Parse(list[len(list)-1].Link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type harness struct {
	url   string
	state string
	mail  *mailbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.Options{Issuer: "https://petbook.test", Audience: []string{"petbook"}})
	require.NoError(t, err)

	mail := &mailbox{}
	tokens := &service.TokenService{KeyManager: keys, Store: st, Issuer: "https://petbook.test", Audience: []string{"petbook"}}

	r := petbookhttp.NewRouter(keys.KeySet, keys.Verifier, "test", st, slogx.Discard())
	r.IdentityService = &service.IdentityService{
		Store:     st,
		Tokens:    tokens,
		Events:    mail,
		Limiter:   ratelimit.New(ratelimit.Config{}),
		PublicURL: "https://petbook.test",
	}
	r.ProfileService = &service.ProfileService{Store: st}
	r.ShopService = &service.ShopService{Store: st}
	r.ClientService = &service.ClientService{Store: st}
	r.PetService = &service.PetService{Store: st, Photos: storage.Disabled{}}
	r.CatalogService = &service.CatalogService{Store: st}
	r.AppointmentService = &service.AppointmentService{Store: st, Location: time.UTC}
	r.DashboardService = &service.DashboardService{Store: st, Location: time.UTC}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &harness{
		url:   srv.URL,
		state: filepath.Join(t.TempDir(), "state.db"),
		mail:  mail,
	}
}

// run invokes the CLI as a fresh process would, answering every password
// prompt with password.
func (h *harness) run(t *testing.T, password string, args ...string) (code int, stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer
	argv := append([]string{"--server", h.url, "--state", h.state}, args...)
	code = cli.Run(t.Context(), argv, cli.Options{
		In:       strings.NewReader(""),
		Out:      &out,
		Err:      &errOut,
		Password: func(string) (string, error) { return password, nil },
		Logger:   slogx.Discard(),
	})
	return code, out.String(), errOut.String()
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := h.run(t, "senha1234", args...)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	return out
}

func (h *harness) signUpOwner(t *testing.T) {
	t.Helper()

	out := h.mustRun(t, "signup",
		"--email", "ana@petbook.com.br",
		"--name", "Ana Souza",
		"--phone", "(11) 98765-4321",
		"--cpf", "123.456.789-09",
		"--shop", "Banho & Tosa da Ana",
		"--shop-phone", "(11) 3333-4444",
	)
	require.Contains(t, out, "Enviamos um link de confirmação para ana@petbook.com.br")

	out = h.mustRun(t, "confirm", h.mail.lastToken(t, events.SubjectMailConfirm))
	require.Contains(t, out, "E-mail confirmado")
}

func TestOwnerWorkflow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signUpOwner(t)

	var me struct {
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		ShopID      string   `json:"shop_id"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "--json", "whoami")), &me))
	require.Equal(t, "ana@petbook.com.br", me.Email)
	require.Equal(t, "owner", me.Role)
	require.NotEmpty(t, me.ShopID)
	require.Contains(t, me.Permissions, "manage_staff")

	out := h.mustRun(t, "dashboard")
	require.Contains(t, out, "Faturamento do mês:")
	require.Contains(t, out, "R$ 0,00")

	out = h.mustRun(t, "shop", "update", "--address", "Rua das Flores, 10")
	require.Contains(t, out, "Rua das Flores, 10")

	code, _, errOut := h.run(t, "", "shop", "update", "--cnpj", "11.222.333/0001-82")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "cnpj:")

	out = h.mustRun(t, "clients", "add", "--name", "João Lima", "--phone", "(11) 91234-5678")
	require.Contains(t, out, "Cliente João Lima cadastrado")

	var clients []authsdk.Customer
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "--json", "clients", "list")), &clients))
	require.Len(t, clients, 1)

	out = h.mustRun(t, "pets", "add", "--client", clients[0].ID, "--name", "Rex", "--species", "cão")
	require.Contains(t, out, "Pet Rex cadastrado")

	out = h.mustRun(t, "services", "add", "--name", "Banho", "--price", "45,90", "--duration", "60")
	require.Contains(t, out, "Serviço Banho criado")

	out = h.mustRun(t, "services", "list")
	require.Contains(t, out, "R$ 45,90")

	out = h.mustRun(t, "staff", "invite", "--role", "groomer")
	require.Contains(t, out, "petbookctl signup --invite ")

	out = h.mustRun(t, "signout")
	require.Contains(t, out, "Sessão encerrada.")

	code, _, errOut = h.run(t, "", "dashboard")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "você não está conectado")
}

func TestSignIn(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signUpOwner(t)
	h.mustRun(t, "signout")

	code, _, errOut := h.run(t, "errada123", "signin", "--email", "ana@petbook.com.br")
	require.Equal(t, 1, code)
	require.Contains(t, strings.ToLower(errOut), "senha inválidos")

	out := h.mustRun(t, "signin", "--email", "ana@petbook.com.br")
	require.Contains(t, out, "Conectado como ana@petbook.com.br")

	out = h.mustRun(t, "refresh")
	require.Contains(t, out, "Sessão renovada")

	out = h.mustRun(t, "whoami")
	require.Contains(t, out, "owner")
}

func TestLocalValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	code, _, errOut := h.run(t, "curta", "signup", "--email", "ana@", "--name", "Ana", "--cpf", "111.111.111-11")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "Dados inválidos:")
	require.Contains(t, errOut, "email:")
	require.Contains(t, errOut, "cpf:")
	require.Contains(t, errOut, "password:")
	require.Empty(t, h.mail.sent, "nothing reaches the server")
}

func TestNotSignedIn(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for _, args := range [][]string{{"whoami"}, {"dashboard"}, {"clients", "list"}, {"refresh"}} {
		code, _, errOut := h.run(t, "", args...)
		require.Equal(t, 1, code, args)
		require.Contains(t, errOut, "petbookctl signin", args)
	}

	out := h.mustRun(t, "signout")
	require.Contains(t, out, "Nenhuma sessão ativa.")
}

func TestInvitedStaffPermissions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signUpOwner(t)

	var inv authsdk.Invite
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "--json", "staff", "invite", "--role", "groomer")), &inv))
	h.mustRun(t, "signout")

	out := h.mustRun(t, "signup",
		"--invite", inv.Token,
		"--email", "bia@petbook.com.br",
		"--name", "Bia Costa",
		"--phone", "(11) 97777-6666",
		"--cpf", "529.982.247-25",
	)
	require.Contains(t, out, "Bem-vindo(a) à equipe")

	out = h.mustRun(t, "whoami")
	require.Contains(t, out, "groomer")

	code, _, errOut := h.run(t, "", "staff", "list")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, `o papel "groomer" não pode`)
}
