package petbook_test

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
)

/*
 * Container setup and helpers for the PetBook API end-to-end tests. The image
 * is built once from cmd/petbook/Dockerfile and every test starts its own
 * container with a fresh SQLite database.
 */

const (
	testImageName = "petbook-api-test:latest"
	ownerPassword = "senha1234"
)

var ownerInput = authsdk.SignUpInput{
	Email:     "ana@petbook.com.br",
	Password:  ownerPassword,
	FullName:  "Ana Souza",
	Phone:     "(11) 98765-4321",
	CPF:       "123.456.789-09",
	ShopName:  "Banho & Tosa da Ana",
	ShopPhone: "(11) 3333-4444",
}

func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building PetBook API Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up PetBook API Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/petbook/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run()
}

type apiContainer struct {
	URL       string
	container testcontainers.Container
}

// relaxedLimits lifts the per-IP limits so tests can make many requests.
// The per-account sign-in limit is not affected.
var relaxedLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

// setupAPIContainer starts the API and returns its base URL. extra
// overrides the default environment.
func setupAPIContainer(t *testing.T, extra map[string]string) *apiContainer {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
		"PETBOOK_ISSUER":     "petbook-e2e",
		"PETBOOK_NUM_KEYS":   "1",
		"PETBOOK_PUBLIC_URL": "http://petbook.test",
	}
	for k, v := range relaxedLimits {
		env[k] = v
	}
	for k, v := range extra {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return &apiContainer{
		URL:       fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
		container: container,
	}
}

var tokenPattern = regexp.MustCompile(`/auth/(confirm|reset)\?token=([^"\\&\s]+)`)

// lastLinkToken scrapes the most recent e-mail link of the given kind
// ("confirm" or "reset") from the container logs. Without NATS the API logs
// every mail event.
func (c *apiContainer) lastLinkToken(t *testing.T, kind string) string {
	t.Helper()
	ctx := context.Background()

	var token string
	require.Eventually(t, func() bool {
		rc, err := c.container.Logs(ctx)
		if err != nil {
			return false
		}
		defer rc.Close()
		logs, err := io.ReadAll(rc)
		if err != nil {
			return false
		}
		for _, m := range tokenPattern.FindAllStringSubmatch(string(logs), -1) {
			if m[1] == kind {
				token = m[2]
			}
		}
		return token != ""
	}, 10*time.Second, 200*time.Millisecond, "no %s link in logs", kind)

	plain, err := url.QueryUnescape(token)
	require.NoError(t, err)
	return plain
}

// signUpOwner registers ownerInput, confirms it and returns a signed-in client.
func (c *apiContainer) signUpOwner(t *testing.T) *authsdk.Client {
	t.Helper()
	ctx := t.Context()

	client := authsdk.NewClient(c.URL)
	sess, err := client.SignUp(ctx, ownerInput)
	require.NoError(t, err)
	require.Nil(t, sess, "sign-up waits for confirmation")

	_, err = client.ConfirmEmail(ctx, c.lastLinkToken(t, "confirm"))
	require.NoError(t, err)
	require.NotNil(t, client.Session())
	return client
}

func requireKind(t *testing.T, err error, kind authsdk.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, authsdk.KindOf(err), "err: %v", err)
}
