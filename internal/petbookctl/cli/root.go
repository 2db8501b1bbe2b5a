// Package cli implements petbookctl, a terminal client for the PetBook
// API. Every command drives a session.Holder; the session it ends with is
// saved locally so the next invocation starts signed in.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/petbook/internal/petbookctl/state"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

const DefaultServer = "http://localhost:8080"

// Options are the process boundaries of the CLI. Zero values fall back to
// the real terminal.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Password reads a secret without echo. Defaults to the terminal when
	// In is one, and to a plain line read otherwise.
	Password func(prompt string) (string, error)

	Logger *slog.Logger
}

// env is shared by the commands of one invocation.
type env struct {
	opts  Options
	lines *bufio.Reader

	server    string
	statePath string
	jsonOut   bool

	store  *state.Store
	client *authsdk.Client
	holder *session.Holder
	unsub  func()
}

// Execute runs petbookctl with os.Args and returns the exit code.
func Execute(ctx context.Context) int {
	return Run(ctx, os.Args[1:], Options{})
}

// Run runs petbookctl with args. Errors are printed to opts.Err.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(opts.Err, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	e := &env{opts: opts, lines: bufio.NewReader(opts.In)}
	if e.opts.Password == nil {
		e.opts.Password = terminalPassword(opts.In, opts.Out, e.lines)
	}
	defer e.close()

	root := e.rootCommand()
	root.SetArgs(args)
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(opts.Err, describe(err))
		return 1
	}
	return 0
}

func (e *env) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "petbookctl",
		Short: "Terminal client for PetBook",
		Long: `petbookctl signs in to a PetBook server and manages the shop from the
terminal: clients, pets, services, appointments and staff.

The session is stored under the user config directory and refreshed
automatically. The server defaults to $PETBOOK_URL or ` + DefaultServer + `.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&e.server, "server", "", "PetBook server URL (env PETBOOK_URL)")
	root.PersistentFlags().StringVar(&e.statePath, "state", "", "session file (default "+state.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		e.signUpCommand(),
		e.confirmCommand(),
		e.signInCommand(),
		e.signOutCommand(),
		e.whoAmICommand(),
		e.refreshCommand(),
		e.passwordCommand(),
		e.profileCommand(),
		e.dashboardCommand(),
		e.shopCommand(),
		e.staffCommand(),
		e.clientsCommand(),
		e.petsCommand(),
		e.servicesCommand(),
		e.appointmentsCommand(),
	)
	return root
}

// open resolves the server, opens the state file and builds the Holder.
// Every session change is written back to the state file.
func (e *env) open(cmd *cobra.Command) error {
	if e.server == "" {
		e.server = os.Getenv("PETBOOK_URL")
	}
	if e.server == "" {
		e.server = DefaultServer
	}
	e.server = strings.TrimRight(e.server, "/")
	if e.statePath == "" {
		e.statePath = state.DefaultPath()
	}

	st, err := state.Open(e.statePath)
	if err != nil {
		return err
	}
	e.store = st

	e.client = authsdk.NewClient(e.server)
	e.holder = session.New(e.client, session.Options{Logger: e.opts.Logger})
	e.unsub = e.holder.Subscribe(e.persist)
	return nil
}

func (e *env) persist(st session.State) {
	if st.Loading {
		return
	}
	var err error
	if st.Session != nil {
		saved := state.Saved{Server: e.server, Session: *st.Session}
		if st.User != nil {
			saved.Email = st.User.Email
		}
		err = e.store.SaveSession(saved)
	} else {
		err = e.store.ClearSession(e.server)
	}
	if err != nil {
		e.opts.Logger.Warn("could not save session", "err", err)
	}
}

func (e *env) close() {
	if e.unsub != nil {
		e.unsub()
	}
	if e.holder != nil {
		e.holder.Close()
	}
	if err := e.store.Close(); err != nil {
		e.opts.Logger.Warn("close state", "err", err)
	}
}

var errNotSignedIn = errors.New("você não está conectado: use petbookctl signin")

// restore brings back the saved session, if any. It is a no-op when the
// Holder already has one.
func (e *env) restore(ctx context.Context) error {
	if e.holder.State().Session != nil {
		return nil
	}
	saved, err := e.store.LoadSession(e.server)
	if errors.Is(err, state.ErrNoSession) {
		return errNotSignedIn
	}
	if err != nil {
		return err
	}

	res := e.holder.Restore(ctx, saved.Session)
	switch {
	case res.Err == nil, session.IsEnrichmentError(res.Err):
		// The guard reports an enrichment failure as unavailable.
		return nil
	case authsdk.KindOf(res.Err) == authsdk.KindInvalidCredentials:
		return errNotSignedIn
	}
	return res.Err
}
