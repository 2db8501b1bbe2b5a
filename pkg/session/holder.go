package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// Provider is the remote identity provider. Implementations must call
// listeners synchronously, before the triggering method returns.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, in authsdk.SignUpInput) (*Session, error)
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context) (*Session, error)
	ConfirmEmail(ctx context.Context, token string) (*Session, error)
	RestoreSession(ctx context.Context, s Session) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
	UpdateProfile(ctx context.Context, upd authsdk.ProfileUpdate) error
	OnAuthStateChange(fn authsdk.AuthListener) (unsubscribe func())
}

const DefaultRefreshBuffer = 30 * time.Second

// refreshTimeout bounds the background refresh started by the timer.
const refreshTimeout = 30 * time.Second

// Options configures a Holder.
type Options struct {
	// Enricher defaults to one backed by the provider when it also
	// implements ProfileSource.
	Enricher *Enricher

	// Limiter throttles SignIn and ResetPassword. Defaults to a fresh
	// ratelimit.Limiter with the standard window.
	Limiter *ratelimit.Limiter

	// RefreshBuffer is how long before expiry the session is refreshed.
	RefreshBuffer time.Duration

	Logger *slog.Logger
}

// Holder owns the auth State for one user. Actions may run concurrently;
// they are not serialised and the last one to finish determines the state.
type Holder struct {
	provider Provider
	enricher *Enricher
	limiter  *ratelimit.Limiter
	buffer   time.Duration
	log      *slog.Logger
	now      func() time.Time

	unsubscribe func()

	mu       sync.Mutex
	state    State
	inflight int
	timer    *time.Timer
	closed   bool

	smu    sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New builds a Holder and subscribes it to p's auth events. Call Close to
// release the subscription.
func New(p Provider, opts Options) *Holder {
	if opts.Enricher == nil {
		src, _ := p.(ProfileSource)
		opts.Enricher = NewEnricher(src)
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.Config{})
	}
	if opts.RefreshBuffer <= 0 {
		opts.RefreshBuffer = DefaultRefreshBuffer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &Holder{
		provider: p,
		enricher: opts.Enricher,
		limiter:  opts.Limiter,
		buffer:   opts.RefreshBuffer,
		log:      opts.Logger.With("component", "session"),
		now:      time.Now,
		subs:     make(map[int]func(State)),
	}
	h.unsubscribe = p.OnAuthStateChange(h.onAuthChange)
	return h
}

// Close stops the refresh timer and detaches from the provider.
func (h *Holder) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.stopTimerLocked()
	h.mu.Unlock()

	h.unsubscribe()
}

// State returns the current snapshot.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Holder) snapshotLocked() State {
	s := h.state
	s.User = s.User.clone()
	if s.Session != nil {
		cp := *s.Session
		s.Session = &cp
	}
	s.Loading = h.inflight > 0
	return s
}

// Subscribe calls fn with every new State until the returned func is called.
func (h *Holder) Subscribe(fn func(State)) (unsubscribe func()) {
	h.smu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.smu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.smu.Lock()
			delete(h.subs, id)
			h.smu.Unlock()
		})
	}
}

func (h *Holder) publish(s State) {
	h.smu.Lock()
	fns := make([]func(State), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.smu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// update applies fn to the state under lock and publishes the result.
func (h *Holder) update(fn func(*State)) State {
	h.mu.Lock()
	prev := h.state.Session
	fn(&h.state)
	if !sameSession(prev, h.state.Session) {
		h.scheduleRefreshLocked()
	}
	s := h.snapshotLocked()
	h.mu.Unlock()

	h.publish(s)
	return s
}

func sameSession(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (h *Holder) begin() {
	h.mu.Lock()
	h.inflight++
	s := h.snapshotLocked()
	h.mu.Unlock()
	h.publish(s)
}

func (h *Holder) end(err error) State {
	return h.update(func(s *State) {
		h.inflight--
		switch {
		case err != nil:
			s.Err = err
		case !IsEnrichmentError(s.Err):
			s.Err = nil
		}
	})
}

// ============================================================================
// Provider events
// ============================================================================

func (h *Holder) onAuthChange(ctx context.Context, ch authsdk.AuthChange) {
	switch ch.Event {
	case authsdk.EventSignedOut:
		h.update(func(s *State) {
			s.User = nil
			s.Session = nil
			s.Err = nil
		})

	case authsdk.EventSignedIn, authsdk.EventTokenRefreshed, authsdk.EventUserUpdated:
		id := ch.Identity
		if id == nil {
			cur := h.State().User
			if cur == nil {
				return
			}
			id = &Identity{ID: cur.ID, Email: cur.Email}
		}

		user, err := h.enricher.Enrich(ctx, *id)
		if err != nil {
			h.log.WarnContext(ctx, "profile enrichment failed", "user_id", id.ID, "err", err)
		}
		h.update(func(s *State) {
			s.User = user
			if ch.Session != nil {
				s.Session = ch.Session
			}
			s.Err = err
		})
	}
}

// ============================================================================
// Refresh timer
// ============================================================================

func (h *Holder) stopTimerLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *Holder) scheduleRefreshLocked() {
	h.stopTimerLocked()
	if h.closed || h.state.Session == nil || h.state.Session.RefreshToken == "" {
		return
	}

	delay := max(h.state.Session.Expiry().Add(-h.buffer).Sub(h.now()), 0)
	h.timer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if r := h.RefreshSession(ctx); r.Err != nil {
			h.log.Warn("scheduled session refresh failed", "err", r.Err)
		}
	})
}

// ============================================================================
// Actions
// ============================================================================

func limiterKey(prefix, email string) string {
	return prefix + ":" + validation.NormalizeEmail(email)
}

// SignIn validates the form, checks the local attempt limit, then signs in.
// Invalid credentials count as an attempt; success clears the counter.
func (h *Holder) SignIn(ctx context.Context, email, password string) Result {
	var errs validation.Errors
	errs.Check("email", validation.Email(email))
	errs.Check("password", validation.Required(password))
	if err := errs.Err(); err != nil {
		return Result{Err: err}
	}

	key := limiterKey("signin", email)
	if err := h.limiter.Check(key); err != nil {
		return Result{Err: authsdk.RateLimitedError(err.(*ratelimit.LimitedError))}
	}

	h.begin()
	_, err := h.provider.SignInWithPassword(ctx, validation.NormalizeEmail(email), password)
	if err != nil {
		if authsdk.KindOf(err) == authsdk.KindInvalidCredentials {
			h.limiter.RecordAttempt(key)
		}
		h.end(err)
		return Result{Err: err}
	}

	h.limiter.Reset(key)
	s := h.end(nil)
	return Result{User: s.User, Err: s.Err}
}

// SignUp validates every field locally before calling the provider. A
// Result with neither User nor Err means confirmation is pending.
func (h *Holder) SignUp(ctx context.Context, in authsdk.SignUpInput) Result {
	if err := in.Validate(); err != nil {
		return Result{Err: err}
	}
	in = in.Normalize()

	h.begin()
	sess, err := h.provider.SignUp(ctx, in)
	s := h.end(err)
	if err != nil {
		return Result{Err: err}
	}
	if sess == nil {
		return Result{}
	}
	return Result{User: s.User, Err: s.Err}
}

// SignOut clears local state only when the provider confirms.
func (h *Holder) SignOut(ctx context.Context) Result {
	h.begin()
	err := h.provider.SignOut(ctx)
	if err != nil {
		h.update(func(*State) { h.inflight-- })
		return Result{Err: err}
	}
	h.update(func(s *State) {
		h.inflight--
		s.User = nil
		s.Session = nil
		s.Err = nil
	})
	return Result{}
}

// ResetPassword requests a reset link. Each request counts against the
// "reset:<email>" limit.
func (h *Holder) ResetPassword(ctx context.Context, email string) Result {
	if err := validation.Email(email); err != nil {
		var errs validation.Errors
		errs.Check("email", err)
		return Result{Err: errs.Err()}
	}

	key := limiterKey("reset", email)
	if err := h.limiter.Check(key); err != nil {
		return Result{Err: authsdk.RateLimitedError(err.(*ratelimit.LimitedError))}
	}
	h.limiter.RecordAttempt(key)

	h.begin()
	err := h.provider.ResetPasswordForEmail(ctx, validation.NormalizeEmail(email))
	s := h.end(err)
	return Result{User: s.User, Err: err}
}

func (h *Holder) UpdatePassword(ctx context.Context, newPassword string) Result {
	if err := validation.Password(newPassword); err != nil {
		var errs validation.Errors
		errs.Check("password", err)
		return Result{Err: errs.Err()}
	}
	return h.run(ctx, func(ctx context.Context) error {
		return h.provider.UpdatePassword(ctx, newPassword)
	})
}

func (h *Holder) UpdateProfile(ctx context.Context, upd authsdk.ProfileUpdate) Result {
	var errs validation.Errors
	if upd.FullName != nil {
		errs.Check("full_name", validation.Required(*upd.FullName))
	}
	if upd.Phone != nil {
		errs.Check("phone", validation.Phone(*upd.Phone))
	}
	if err := errs.Err(); err != nil {
		return Result{Err: err}
	}
	return h.run(ctx, func(ctx context.Context) error {
		return h.provider.UpdateProfile(ctx, upd)
	})
}

func (h *Holder) RefreshSession(ctx context.Context) Result {
	return h.run(ctx, func(ctx context.Context) error {
		_, err := h.provider.RefreshSession(ctx)
		return err
	})
}

// ConfirmEmail redeems a confirmation token, which also signs the user in.
func (h *Holder) ConfirmEmail(ctx context.Context, token string) Result {
	if err := validation.Required(token); err != nil {
		var errs validation.Errors
		errs.Check("token", err)
		return Result{Err: errs.Err()}
	}
	return h.run(ctx, func(ctx context.Context) error {
		_, err := h.provider.ConfirmEmail(ctx, strings.TrimSpace(token))
		return err
	})
}

// Restore rehydrates a previously persisted session.
func (h *Holder) Restore(ctx context.Context, s Session) Result {
	return h.run(ctx, func(ctx context.Context) error {
		_, err := h.provider.RestoreSession(ctx, s)
		return err
	})
}

// run wraps a provider call with the in-flight counter. Provider events
// update the user; the result reflects the state once the call returns.
func (h *Holder) run(ctx context.Context, call func(context.Context) error) Result {
	h.begin()
	err := call(ctx)
	s := h.end(err)
	if err != nil {
		return Result{Err: err}
	}
	return Result{User: s.User, Err: s.Err}
}
