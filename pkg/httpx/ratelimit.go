package httpx

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

// RateLimitConfig is a token-bucket profile.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Built-in profiles, each overridable with RATELIMIT_<NAME>_REQUESTS,
// RATELIMIT_<NAME>_WINDOW_SEC and RATELIMIT_<NAME>_BURST (see
// LoadRateLimits).
var (
	// StrictLimit guards credential endpoints.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	// ModerateLimit is for authenticated writes.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 30}

	// LenientLimit is for authenticated reads and health checks.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 300, Window: time.Minute, Burst: 100}

	// PublicLimit is for cacheable public documents such as the JWKS.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

type rateLimitEnv struct {
	Requests  int `env:"REQUESTS"`
	WindowSec int `env:"WINDOW_SEC"`
	Burst     int `env:"BURST"`
}

// RateLimitFromEnv returns def with any RATELIMIT_<name>_* values found in
// l applied. Non-positive or unparsable values are ignored.
func RateLimitFromEnv(ctx context.Context, l envconfig.Lookuper, name string, def RateLimitConfig) RateLimitConfig {
	var e rateLimitEnv
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &e,
		Lookuper: envconfig.PrefixLookuper("RATELIMIT_"+strings.ToUpper(name)+"_", l),
	})
	if err != nil {
		return def
	}

	cfg := def
	if e.Requests > 0 {
		cfg.RequestsPerWindow = e.Requests
	}
	if e.WindowSec > 0 {
		cfg.Window = time.Duration(e.WindowSec) * time.Second
	}
	if e.Burst > 0 {
		cfg.Burst = e.Burst
	}
	return cfg
}

// LoadRateLimits applies environment overrides to the built-in profiles.
// Call it once at startup, before routes are registered.
func LoadRateLimits(ctx context.Context, l envconfig.Lookuper) {
	StrictLimit = RateLimitFromEnv(ctx, l, "STRICT", StrictLimit)
	ModerateLimit = RateLimitFromEnv(ctx, l, "MODERATE", ModerateLimit)
	LenientLimit = RateLimitFromEnv(ctx, l, "LENIENT", LenientLimit)
	PublicLimit = RateLimitFromEnv(ctx, l, "PUBLIC", PublicLimit)
}

// KeyExtractor picks the bucket a request counts against. An empty key
// means the request is not limited.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor uses the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserIDKeyExtractor uses the authenticated subject, if any.
func UserIDKeyExtractor(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// PathKeyExtractor uses the request path.
func PathKeyExtractor(r *http.Request) string {
	return r.URL.Path
}

// FormFieldKeyExtractor reads a form or query value, lower-cased.
func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(r.FormValue(field)))
	}
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ex := range extractors {
			if k := ex(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

const bucketSweepEvery = 5 * time.Minute

type bucketSet struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

func (b *bucketSet) get(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.lastSweep) >= bucketSweepEvery {
		b.lastSweep = now
		// A full bucket has been idle for at least one refill period.
		for k, l := range b.buckets {
			if l.TokensAt(now) >= float64(b.burst) {
				delete(b.buckets, k)
			}
		}
	}

	l, ok := b.buckets[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.buckets[key] = l
	}
	return l
}

// RateLimitMiddleware applies a token bucket per key.
func RateLimitMiddleware(cfg RateLimitConfig, key KeyExtractor) Middleware {
	bs := &bucketSet{
		limit:     rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		buckets:   make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, allowing")
				next.ServeHTTP(w, r)
				return
			}

			l := bs.get(k)
			if l.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Reserve()
			delay := res.Delay()
			res.Cancel()

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())
			writeTooManyRequests(r, w, delay, "path", r.URL.Path, "key", k)
		})
	}
}

func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByUser keys by subject and IP, falling back to IP alone for
// anonymous requests.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

func RateLimitByIPAndFormField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, FormFieldKeyExtractor(field)))
}

// AttemptLimit counts failed attempts in a fixed window per key, e.g.
// "<ip>:<path>". A response with one of failStatus counts as an attempt, a
// 2xx clears the key, and a limited key is rejected before the handler
// runs.
func AttemptLimit(l *ratelimit.Limiter, key KeyExtractor, failStatus ...int) Middleware {
	if len(failStatus) == 0 {
		failStatus = []int{http.StatusBadRequest, http.StatusUnauthorized}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			if d := l.RetryAfter(k); d > 0 {
				writeTooManyRequests(r, w, d, "key", k)
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			switch {
			case sw.status >= 200 && sw.status < 300:
				l.Reset(k)
			case containsStatus(failStatus, sw.status):
				l.RecordAttempt(k)
			}
		})
	}
}

func containsStatus(list []int, s int) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func writeTooManyRequests(r *http.Request, w http.ResponseWriter, retry time.Duration, logArgs ...any) {
	limited := &ratelimit.LimitedError{RetryAfter: retry}
	secs := max(int(retry.Seconds()), 1)

	slogx.FromContext(r.Context()).Warn("rate limit exceeded", append(logArgs, "retry_after", secs)...)

	w.Header().Set("Retry-After", strconv.Itoa(secs))
	authsdk.NewOAuth2Error(http.StatusTooManyRequests, authsdk.ErrorCodeRateLimited, limited.Error()).WriteError(w)
}
