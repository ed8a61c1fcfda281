package auth

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/maruel/tabdb/internal/tabledb"
)

var (
	// ErrInvalidCredentials is returned when the user or password is wrong.
	ErrInvalidCredentials = errors.New("invalid user or password")
	// ErrTooManyAttempts is returned while a user is throttled.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// LimitError reports how long to wait before the next attempt.
type LimitError struct {
	User       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v for %q, retry in %s", ErrTooManyAttempts, e.User, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error {
	return ErrTooManyAttempts
}

// Guard throttles failed logins with one token bucket per user. Each failed
// attempt consumes a token; a successful login resets the user's bucket.
type Guard struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

// NewGuard allows burst consecutive failures per user, refilled at perMinute
// tokens per minute.
func NewGuard(perMinute, burst int) *Guard {
	return &Guard{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		burst:   burst,
		now:     time.Now,
	}
}

// Login checks user and password against db. A database without credentials
// accepts any login.
func (g *Guard) Login(db *tabledb.Database, h tabledb.PasswordHasher, user, password string) error {
	if !db.HasCredentials() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	b, ok := g.buckets[user]
	if !ok {
		b = rate.NewLimiter(g.rate, g.burst)
		g.buckets[user] = b
	}
	if b.TokensAt(now) < 1 {
		return &LimitError{User: user, RetryAfter: g.retryAfter(b, now)}
	}
	if db.Authenticate(user, password, h) {
		delete(g.buckets, user)
		return nil
	}
	b.AllowN(now, 1)
	return ErrInvalidCredentials
}

func (g *Guard) retryAfter(b *rate.Limiter, now time.Time) time.Duration {
	if g.rate <= 0 {
		return time.Duration(math.MaxInt64)
	}
	missing := 1 - b.TokensAt(now)
	return max(time.Duration(missing/float64(g.rate)*float64(time.Second)), time.Second)
}
