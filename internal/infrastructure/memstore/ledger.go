package memstore

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/GioMjds/savoury-api/internal/domain"
)

// Validation failure kinds. Each wraps a domain sentinel so handlers can map
// to an HTTP status while callers still discriminate the exact kind.
var (
	// ErrOTPNotFound covers both "never requested" and "already swept".
	ErrOTPNotFound = fmt.Errorf("no pending registration for this email: %w", domain.ErrNotFound)
	ErrOTPMismatch = fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	ErrOTPExpired  = fmt.Errorf("OTP expired: %w", domain.ErrUnauthorized)
)

// Ledger is the in-memory store of pending registrations, keyed by email.
// All operations are safe under concurrent access from request goroutines and
// the background sweeper. State lives in a single process: it does not survive
// a restart and is not shared across instances. Swap in an external expiring
// store behind the same surface if horizontal scaling is ever needed.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]domain.PendingRegistration
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]domain.PendingRegistration)}
}

// Put upserts the pending registration for p.Email, re-arming its expiry to
// now+ttl. Any prior entry for the same email is replaced, which revokes the
// previously issued code.
func (l *Ledger) Put(p domain.PendingRegistration, ttl time.Duration) {
	p.ExpiresAt = time.Now().Add(ttl)
	l.mu.Lock()
	l.entries[p.Email] = p
	l.mu.Unlock()
}

// Get returns the pending registration for email, if present.
func (l *Ledger) Get(email string) (domain.PendingRegistration, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.entries[email]
	return p, ok
}

// Delete removes the entry for email. Deleting an absent entry is a no-op.
func (l *Ledger) Delete(email string) {
	l.mu.Lock()
	delete(l.entries, email)
	l.mu.Unlock()
}

// Validate checks the submitted code against the pending registration for
// email. It returns ErrOTPNotFound when no entry exists, ErrOTPMismatch when
// the code differs, ErrOTPExpired when the code matches but the entry has
// expired, and otherwise the pending registration itself.
//
// Validate never deletes the entry: promotion (and therefore deletion) is the
// caller's responsibility after the user record has been persisted, so a
// persistence failure leaves the code retryable.
func (l *Ledger) Validate(email, code string) (domain.PendingRegistration, error) {
	l.mu.RLock()
	p, ok := l.entries[email]
	l.mu.RUnlock()
	if !ok {
		return domain.PendingRegistration{}, ErrOTPNotFound
	}
	if subtle.ConstantTimeCompare([]byte(p.Code), []byte(code)) != 1 {
		return domain.PendingRegistration{}, ErrOTPMismatch
	}
	if time.Now().After(p.ExpiresAt) {
		return domain.PendingRegistration{}, ErrOTPExpired
	}
	return p, nil
}

// Sweep removes every entry whose expiry has passed and reports how many were
// removed.
func (l *Ledger) Sweep() int {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for email, p := range l.entries {
		if now.After(p.ExpiresAt) {
			delete(l.entries, email)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval in a background goroutine and
// returns a stop function. Sweep deletions are eventually consistent with the
// entries' expiry times, not exact real time.
func (l *Ledger) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
