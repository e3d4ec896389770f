package oauthflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/metrics"
)

// DefaultCodeTTL is how long a consumed code is remembered
const DefaultCodeTTL = 10 * time.Minute

// ErrCodeConsumed is returned for a code that was already sent to the backend
var ErrCodeConsumed = errors.New("authorization code already used")

// CodeGuard makes sure an authorization code reaches the backend at most
// once per process. Only the caller that sent the code receives the result;
// concurrent and later callers with the same code get ErrCodeConsumed.
type CodeGuard struct {
	group singleflight.Group
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	consumed map[string]time.Time
}

type exchangeResult struct {
	resp *apiclient.GitHubTokenResponse
	err  error
}

// NewCodeGuard remembers codes for ttl
func NewCodeGuard(ttl time.Duration) *CodeGuard {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &CodeGuard{
		ttl:      ttl,
		now:      time.Now,
		consumed: make(map[string]time.Time),
	}
}

// Exchange trades code through ex unless it was already traded. The backend
// call is detached from ctx cancellation so an abandoned page load still
// records the code as consumed.
func (g *CodeGuard) Exchange(ctx context.Context, code string, ex Exchanger) (*apiclient.GitHubTokenResponse, error) {
	if g.Consumed(code) {
		metrics.RecordOAuthExchange(metrics.OutcomeRejected)
		return nil, ErrCodeConsumed
	}

	var mine *exchangeResult
	g.group.Do(code, func() (any, error) {
		if !g.claim(code) {
			return nil, nil
		}

		resp, err := ex.ExchangeGitHubCode(context.WithoutCancel(ctx), code)
		if err != nil {
			metrics.RecordOAuthExchange(metrics.OutcomeFailure)
		} else {
			metrics.RecordOAuthExchange(metrics.OutcomeSuccess)
		}
		mine = &exchangeResult{resp: resp, err: err}
		return nil, nil
	})

	// Followers share the call but never its response
	if mine == nil {
		metrics.RecordOAuthExchange(metrics.OutcomeRejected)
		return nil, ErrCodeConsumed
	}
	return mine.resp, mine.err
}

// Consumed reports whether code was already exchanged
func (g *CodeGuard) Consumed(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	at, ok := g.consumed[code]
	if !ok {
		return false
	}
	if g.now().Sub(at) > g.ttl {
		delete(g.consumed, code)
		return false
	}
	return true
}

// claim marks code consumed and reports whether this caller did so
func (g *CodeGuard) claim(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for c, at := range g.consumed {
		if now.Sub(at) > g.ttl {
			delete(g.consumed, c)
		}
	}
	if _, ok := g.consumed[code]; ok {
		return false
	}
	g.consumed[code] = now
	return true
}
