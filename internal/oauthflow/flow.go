// Package oauthflow completes a GitHub sign-in: it reads the callback query,
// trades the one-time code for a session exactly once, then counts down
// before sending the visitor on to profile completion.
package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/assert"
	"github.com/skillcred/skillcred/internal/metrics"
	"github.com/skillcred/skillcred/internal/session"
	"github.com/skillcred/skillcred/internal/toast"
)

// State of a callback flow
type State string

const (
	StateProcessing State = "processing"
	StateError      State = "error"
	StateSuccess    State = "success"
	StateNavigated  State = "navigated"
)

// Terminal reports whether no further updates follow
func (s State) Terminal() bool {
	return s == StateError || s == StateNavigated
}

// Messages shown to the visitor
const (
	MsgProcessing     = "Processing your request..."
	MsgExchanging     = "Exchanging code and fetching profile..."
	MsgSuccess        = "GitHub authentication successful! Redirecting shortly..."
	MsgCodeMissing    = "GitHub code not found in URL."
	MsgExchangeFailed = "Something went wrong during GitHub authentication."
	MsgStateMismatch  = "GitHub sign-in could not be verified. Please start again."
	MsgCodeUsed       = "This GitHub sign-in link was already used. Please sign in again."
	MsgNoProfile      = "Signed in with GitHub, but no profile was returned. Taking you to the home page."

	unknownError = "Unknown error"
)

// DefaultCountdown is the number of seconds shown before navigation
const DefaultCountdown = 5

// FallbackDestination is used when the backend returned no user identifier
const FallbackDestination = "/applicant"

// ProfileCompletionPath is where a signed-in user with id continues
func ProfileCompletionPath(userID string) string {
	assert.NotEmpty(userID, "userID")
	return "/applicant/" + url.PathEscape(userID) + "/complete-profile"
}

// Destination is where a visitor signed in as userID goes next
func Destination(userID string) string {
	if userID == "" {
		return FallbackDestination
	}
	return ProfileCompletionPath(userID)
}

// Snapshot is the observable state of a Flow
type Snapshot struct {
	State       State
	Message     string
	Countdown   int
	Destination string
	UserID      string
}

// Toast is the status message matching the snapshot. Errors stay until the
// visitor leaves the page.
func (s Snapshot) Toast() toast.Toast {
	switch s.State {
	case StateError:
		return toast.Error(s.Message).Sticky()
	case StateSuccess, StateNavigated:
		return toast.Success(s.Message)
	default:
		return toast.Loading(s.Message)
	}
}

// Exchanger trades a GitHub authorization code for a backend session
type Exchanger interface {
	ExchangeGitHubCode(ctx context.Context, code string) (*apiclient.GitHubTokenResponse, error)
}

// Navigator is called once with the destination when the countdown ends
type Navigator func(destination string)

// Flow is one visit of the GitHub callback page
type Flow struct {
	exchanger     Exchanger
	sess          *session.Context
	guard         *CodeGuard
	clock         Clock
	interval      time.Duration
	countdownFrom int
	navigate      Navigator
	expectedState string
	checkState    bool
	logger        zerolog.Logger

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup

	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// Option configures a Flow
type Option func(*Flow)

// WithCodeGuard shares code bookkeeping between flows
func WithCodeGuard(g *CodeGuard) Option {
	return func(f *Flow) { f.guard = g }
}

// WithClock replaces the ticker source
func WithClock(c Clock) Option {
	return func(f *Flow) { f.clock = c }
}

// WithInterval sets the time between countdown ticks
func WithInterval(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithCountdown sets the number of ticks before navigation
func WithCountdown(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.countdownFrom = n
		}
	}
}

// WithNavigator sets the navigation callback. It runs on the countdown
// goroutine and must not call Close.
func WithNavigator(n Navigator) Option {
	return func(f *Flow) { f.navigate = n }
}

// WithExpectedState rejects callbacks whose state parameter differs
func WithExpectedState(state string) Option {
	return func(f *Flow) {
		f.expectedState = state
		f.checkState = true
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// New returns a flow in the processing state
func New(exchanger Exchanger, sess *session.Context, opts ...Option) *Flow {
	f := &Flow{
		exchanger:     exchanger,
		sess:          sess,
		clock:         RealClock(),
		interval:      time.Second,
		countdownFrom: DefaultCountdown,
		navigate:      func(string) {},
		logger:        zerolog.Nop(),
		done:          make(chan struct{}),
		subs:          make(map[int]chan Snapshot),
		snap:          Snapshot{State: StateProcessing, Message: MsgProcessing},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start handles the callback query. Only the first call does anything;
// every call returns the state reached so far.
func (f *Flow) Start(ctx context.Context, query url.Values) Snapshot {
	f.startOnce.Do(func() {
		f.start(ctx, query)
	})
	return f.Snapshot()
}

func (f *Flow) start(ctx context.Context, query url.Values) {
	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = unknownError
		}
		f.logger.Warn().Str("error", errParam).Msg("GitHub returned an OAuth error")
		f.fail(fmt.Sprintf("GitHub authentication failed: %s", desc))
		return
	}

	if f.checkState && query.Get("state") != f.expectedState {
		f.logger.Warn().Msg("GitHub callback state mismatch")
		f.fail(MsgStateMismatch)
		return
	}

	code := query.Get("code")
	if code == "" {
		f.logger.Warn().Msg("No code found in GitHub callback")
		f.fail(MsgCodeMissing)
		return
	}

	if !f.set(func(s *Snapshot) { s.Message = MsgExchanging }) {
		return
	}

	resp, err := f.exchange(ctx, code)
	if errors.Is(err, ErrCodeConsumed) {
		f.logger.Warn().Msg("GitHub code was already used")
		f.fail(MsgCodeUsed)
		return
	}
	if err != nil {
		f.logger.Error().Err(err).Msg("GitHub code exchange failed")
		f.fail(apiclient.UserMessage(err, MsgExchangeFailed))
		return
	}
	if f.isClosed() {
		return
	}

	userID := resp.UserID()
	if userID == "" {
		f.logger.Warn().Msg("GitHub exchange returned no user id")
	}
	if err := f.sess.Login(session.Identity{UserID: userID}, resp.AuthToken); err != nil {
		f.logger.Error().Err(err).Msg("Failed to store GitHub session")
		f.fail(MsgExchangeFailed)
		return
	}

	destination := Destination(userID)
	message := MsgNoProfile
	if userID != "" {
		message = MsgSuccess
	}

	ok := f.set(func(s *Snapshot) {
		s.State = StateSuccess
		s.Message = message
		s.Countdown = f.countdownFrom
		s.Destination = destination
		s.UserID = userID
		f.wg.Add(1)
	})
	if !ok {
		return
	}

	go f.countdown()
}

func (f *Flow) exchange(ctx context.Context, code string) (*apiclient.GitHubTokenResponse, error) {
	if f.guard != nil {
		return f.guard.Exchange(ctx, code, f.exchanger)
	}

	resp, err := f.exchanger.ExchangeGitHubCode(ctx, code)
	if err != nil {
		metrics.RecordOAuthExchange(metrics.OutcomeFailure)
		return nil, err
	}
	metrics.RecordOAuthExchange(metrics.OutcomeSuccess)
	return resp, nil
}

func (f *Flow) countdown() {
	defer f.wg.Done()

	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C():
			var arrived bool
			ok := f.set(func(s *Snapshot) {
				s.Countdown--
				if s.Countdown <= 0 {
					s.Countdown = 0
					s.State = StateNavigated
					arrived = true
				}
			})
			if !ok {
				return
			}
			if arrived {
				f.navigate(f.Snapshot().Destination)
				return
			}
		}
	}
}

func (f *Flow) fail(message string) {
	f.set(func(s *Snapshot) {
		s.State = StateError
		s.Message = message
	})
}

// set applies mutate and publishes the result. It reports false once the
// flow is closed or terminal.
func (f *Flow) set(mutate func(*Snapshot)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.snap.State.Terminal() {
		return false
	}

	mutate(&f.snap)
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- f.snap
	}

	if f.snap.State.Terminal() {
		f.closeSubsLocked()
	}
	return true
}

// Snapshot returns the current state
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// Subscribe returns a channel that always holds the latest snapshot. It is
// closed after a terminal snapshot or when the flow is closed. The returned
// func unsubscribes.
func (f *Flow) Subscribe() (<-chan Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Snapshot, 1)
	ch <- f.snap
	if f.closed || f.snap.State.Terminal() {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
}

// Close stops a running countdown and waits for it to exit. No updates
// happen afterwards.
func (f *Flow) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.closeSubsLocked()
		f.mu.Unlock()

		close(f.done)
	})
	f.wg.Wait()
}

func (f *Flow) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Flow) closeSubsLocked() {
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
}
