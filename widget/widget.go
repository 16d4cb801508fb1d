// Package widget implements the client side of post search: the reactive
// state of one search box and the rules that decide when a search is sent.
//
// Typing updates the term immediately. Terms of three or more characters are
// searched once input has been quiet for the debounce delay; clearing the term
// resets the results without a request. Every failure, whether transport,
// decoding or a rejected request, settles into the same empty state as a
// search without matches.
package widget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/segmentio/ksuid"
)

// Config is the fixed configuration of a widget instance.
type Config struct {
	// ID names the instance in logs. A random id is generated when empty.
	ID           string
	PostsPerPage int
	PostType     string
	Endpoint     string
	Nonce        string
}

// ConfigFromContext reads the configuration a host page baked into a widget.
func ConfigFromContext(wc postsearch.WidgetContext) Config {
	return Config{
		ID:           wc.ID,
		PostsPerPage: wc.PostsPerPage,
		PostType:     wc.PostType,
		Endpoint:     wc.AjaxURL,
		Nonce:        wc.Nonce,
	}
}

// Option configures a Widget.
type Option func(*Widget)

// WithDoer sets the HTTP transport.
func WithDoer(doer Doer) Option {
	return func(w *Widget) {
		w.doer = doer
	}
}

// WithScheduler replaces the timer source used for debouncing.
func WithScheduler(s Scheduler) Option {
	return func(w *Widget) {
		w.scheduler = s
	}
}

// WithDebounce sets the quiet period before an automatic search.
func WithDebounce(d time.Duration) Option {
	return func(w *Widget) {
		w.debounce = d
	}
}

// WithLogger sets the logger failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Widget) {
		w.logger = logger
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change, outside the widget's lock.
func OnChange(fn func(State)) Option {
	return func(w *Widget) {
		w.onChange = fn
	}
}

// Widget is one live search box. Each instance owns its state and its
// debounce timer; instances never share either.
type Widget struct {
	client    *Client
	doer      Doer
	scheduler Scheduler
	debounce  time.Duration
	logger    *slog.Logger
	onChange  func(State)

	mu    sync.Mutex
	state State
	timer Timer
	// timerGen identifies the live timer so a superseded one that already
	// fired cannot start a search.
	timerGen uint64
	// seq is the sequence number of the newest dispatch. Clearing the term
	// also advances it so responses in flight are ignored.
	seq     uint64
	pending int
}

// New creates a widget instance.
func New(cfg Config, opts ...Option) (*Widget, error) {
	if cfg.Endpoint == "" {
		return nil, errors.Wrap(postsearch.ErrInvalidOption, "widget endpoint is empty")
	}
	if cfg.PostsPerPage <= 0 {
		return nil, errors.Wrapf(postsearch.ErrInvalidOption, "posts per page must be positive, got %d", cfg.PostsPerPage)
	}
	if cfg.PostType == "" {
		cfg.PostType = postsearch.DefaultPostType
	}
	if cfg.ID == "" {
		cfg.ID = "ips-" + ksuid.New().String()
	}

	w := &Widget{
		scheduler: realScheduler{},
		debounce:  postsearch.DebounceDelay,
		logger:    slog.Default(),
		state: State{
			ID:           cfg.ID,
			Results:      []postsearch.PostSummary{},
			PostsPerPage: cfg.PostsPerPage,
			PostType:     cfg.PostType,
			Endpoint:     cfg.Endpoint,
			Nonce:        cfg.Nonce,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.client = NewClient(cfg.Endpoint, cfg.Nonce, w.doer)
	w.logger = w.logger.With("widget", cfg.ID)

	return w, nil
}

// State returns a snapshot of the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// OnInputChange records a new search term. A pending automatic search is
// always cancelled; a term of three or more characters schedules a new one and
// an empty term clears the results. One or two characters change nothing else.
func (w *Widget) OnInputChange(term string) {
	w.mu.Lock()
	w.state.SearchTerm = term
	w.stopTimerLocked()

	switch n := termLength(term); {
	case n >= postsearch.MinTermLength:
		gen := w.timerGen
		w.timer = w.scheduler.AfterFunc(w.debounce, func() {
			w.fire(gen)
		})
	case n == 0:
		w.state.clearResults()
		w.seq++
	}

	snapshot := w.state.clone()
	w.mu.Unlock()
	w.notify(snapshot)
}

// Close cancels any pending automatic search.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimerLocked()
}

func (w *Widget) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerGen++
}

func (w *Widget) fire(gen uint64) {
	w.mu.Lock()
	if gen != w.timerGen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	w.PerformSearch(context.Background())
}

// PerformSearch searches for the current term unless it is shorter than three
// characters. It blocks until the request settles. Only the newest dispatch
// may write results; IsLoading is cleared on every exit path.
func (w *Widget) PerformSearch(ctx context.Context) {
	w.mu.Lock()
	if termLength(w.state.SearchTerm) < postsearch.MinTermLength {
		w.mu.Unlock()
		return
	}
	w.seq++
	seq := w.seq
	w.pending++
	w.state.IsLoading = true
	query := Query{
		Term:         w.state.SearchTerm,
		PostsPerPage: w.state.PostsPerPage,
		PostType:     w.state.PostType,
	}
	snapshot := w.state.clone()
	w.mu.Unlock()
	w.notify(snapshot)

	var (
		payload *postsearch.SearchPayload
		err     error
	)
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, errors.Newf("search panicked: %v", r)
		}
		w.settle(seq, query.Term, payload, err)
	}()

	payload, err = w.client.Search(ctx, query)
}

func (w *Widget) settle(seq uint64, term string, payload *postsearch.SearchPayload, err error) {
	w.mu.Lock()
	w.pending--

	if seq != w.seq {
		w.logger.Debug("discarding superseded search response", "search_term", term)
		if w.pending == 0 {
			w.state.IsLoading = false
		}
		snapshot := w.state.clone()
		w.mu.Unlock()
		w.notify(snapshot)
		return
	}

	if err != nil {
		w.logger.Error("search error", "search_term", term, "error", err)
		w.state.Results = []postsearch.PostSummary{}
		w.state.TotalFound = 0
		w.state.Err = err
	} else {
		w.state.Results = append([]postsearch.PostSummary{}, payload.Posts...)
		w.state.TotalFound = payload.Found
		w.state.Err = nil
	}
	w.state.HasSearched = true
	w.state.IsLoading = false

	snapshot := w.state.clone()
	w.mu.Unlock()
	w.notify(snapshot)
}

func (w *Widget) notify(s State) {
	if w.onChange != nil {
		w.onChange(s)
	}
}
