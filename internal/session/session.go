// Package session holds the calculator's application state: the expression
// buffer, the selected mode, the displayed result and status, and the
// cached history and stats panels. Every presentation layer (the keys
// command, tests, a future UI) drives the calculator through a Session and
// renders Screen snapshots from it.
//
// Evaluations are tagged with a monotonically increasing sequence number.
// A response that arrives after a newer request was issued is discarded.
// The same rule applies to history and stats fetches.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/buffer"
	"github.com/conneroisu/abacus/internal/errors"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/conneroisu/abacus/internal/mode"
)

// Status messages shown to the user.
const (
	StatusCalculating    = "Calculating..."
	StatusOK             = "OK"
	StatusInvalid        = "Invalid"
	StatusLoaded         = "Loaded"
	StatusHistoryCleared = "History cleared"
	StatusReady          = "Ready"
)

// How long transient statuses should stay visible. The session does not
// clear them itself; presentation layers may.
const (
	LoadedTTL = 700 * time.Millisecond
	NoticeTTL = 900 * time.Millisecond
)

// Placeholders for empty panels.
const (
	HistoryPlaceholder = "No history yet"
	EmptyPlaceholder   = "—"
	InitialResult      = "0"
)

// Service is the remote evaluator and history service.
type Service interface {
	Evaluate(ctx context.Context, expression, mode string) (string, error)
	History(ctx context.Context) ([]api.HistoryEntry, error)
	Stats(ctx context.Context) (api.StatsSnapshot, error)
	ClearHistory(ctx context.Context) error
}

// Subscriber delivers change notifications from the service.
type Subscriber interface {
	Subscribe(ctx context.Context, fn func(api.Event)) error
}

// Status is the current status line.
type Status struct {
	Text string `json:"text"`
	// TTL is how long the status is meant to be shown. Zero means until
	// replaced.
	TTL time.Duration `json:"ttl,omitempty"`
}

// HistoryRow is one rendered history entry.
type HistoryRow struct {
	Expression  string `json:"expression"`
	Result      string `json:"result"`
	Meta        string `json:"meta,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Screen is everything a presentation layer renders.
type Screen struct {
	Expression   string            `json:"expression"`
	Result       string            `json:"result"`
	Status       Status            `json:"status"`
	StatusKPI    string            `json:"status_kpi"`
	Mode         mode.Presentation `json:"mode"`
	History      []HistoryRow      `json:"history"`
	HistoryCount int               `json:"history_count"`
	Total        int               `json:"total"`
	Last         string            `json:"last"`
}

// Session is the calculator state shared by every input handler. It is
// safe for concurrent use; network calls run without holding the lock.
type Session struct {
	mu sync.Mutex

	buf     *buffer.Buffer
	modes   *mode.Selector
	service Service
	logger  logging.Logger
	notify  Listener

	result  string
	status  Status
	history []api.HistoryEntry
	loaded  bool
	stats   api.StatsSnapshot

	evalSeq    uint64
	historySeq uint64
	statsSeq   uint64

	handlers map[Action]handlerFunc
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithListener registers fn to receive session events.
func WithListener(fn Listener) Option {
	return func(s *Session) {
		s.notify = fn
	}
}

// New creates a session backed by service. modes may be nil, in which case
// an unpersisted selector starting in standard mode is used.
func New(service Service, modes *mode.Selector, opts ...Option) *Session {
	s := &Session{
		buf:     buffer.New(),
		modes:   modes,
		service: service,
		logger:  logging.NewNop(),
		result:  InitialResult,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("session")
	if s.modes == nil {
		s.modes = mode.NewSelector(nil, s.logger)
	}
	s.handlers = s.dispatchTable()

	return s
}

// Append applies one key press to the buffer.
func (s *Session) Append(token string) error {
	s.mu.Lock()
	err := s.buf.Append(token)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.emit(Event{Kind: EventScreen})
	return nil
}

// Backspace removes the last character of the expression.
func (s *Session) Backspace() {
	s.mu.Lock()
	s.buf.Backspace()
	s.mu.Unlock()

	s.emit(Event{Kind: EventScreen})
}

// Clear empties the expression and resets the result and status.
func (s *Session) Clear() {
	s.mu.Lock()
	s.buf.Clear()
	s.result = InitialResult
	s.status = Status{}
	s.mu.Unlock()

	s.emit(Event{Kind: EventScreen})
	s.emit(Event{Kind: EventStatus})
}

// Evaluate submits the expression in the current mode. An empty
// expression is ignored without contacting the service.
//
// On failure the status shows the service's message, or "Invalid" when it
// gave none, a shake event is emitted and the expression is left for
// correction. On success the result replaces the expression so that an
// operator continues from it and a digit starts over; history and stats
// are then refreshed and their failures only logged.
func (s *Session) Evaluate(ctx context.Context) error {
	s.mu.Lock()
	if s.buf.IsEmpty() {
		s.mu.Unlock()
		return nil
	}
	expression := s.buf.Text()
	current := s.modes.Current()
	s.evalSeq++
	seq := s.evalSeq
	s.status = Status{Text: StatusCalculating}
	s.mu.Unlock()

	s.emit(Event{Kind: EventStatus})

	result, err := s.service.Evaluate(ctx, expression, current.String())

	s.mu.Lock()
	if seq != s.evalSeq {
		s.mu.Unlock()
		s.logger.Debug(ctx, "Discarding superseded evaluation",
			"expression", expression, "seq", seq)
		return nil
	}

	if err != nil {
		s.status = Status{Text: errors.UserMessage(err, StatusInvalid)}
		s.mu.Unlock()

		s.logger.Warn(ctx, err, "Evaluation failed", "expression", expression, "mode", current)
		s.emit(Event{Kind: EventStatus})
		s.emit(Event{Kind: EventShake})
		return err
	}

	s.result = result
	s.status = Status{Text: StatusOK}
	// Input typed while the request was in flight is kept.
	if s.buf.Text() == expression {
		s.buf.CommitResult(result)
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventScreen})
	s.emit(Event{Kind: EventStatus})

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, err, "Sync after evaluation failed")
	}
	return nil
}

// LoadHistory fetches the history panel. A failed fetch leaves the cached
// rows in place.
func (s *Session) LoadHistory(ctx context.Context) error {
	s.mu.Lock()
	s.historySeq++
	seq := s.historySeq
	s.mu.Unlock()

	items, err := s.service.History(ctx)
	if err != nil {
		s.logger.Warn(ctx, err, "History fetch failed")
		return err
	}

	s.mu.Lock()
	if seq != s.historySeq {
		s.mu.Unlock()
		return nil
	}
	s.history = items
	s.loaded = true
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistory})
	return nil
}

// LoadStats fetches the stats counters. A failed fetch leaves the cached
// counters in place.
func (s *Session) LoadStats(ctx context.Context) error {
	s.mu.Lock()
	s.statsSeq++
	seq := s.statsSeq
	s.mu.Unlock()

	stats, err := s.service.Stats(ctx)
	if err != nil {
		s.logger.Warn(ctx, err, "Stats fetch failed")
		return err
	}

	s.mu.Lock()
	if seq != s.statsSeq {
		s.mu.Unlock()
		return nil
	}
	s.stats = stats
	s.mu.Unlock()

	s.emit(Event{Kind: EventStats})
	return nil
}

// Refresh reloads history then stats. Both are attempted; the first error
// is returned.
func (s *Session) Refresh(ctx context.Context) error {
	historyErr := s.LoadHistory(ctx)
	statsErr := s.LoadStats(ctx)
	if historyErr != nil {
		return historyErr
	}
	return statsErr
}

// ClearHistory asks the service to delete the history and then reloads
// both panels whatever the outcome. The notice is shown whenever the
// service answered, even with a failure; only an unreachable service
// suppresses it.
func (s *Session) ClearHistory(ctx context.Context) error {
	err := s.service.ClearHistory(ctx)
	if err != nil {
		s.logger.Warn(ctx, err, "Clearing history failed")
	}
	if !errors.HasCode(err, errors.ErrCodeRequestFailed) {
		s.setStatus(Status{Text: StatusHistoryCleared, TTL: NoticeTTL})
	}

	if syncErr := s.Refresh(ctx); syncErr != nil {
		s.logger.Warn(ctx, syncErr, "Sync after clearing history failed")
	}
	return err
}

// SelectHistory loads the i-th cached history entry back into the display
// for editing. It does not evaluate and does not mark the expression as a
// result.
func (s *Session) SelectHistory(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.history) {
		n := len(s.history)
		s.mu.Unlock()
		return errors.NewValidationError(errors.ErrCodeInvalidToken,
			fmt.Sprintf("history entry %d out of range (have %d)", i, n))
	}
	entry := s.history[i]
	s.buf.Load(entry.Expression)
	s.result = entry.Result
	s.status = Status{Text: StatusLoaded, TTL: LoadedTTL}
	s.mu.Unlock()

	s.emit(Event{Kind: EventScreen})
	s.emit(Event{Kind: EventStatus})
	return nil
}

// SetMode switches the evaluation mode. The error reports a failure to
// persist the choice; the mode is switched regardless.
func (s *Session) SetMode(m mode.Mode) (mode.Presentation, error) {
	p, err := s.modes.SetMode(m)
	s.announce(p)
	return p, err
}

// ToggleMode flips between standard and scientific mode.
func (s *Session) ToggleMode() (mode.Presentation, error) {
	p, err := s.modes.Toggle()
	s.announce(p)
	return p, err
}

// ReloadMode re-reads the persisted mode, e.g. after another process
// changed it.
func (s *Session) ReloadMode() mode.Presentation {
	p := s.modes.Reload()
	s.emit(Event{Kind: EventMode})
	return p
}

// Mode returns the active mode.
func (s *Session) Mode() mode.Mode {
	return s.modes.Current()
}

// Watch refreshes history and stats on every change notification from
// sub until ctx is cancelled.
func (s *Session) Watch(ctx context.Context, sub Subscriber) error {
	return sub.Subscribe(ctx, func(e api.Event) {
		if e.Type != api.EventHistoryUpdated {
			return
		}
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn(ctx, err, "Live sync failed")
		}
	})
}

// State returns the buffer state.
func (s *Session) State() buffer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.State()
}

// Result returns the displayed result.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Status returns the status line.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// History returns the cached history entries.
func (s *Session) History() []api.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// Screen returns a snapshot of everything to render.
func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	screen := Screen{
		Expression:   s.buf.Display(),
		Result:       s.result,
		Status:       s.status,
		StatusKPI:    s.status.Text,
		Mode:         s.modes.Presentation(),
		History:      historyRows(s.history, s.loaded),
		HistoryCount: len(s.history),
		Total:        s.stats.Total,
		Last:         EmptyPlaceholder,
	}
	if screen.StatusKPI == "" {
		screen.StatusKPI = StatusReady
	}
	if s.stats.Last != nil && *s.stats.Last != "" {
		screen.Last = *s.stats.Last
	}

	return screen
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.emit(Event{Kind: EventStatus})
}

func (s *Session) announce(p mode.Presentation) {
	s.setStatus(Status{Text: p.Mode.AnnounceMessage(), TTL: NoticeTTL})
	s.emit(Event{Kind: EventMode})
}

func (s *Session) emit(e Event) {
	if s.notify == nil {
		return
	}
	e.Screen = s.Screen()
	s.notify(e)
}

func historyRows(items []api.HistoryEntry, loaded bool) []HistoryRow {
	if !loaded {
		return nil
	}
	if len(items) == 0 {
		return []HistoryRow{{Expression: HistoryPlaceholder, Result: EmptyPlaceholder, Placeholder: true}}
	}

	rows := make([]HistoryRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, HistoryRow{
			Expression: buffer.Prettify(it.Expression),
			Result:     it.Result,
			Meta:       fmt.Sprintf("Mode: %s • %s", it.Mode, it.CreatedAt),
		})
	}
	return rows
}
