package mode

import (
	"context"
	"sync"

	"github.com/conneroisu/abacus/internal/logging"
)

// Store persists the selected mode between runs.
type Store interface {
	Mode() (string, bool)
	SetMode(value string) error
}

// Presentation is what the presentation layer needs after a mode change.
type Presentation struct {
	Mode           Mode
	Label          string
	ShowScientific bool
}

// Selector owns the current mode. It loads the persisted value once on
// construction and writes through on every change.
type Selector struct {
	mu      sync.RWMutex
	current Mode
	store   Store
	logger  logging.Logger
}

// NewSelector creates a selector initialised from store. A missing or
// unrecognised persisted value yields Default. store may be nil, in which
// case nothing is persisted.
func NewSelector(store Store, logger logging.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Selector{
		current: Default,
		store:   store,
		logger:  logger.WithComponent("mode"),
	}

	if store != nil {
		if raw, ok := store.Mode(); ok {
			m, err := Parse(raw)
			if err != nil {
				s.logger.Warn(context.Background(), err, "Ignoring persisted mode", "value", raw)
			}
			s.current = m
		}
	}

	return s
}

// Current returns the active mode.
func (s *Selector) Current() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetMode switches to m and persists it. The in-memory mode changes even
// when persisting fails; the error is returned so callers can report it.
func (s *Selector) SetMode(m Mode) (Presentation, error) {
	s.mu.Lock()
	s.current = m
	s.mu.Unlock()

	var err error
	if s.store != nil {
		if err = s.store.SetMode(m.String()); err != nil {
			s.logger.Warn(context.Background(), err, "Failed to persist mode", "mode", m)
		}
	}

	return present(m), err
}

// Toggle flips between standard and scientific.
func (s *Selector) Toggle() (Presentation, error) {
	return s.SetMode(s.Current().Other())
}

// Reload replaces the in-memory mode with the persisted value without
// writing anything back. It is used when the persisted state changes
// outside this process.
func (s *Selector) Reload() Presentation {
	if s.store == nil {
		return s.Presentation()
	}
	raw, ok := s.store.Mode()
	if !ok {
		return s.Presentation()
	}

	m := Normalize(raw)
	s.mu.Lock()
	s.current = m
	s.mu.Unlock()
	return present(m)
}

// Presentation describes the active mode.
func (s *Selector) Presentation() Presentation {
	return present(s.Current())
}

func present(m Mode) Presentation {
	return Presentation{
		Mode:           m,
		Label:          m.Label(),
		ShowScientific: m.IsScientific(),
	}
}
