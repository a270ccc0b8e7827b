// Package store holds the current FinancialInputs snapshot of a dashboard
// session and recomputes its ratios after every edit.
package store

import (
	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"go.uber.org/zap"
)

// Observer receives the snapshot and its freshly computed ratios after every change.
type Observer func(ratios.FinancialInputs, ratios.RatioResult)

// Store owns one FinancialInputs snapshot. It is not safe for concurrent use;
// callers sharing a Store must serialize access.
type Store struct {
	logger    *zap.Logger
	initial   ratios.FinancialInputs
	inputs    ratios.FinancialInputs
	result    ratios.RatioResult
	observers map[int]Observer
	order     []int
	nextID    int
}

// New creates a Store seeded with initial.
func New(logger *zap.Logger, initial ratios.FinancialInputs) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:    logger,
		initial:   initial,
		inputs:    initial,
		result:    ratios.Compute(initial),
		observers: make(map[int]Observer),
	}
}

// Snapshot returns the current inputs.
func (s *Store) Snapshot() ratios.FinancialInputs {
	return s.inputs
}

// Result returns the ratios of the current inputs.
func (s *Store) Result() ratios.RatioResult {
	return s.result
}

// SetField parses raw and stores it in field f. Text that does not parse
// as a finite number is stored as 0. The returned snapshot equals the
// previous one except for f.
func (s *Store) SetField(f ratios.Field, raw string) ratios.FinancialInputs {
	value := ratios.ParseAmount(raw)
	if !f.Valid() {
		s.logger.Debug("ignoring edit of unknown field",
			zap.String("op", "store.SetField"),
			zap.String("field", string(f)),
		)
		return s.inputs
	}

	s.logger.Debug("field updated",
		zap.String("op", "store.SetField"),
		zap.String("field", string(f)),
		zap.String("raw", raw),
		zap.Float64("value", value),
	)
	s.apply(s.inputs.With(f, value))
	return s.inputs
}

// Replace swaps the whole snapshot.
func (s *Store) Replace(inputs ratios.FinancialInputs) ratios.FinancialInputs {
	s.logger.Debug("inputs replaced", zap.String("op", "store.Replace"))
	s.apply(inputs)
	return s.inputs
}

// Reset restores the snapshot the Store was created with.
func (s *Store) Reset() ratios.FinancialInputs {
	s.logger.Debug("inputs reset", zap.String("op", "store.Reset"))
	s.apply(s.initial)
	return s.inputs
}

// Subscribe registers o to be called after every change, in subscription
// order. The returned function removes the observer.
func (s *Store) Subscribe(o Observer) func() {
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.order = append(s.order, id)

	return func() {
		if _, ok := s.observers[id]; !ok {
			return
		}
		delete(s.observers, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) apply(inputs ratios.FinancialInputs) {
	s.inputs = inputs
	s.result = ratios.Compute(inputs)

	// Observers may unsubscribe while being notified.
	ids := append([]int(nil), s.order...)
	for _, id := range ids {
		if o, ok := s.observers[id]; ok {
			o(s.inputs, s.result)
		}
	}
}
