package model

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rvenkat/swing-trader/internal/observ"
)

// State distinguishes a real model score from a neutral fallback.
type State string

const (
	StateOK       State = "ok"
	StateDegraded State = "degraded"
)

// Result is one scoring outcome. A degraded result carries the neutral
// confidence 0.5 and must be treated as non-actionable by callers.
type Result struct {
	Class      int     // 0 or 1
	Confidence float64 // P(class=1)
	ProbDown   float64 // P(class=0)
	State      State
	Reason     string // set when degraded
}

// Neutral is the non-actionable fallback when an instrument cannot be scored.
func Neutral(reason string) Result {
	return Result{Class: 0, Confidence: 0.5, ProbDown: 0.5, State: StateDegraded, Reason: reason}
}

// Scorer scores the latest feature vector for an instrument.
type Scorer interface {
	Score(symbol string, features []float64) Result
	Close()
}

// Store loads one read-only classifier per instrument from a model directory
// (<dir>/<SYMBOL>.onnx) and caches the sessions.
type Store struct {
	dir          string
	featureCount int

	mu       sync.Mutex
	loaded   map[string]*Classifier
	loadErrs map[string]error
}

func NewStore(dir string, featureCount int) *Store {
	return &Store{
		dir:          dir,
		featureCount: featureCount,
		loaded:       map[string]*Classifier{},
		loadErrs:     map[string]error{},
	}
}

func (s *Store) classifier(symbol string) (*Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.loaded[symbol]; ok {
		return c, nil
	}
	if err, ok := s.loadErrs[symbol]; ok {
		return nil, err
	}
	c, err := LoadClassifier(filepath.Join(s.dir, symbol+".onnx"), s.featureCount)
	if err != nil {
		// remember the failure so a missing model is reported once per process
		s.loadErrs[symbol] = err
		return nil, err
	}
	s.loaded[symbol] = c
	return c, nil
}

// Score never returns an error to the caller: any failure degrades to the
// neutral result so the run can continue with the instrument non-actionable.
func (s *Store) Score(symbol string, features []float64) Result {
	c, err := s.classifier(symbol)
	if err != nil {
		observ.Warn("model_unavailable", map[string]any{"symbol": symbol, "reason": err.Error()})
		observ.IncCounter("model_degraded_total", map[string]string{"symbol": symbol})
		return Neutral(fmt.Sprintf("model unavailable: %v", err))
	}
	probs, err := c.Probabilities(features)
	if err != nil {
		observ.Warn("model_inference_failed", map[string]any{"symbol": symbol, "reason": err.Error()})
		observ.IncCounter("model_degraded_total", map[string]string{"symbol": symbol})
		return Neutral(fmt.Sprintf("inference failed: %v", err))
	}
	res := Result{ProbDown: probs[0], Confidence: probs[1], State: StateOK}
	if probs[1] > probs[0] {
		res.Class = 1
	}
	return res
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.loaded {
		c.Close()
	}
	s.loaded = map[string]*Classifier{}
}
