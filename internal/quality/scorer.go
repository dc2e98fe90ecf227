package quality

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/dataset"
)

// DefaultStaleAfter is how old a date may be before timeliness counts it as
// stale.
const DefaultStaleAfter = 365 * 24 * time.Hour

// Options configures the dimension heuristics of a Scorer.
type Options struct {
	// KeyColumns overrides id-like key inference for uniqueness.
	KeyColumns []string
	// ReferenceDate anchors timeliness. Zero means the current UTC day.
	ReferenceDate time.Time
	// StaleAfter is the timeliness window. Zero means DefaultStaleAfter.
	StaleAfter time.Duration
	Logger     *zap.Logger
}

// Report is the result of scoring one dataset.
type Report struct {
	Overall      float64 `json:"overall"`
	Completeness float64 `json:"completeness"`
	Safety       float64 `json:"safety"`
	Consistency  float64 `json:"consistency"`
	Uniqueness   float64 `json:"uniqueness"`
	Validity     float64 `json:"validity"`
	Timeliness   float64 `json:"timeliness"`

	// Breakdown maps dimension name to its per-column scores.
	Breakdown map[string]map[string]float64 `json:"breakdown"`
	// Weights are the normalized weights used for Overall.
	Weights Weights `json:"weights"`
	Rows    int     `json:"rows"`
	Columns int     `json:"columns"`
}

// Score returns one dimension's score.
func (r Report) Score(d Dimension) float64 {
	switch d {
	case Completeness:
		return r.Completeness
	case Safety:
		return r.Safety
	case Consistency:
		return r.Consistency
	case Uniqueness:
		return r.Uniqueness
	case Validity:
		return r.Validity
	case Timeliness:
		return r.Timeliness
	default:
		return 0
	}
}

func (r *Report) set(d Dimension, s DimensionScore) {
	switch d {
	case Completeness:
		r.Completeness = s.Score
	case Safety:
		r.Safety = s.Score
	case Consistency:
		r.Consistency = s.Score
	case Uniqueness:
		r.Uniqueness = s.Score
	case Validity:
		r.Validity = s.Score
	case Timeliness:
		r.Timeliness = s.Score
	}
	r.Breakdown[d.String()] = s.PerColumn
}

// Scorer owns a weight vector and scoring options. The weight vector is safe
// for concurrent use; Score snapshots it once so a concurrent SetWeights
// never mixes two vectors in one result.
type Scorer struct {
	mu      sync.RWMutex
	weights Weights
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewScorer returns a scorer with the legacy completeness/safety weights.
func NewScorer() *Scorer {
	return NewScorerWithOptions(Options{})
}

// NewScorerWithOptions returns a scorer with the legacy weights and opts.
func NewScorerWithOptions(opts Options) *Scorer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		weights: LegacyWeights(),
		opts:    opts,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC().Truncate(24 * time.Hour) },
	}
}

// Weights returns a copy of the active weight vector.
func (s *Scorer) Weights() Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights.Clone()
}

// SetWeights validates w and makes it the active vector. Dimensions absent
// from w weigh zero. On error the active vector is unchanged.
func (s *Scorer) SetWeights(w Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	next := w.Clone()
	s.mu.Lock()
	s.weights = next
	s.mu.Unlock()
	s.logger.Debug("scoring weights updated", zap.Any("weights", next))
	return nil
}

// ResetWeights restores the legacy completeness/safety vector.
func (s *Scorer) ResetWeights() {
	s.mu.Lock()
	s.weights = LegacyWeights()
	s.mu.Unlock()
}

// Options returns the scorer's heuristic options.
func (s *Scorer) Options() Options { return s.opts }

// Score normalizes d, computes all six dimensions and combines them with the
// active weights. Overall is always within [0,100].
func (s *Scorer) Score(d *dataset.Dataset) Report {
	weights := s.Weights().Normalized()
	in := newInput(d, s.opts, s.now())

	report := Report{
		Breakdown: make(map[string]map[string]float64, len(Dimensions)),
		Weights:   weights,
		Rows:      d.NumRows(),
		Columns:   d.NumCols(),
	}
	overall := 0.0
	for _, dim := range Dimensions {
		score := scorers[dim](in)
		report.set(dim, score)
		overall += weights[dim.String()] * score.Score
	}
	report.Overall = clamp(overall)

	s.logger.Debug("scored dataset",
		zap.Int("rows", report.Rows),
		zap.Int("columns", report.Columns),
		zap.Float64("overall", report.Overall),
	)
	return report
}

var defaultScorer = NewScorer()

// Default returns the process-wide scorer used by the package functions.
func Default() *Scorer { return defaultScorer }

// ScoreDataset scores d with the process-wide scorer.
func ScoreDataset(d *dataset.Dataset) Report { return defaultScorer.Score(d) }

// GetScoringWeights returns a copy of the process-wide weight vector.
func GetScoringWeights() Weights { return defaultScorer.Weights() }

// SetScoringWeights replaces the process-wide weight vector.
func SetScoringWeights(w Weights) error { return defaultScorer.SetWeights(w) }

// ResetScoringWeights restores the process-wide legacy default.
func ResetScoringWeights() { defaultScorer.ResetWeights() }
