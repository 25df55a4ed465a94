package patterns

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clearpath-health/clearpath/internal/models"
)

// Store persists the latest gap pattern snapshot.
type Store interface {
	StorePatterns(ctx context.Context, patterns []models.GapPattern) error
	LoadPatterns(ctx context.Context) ([]models.GapPattern, error)
}

// CaseLister supplies the cases to mine.
type CaseLister interface {
	List(ctx context.Context) []models.CaseRecord
}

// Miner keeps a snapshot of documentation gaps that recur across predicted
// cases. The snapshot is re-mined, and persisted, only after Invalidate.
type Miner struct {
	store  Store
	logger *slog.Logger

	version atomic.Uint64

	mu       sync.Mutex
	snapshot []models.GapPattern
	minedAt  uint64
}

// NewMiner constructs a Miner; store may be nil to keep the snapshot in memory only.
func NewMiner(logger *slog.Logger, store Store) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Miner{store: store, logger: logger}
	m.version.Store(1)
	return m
}

// Prime seeds the snapshot from the store. An empty stored snapshot is not
// trusted and the next read mines.
func (m *Miner) Prime(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	loaded, err := m.store.LoadPatterns(ctx)
	if err != nil {
		return err
	}
	if len(loaded) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = loaded
	m.minedAt = m.version.Load()
	return nil
}

// Invalidate marks the snapshot stale. Call it after the case store changes.
func (m *Miner) Invalidate() {
	m.version.Add(1)
}

// Patterns returns the current snapshot, mining source first if the store
// changed since the last mine. A failed write is logged and the mined
// snapshot is still served.
func (m *Miner) Patterns(ctx context.Context, source CaseLister) []models.GapPattern {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := m.version.Load()
	if m.minedAt == version {
		return clonePatterns(m.snapshot)
	}
	mined := Mine(source.List(ctx))
	if m.store != nil {
		if err := m.store.StorePatterns(ctx, mined); err != nil {
			m.logger.Warn("gap pattern store failed", slog.Any("error", err))
		}
	}
	m.snapshot = mined
	m.minedAt = version
	m.logger.Debug("gap patterns mined", slog.Int("patterns", len(mined)))
	return clonePatterns(mined)
}

// Mine aggregates gaps over every case that reached the prediction stage and
// returns them by descending occurrence. Gaps are matched case-insensitively.
func Mine(cases []models.CaseRecord) []models.GapPattern {
	stats := make(map[string]*gapAggregate)
	predicted := 0
	for _, rec := range cases {
		if rec.Prediction == nil {
			continue
		}
		predicted++
		seen := make(map[string]struct{})
		for _, gap := range rec.Prediction.Gaps {
			key := strings.ToLower(strings.TrimSpace(gap))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			agg := ensureAggregate(stats, key, strings.TrimSpace(gap))
			agg.count++
			agg.payers[rec.Payer] = struct{}{}
			if rec.Diagnosis != nil && rec.Diagnosis.ProcedureCategory != "" {
				agg.categories[rec.Diagnosis.ProcedureCategory] = struct{}{}
			}
			if rec.UpdatedAt.After(agg.lastSeen) {
				agg.lastSeen = rec.UpdatedAt
			}
		}
	}
	if len(stats) == 0 {
		return nil
	}

	patterns := make([]models.GapPattern, 0, len(stats))
	for _, agg := range stats {
		patterns = append(patterns, models.GapPattern{
			Gap:         agg.label,
			Payers:      agg.sortedPayers(),
			Categories:  sortedKeys(agg.categories),
			Occurrences: agg.count,
			Prevalence:  math.Round(float64(agg.count)/float64(predicted)*100) / 100,
			LastSeen:    agg.lastSeen,
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Occurrences != patterns[j].Occurrences {
			return patterns[i].Occurrences > patterns[j].Occurrences
		}
		return patterns[i].Gap < patterns[j].Gap
	})
	return patterns
}

func clonePatterns(in []models.GapPattern) []models.GapPattern {
	if in == nil {
		return nil
	}
	out := make([]models.GapPattern, len(in))
	for i, p := range in {
		p.Payers = append([]models.Payer(nil), p.Payers...)
		p.Categories = append([]string(nil), p.Categories...)
		out[i] = p
	}
	return out
}

type gapAggregate struct {
	label      string
	count      int
	lastSeen   time.Time
	payers     map[models.Payer]struct{}
	categories map[string]struct{}
}

func ensureAggregate(m map[string]*gapAggregate, key, label string) *gapAggregate {
	agg, ok := m[key]
	if !ok {
		agg = &gapAggregate{
			label:      label,
			payers:     make(map[models.Payer]struct{}),
			categories: make(map[string]struct{}),
		}
		m[key] = agg
	}
	return agg
}

func (agg *gapAggregate) sortedPayers() []models.Payer {
	out := make([]models.Payer, 0, len(agg.payers))
	for _, p := range models.Payers {
		if _, ok := agg.payers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
