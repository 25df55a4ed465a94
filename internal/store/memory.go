package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/clearpath-health/clearpath/internal/models"
)

// ErrNotFound reports an unknown case id.
var ErrNotFound = errors.New("case not found")

// ErrExists reports a duplicate case id on Create.
var ErrExists = errors.New("case already exists")

// Memory holds case records and the review queue behind one lock. Records
// are deep-copied on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	cases   map[string]models.CaseRecord
	order   []string
	queue   []models.ReviewEntry
	journal *Journal
	logger  *slog.Logger
}

// NewMemory returns an empty store. journal may be nil.
func NewMemory(journal *Journal, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		cases:   make(map[string]models.CaseRecord),
		journal: journal,
		logger:  logger,
	}
}

// Create inserts a new record. A non-nil entry is queued for review under the
// same lock, so the case is never visible without its queue entry.
func (m *Memory) Create(ctx context.Context, rec models.CaseRecord, entry *models.ReviewEntry) error {
	if rec.ID == "" {
		return fmt.Errorf("create case: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[rec.ID]; ok {
		return fmt.Errorf("create case %s: %w", rec.ID, ErrExists)
	}
	m.cases[rec.ID] = rec.Clone()
	m.order = append(m.order, rec.ID)
	m.persist(ctx, rec)
	if entry != nil {
		queued := cloneEntry(*entry)
		queued.CaseID = rec.ID
		m.queue = append(m.queue, queued)
		m.persistEntry(ctx, queued)
	}
	return nil
}

// Update applies fn to the stored record while holding the write lock. If fn
// returns an error the record is left untouched.
func (m *Memory) Update(ctx context.Context, id string, fn func(*models.CaseRecord) error) (models.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.cases[id]
	if !ok {
		return models.CaseRecord{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	working := current.Clone()
	if err := fn(&working); err != nil {
		return current.Clone(), err
	}
	m.cases[id] = working.Clone()
	if working.Decision != models.DecisionPendingReview {
		m.dropEntry(id)
	}
	m.persist(ctx, working)
	return working, nil
}

// Get returns a copy of the record.
func (m *Memory) Get(_ context.Context, id string) (models.CaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.cases[id]
	if !ok {
		return models.CaseRecord{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return rec.Clone(), nil
}

// List returns all records, newest first.
func (m *Memory) List(_ context.Context) []models.CaseRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CaseRecord, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if rec, ok := m.cases[m.order[i]]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Delete removes a record. Queue entries pointing at it become dangling and
// are skipped by Queue.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[id]; !ok {
		return fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	delete(m.cases, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.journal != nil {
		if err := m.journal.DeleteCase(ctx, id); err != nil {
			m.logger.Error("journal delete failed", slog.String("case_id", id), slog.Any("error", err))
		}
	}
	return nil
}

// Dequeue removes the entry for id, reporting whether one existed.
func (m *Memory) Dequeue(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropEntry(id)
}

// Queue lists entries whose case still exists and is awaiting review, oldest first.
func (m *Memory) Queue(_ context.Context) []models.ReviewEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ReviewEntry, 0, len(m.queue))
	for _, entry := range m.queue {
		rec, ok := m.cases[entry.CaseID]
		if !ok || rec.Decision != models.DecisionPendingReview {
			continue
		}
		out = append(out, cloneEntry(entry))
	}
	return out
}

// Restore loads journaled state. Entries for unknown cases are dropped.
func (m *Memory) Restore(records []models.CaseRecord, entries []models.ReviewEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := append([]models.CaseRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	for _, rec := range sorted {
		if _, ok := m.cases[rec.ID]; !ok {
			m.order = append(m.order, rec.ID)
		}
		m.cases[rec.ID] = rec.Clone()
	}
	for _, entry := range entries {
		if _, ok := m.cases[entry.CaseID]; !ok {
			continue
		}
		m.dropEntry(entry.CaseID)
		m.queue = append(m.queue, cloneEntry(entry))
	}
}

// dropEntry must be called with mu held.
func (m *Memory) dropEntry(id string) bool {
	for i, entry := range m.queue {
		if entry.CaseID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			if m.journal != nil {
				if err := m.journal.DeleteEntry(context.Background(), id); err != nil {
					m.logger.Error("journal dequeue failed", slog.String("case_id", id), slog.Any("error", err))
				}
			}
			return true
		}
	}
	return false
}

func (m *Memory) persist(ctx context.Context, rec models.CaseRecord) {
	if m.journal == nil {
		return
	}
	if err := m.journal.SaveCase(ctx, rec); err != nil {
		m.logger.Error("journal write failed", slog.String("case_id", rec.ID), slog.Any("error", err))
	}
}

func (m *Memory) persistEntry(ctx context.Context, entry models.ReviewEntry) {
	if m.journal == nil {
		return
	}
	if err := m.journal.SaveEntry(ctx, entry); err != nil {
		m.logger.Error("journal enqueue failed", slog.String("case_id", entry.CaseID), slog.Any("error", err))
	}
}

func cloneEntry(e models.ReviewEntry) models.ReviewEntry {
	e.OpenQuestions = append([]string(nil), e.OpenQuestions...)
	e.Gaps = append([]string(nil), e.Gaps...)
	e.Risks = append([]string(nil), e.Risks...)
	return e
}
