package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpath-health/clearpath/internal/models"
)

func pendingCase(id string, created time.Time) models.CaseRecord {
	score := 0.4
	return models.CaseRecord{
		ID:         id,
		Payer:      models.PayerUHC,
		Input:      models.CaseInput{DiagnosisCodes: []string{"M17.11"}},
		Confidence: &score,
		Prediction: &models.Prediction{Confidence: score, Gaps: []string{"BMI"}},
		Decision:   models.DecisionPendingReview,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestMemoryCreateGetListIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil, nil)
	base := time.Unix(1_700_000_000, 0)

	rec := pendingCase("PA-00000001", base)
	require.NoError(t, m.Create(ctx, rec, nil))
	require.NoError(t, m.Create(ctx, pendingCase("PA-00000002", base.Add(time.Second)), nil))
	assert.ErrorIs(t, m.Create(ctx, rec, nil), ErrExists)

	rec.Input.DiagnosisCodes[0] = "mutated"
	got, err := m.Get(ctx, "PA-00000001")
	require.NoError(t, err)
	assert.Equal(t, "M17.11", got.Input.DiagnosisCodes[0])

	got.Prediction.Gaps[0] = "mutated"
	again, _ := m.Get(ctx, "PA-00000001")
	assert.Equal(t, "BMI", again.Prediction.Gaps[0])

	list := m.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "PA-00000002", list[0].ID)

	_, err = m.Get(ctx, "PA-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateIsAtomicAndRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil, nil)
	require.NoError(t, m.Create(ctx, pendingCase("PA-1", time.Now()), &models.ReviewEntry{CaseID: "PA-1"}))

	boom := errors.New("boom")
	_, err := m.Update(ctx, "PA-1", func(rec *models.CaseRecord) error {
		rec.Decision = models.DecisionApprovedByUser
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ := m.Get(ctx, "PA-1")
	assert.Equal(t, models.DecisionPendingReview, got.Decision)
	assert.Len(t, m.Queue(ctx), 1)

	var wg sync.WaitGroup
	wins := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "PA-1", func(rec *models.CaseRecord) error {
				if rec.Decision != models.DecisionPendingReview {
					return errors.New("already reviewed")
				}
				rec.Decision = models.DecisionDeniedByUser
				return nil
			})
			if err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	assert.Len(t, wins, 1)
	assert.Empty(t, m.Queue(ctx), "leaving pending-human-review drops the queue entry")

	_, err = m.Update(ctx, "PA-missing", func(*models.CaseRecord) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryQueueSkipsDanglingEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil, nil)
	require.NoError(t, m.Create(ctx, pendingCase("PA-1", time.Now()), &models.ReviewEntry{CaseID: "PA-1", Gaps: []string{"x"}}))
	require.NoError(t, m.Create(ctx, pendingCase("PA-2", time.Now()), &models.ReviewEntry{CaseID: "PA-2"}))

	require.NoError(t, m.Delete(ctx, "PA-1"))
	queue := m.Queue(ctx)
	require.Len(t, queue, 1)
	assert.Equal(t, "PA-2", queue[0].CaseID)

	assert.True(t, m.Dequeue(ctx, "PA-2"))
	assert.False(t, m.Dequeue(ctx, "PA-2"))
	assert.Empty(t, m.Queue(ctx))
}

func TestMemoryCreateQueuesEntryWithRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil, nil)
	entry := &models.ReviewEntry{Reason: "confidence below threshold", Gaps: []string{"BMI"}}
	require.NoError(t, m.Create(ctx, pendingCase("PA-1", time.Now()), entry))

	queue := m.Queue(ctx)
	require.Len(t, queue, 1)
	assert.Equal(t, "PA-1", queue[0].CaseID, "entry is keyed by the created record")
	entry.Gaps[0] = "mutated"
	assert.Equal(t, "BMI", m.Queue(ctx)[0].Gaps[0])

	// A failed create queues nothing.
	assert.ErrorIs(t, m.Create(ctx, pendingCase("PA-1", time.Now()), &models.ReviewEntry{Reason: "dup"}), ErrExists)
	require.Len(t, m.Queue(ctx), 1)
	assert.Equal(t, "confidence below threshold", m.Queue(ctx)[0].Reason)
}

func TestJournalReplay(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clearpath.db")
	journal, err := OpenJournal(path)
	require.NoError(t, err)

	m := NewMemory(journal, nil)
	base := time.Unix(1_700_000_000, 0)
	require.NoError(t, m.Create(ctx, pendingCase("PA-1", base), &models.ReviewEntry{CaseID: "PA-1", Reason: "gaps", EnqueuedAt: base}))
	require.NoError(t, m.Create(ctx, pendingCase("PA-2", base.Add(time.Minute)), &models.ReviewEntry{CaseID: "PA-2", Reason: "gaps", EnqueuedAt: base.Add(time.Minute)}))

	_, err = m.Update(ctx, "PA-2", func(rec *models.CaseRecord) error {
		rec.Decision = models.DecisionApprovedByUser
		rec.Review = &models.ReviewAction{Verdict: models.VerdictApproved, Reviewer: "dr-lee", ReviewedAt: base.Add(time.Hour)}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	reopened, err := OpenJournal(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, entries, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, entries, 1)
	assert.Equal(t, "PA-1", entries[0].CaseID)

	reviews, err := reopened.ReviewCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reviews)

	restored := NewMemory(reopened, nil)
	restored.Restore(records, entries)
	list := restored.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "PA-2", list[0].ID)
	assert.Equal(t, models.DecisionApprovedByUser, list[0].Decision)
	require.Len(t, restored.Queue(ctx), 1)
}

func TestJournalStorePatternsReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "patterns.db"))
	require.NoError(t, err)
	defer journal.Close()

	require.NoError(t, journal.StorePatterns(ctx, []models.GapPattern{
		{Gap: "BMI", Occurrences: 1, Prevalence: 0.5},
	}))
	require.NoError(t, journal.StorePatterns(ctx, []models.GapPattern{
		{Gap: "Conservative treatment duration", Occurrences: 2, Prevalence: 0.67, Payers: []models.Payer{models.PayerAetna}},
		{Gap: "Imaging", Occurrences: 3, Prevalence: 1},
	}))

	patterns, err := journal.LoadPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, "Imaging", patterns[0].Gap)
	assert.Equal(t, []models.Payer{models.PayerAetna}, patterns[1].Payers)
}
