package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	case_id     TEXT PRIMARY KEY,
	payer       TEXT NOT NULL,
	decision    TEXT NOT NULL,
	confidence  REAL,
	record_json TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS review_queue (
	case_id     TEXT PRIMARY KEY,
	entry_json  TEXT NOT NULL,
	enqueued_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS review_actions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id     TEXT NOT NULL,
	verdict     TEXT NOT NULL,
	reviewer    TEXT,
	note        TEXT,
	reviewed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS gap_patterns (
	gap          TEXT PRIMARY KEY,
	occurrences  INTEGER NOT NULL,
	prevalence   REAL NOT NULL,
	pattern_json TEXT NOT NULL,
	mined_at     TEXT NOT NULL
);
`

// Journal persists case snapshots and the review queue to SQLite so a
// restarted service can replay them into Memory.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the database at path and runs migrations.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, utils.NewAppError("journal.open", "open db", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, utils.NewAppError("journal.open", "migrate", err)
		}
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// SaveCase upserts the latest snapshot of rec. A review action on the record
// is also appended to review_actions the first time it is seen.
func (j *Journal) SaveCase(ctx context.Context, rec models.CaseRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return utils.NewAppError("journal.save_case", "marshal record", err)
	}
	var confidence any
	if rec.Confidence != nil {
		confidence = *rec.Confidence
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError("journal.save_case", "begin tx", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cases (case_id, payer, decision, confidence, record_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(case_id) DO UPDATE SET
		   decision = excluded.decision,
		   confidence = excluded.confidence,
		   record_json = excluded.record_json,
		   updated_at = excluded.updated_at`,
		rec.ID, string(rec.Payer), string(rec.Decision), confidence, string(data),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return utils.NewAppError("journal.save_case", "upsert case", err)
	}

	if rec.Review != nil {
		var seen int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_actions WHERE case_id = ?`, rec.ID).Scan(&seen); err != nil {
			return utils.NewAppError("journal.save_case", "count reviews", err)
		}
		if seen == 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO review_actions (case_id, verdict, reviewer, note, reviewed_at) VALUES (?, ?, ?, ?, ?)`,
				rec.ID, string(rec.Review.Verdict), rec.Review.Reviewer, rec.Review.Note,
				rec.Review.ReviewedAt.UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return utils.NewAppError("journal.save_case", "insert review", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError("journal.save_case", "commit", err)
	}
	return nil
}

// DeleteCase removes a case and its queue entry.
func (j *Journal) DeleteCase(ctx context.Context, id string) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM cases WHERE case_id = ?`, id); err != nil {
		return utils.NewAppError("journal.delete_case", "delete case", err)
	}
	return j.DeleteEntry(ctx, id)
}

// SaveEntry upserts a review queue entry.
func (j *Journal) SaveEntry(ctx context.Context, entry models.ReviewEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return utils.NewAppError("journal.save_entry", "marshal entry", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO review_queue (case_id, entry_json, enqueued_at) VALUES (?, ?, ?)
		 ON CONFLICT(case_id) DO UPDATE SET entry_json = excluded.entry_json, enqueued_at = excluded.enqueued_at`,
		entry.CaseID, string(data), entry.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return utils.NewAppError("journal.save_entry", "upsert entry", err)
	}
	return nil
}

// DeleteEntry removes a review queue entry.
func (j *Journal) DeleteEntry(ctx context.Context, id string) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM review_queue WHERE case_id = ?`, id); err != nil {
		return utils.NewAppError("journal.delete_entry", "delete entry", err)
	}
	return nil
}

// Load reads every journaled case and queue entry.
func (j *Journal) Load(ctx context.Context) ([]models.CaseRecord, []models.ReviewEntry, error) {
	var records []models.CaseRecord
	err := j.scanJSON(ctx, `SELECT record_json FROM cases ORDER BY created_at`, func(raw []byte) error {
		var rec models.CaseRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, nil, utils.NewAppError("journal.load", "read cases", err)
	}

	var entries []models.ReviewEntry
	err = j.scanJSON(ctx, `SELECT entry_json FROM review_queue ORDER BY enqueued_at`, func(raw []byte) error {
		var entry models.ReviewEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, nil, utils.NewAppError("journal.load", "read queue", err)
	}
	return records, entries, nil
}

// scanJSON runs a single-column query and hands each value to fn. Rows are
// closed before returning so the next query can reuse the connection.
func (j *Journal) scanJSON(ctx context.Context, query string, fn func([]byte) error) error {
	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := fn([]byte(raw)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ReviewCount returns how many review actions have been journaled.
func (j *Journal) ReviewCount(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_actions`).Scan(&n); err != nil {
		return 0, utils.NewAppError("journal.review_count", "count", err)
	}
	return n, nil
}

// StorePatterns replaces the mined gap patterns with the latest snapshot.
func (j *Journal) StorePatterns(ctx context.Context, patterns []models.GapPattern) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError("journal.store_patterns", "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gap_patterns`); err != nil {
		return utils.NewAppError("journal.store_patterns", "clear", err)
	}
	minedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for _, p := range patterns {
		raw, err := json.Marshal(p)
		if err != nil {
			return utils.NewAppError("journal.store_patterns", "encode", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gap_patterns (gap, occurrences, prevalence, pattern_json, mined_at) VALUES (?, ?, ?, ?, ?)`,
			p.Gap, p.Occurrences, p.Prevalence, string(raw), minedAt,
		); err != nil {
			return utils.NewAppError("journal.store_patterns", "insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return utils.NewAppError("journal.store_patterns", "commit", err)
	}
	return nil
}

// LoadPatterns returns the last stored gap patterns by descending occurrence.
func (j *Journal) LoadPatterns(ctx context.Context) ([]models.GapPattern, error) {
	var patterns []models.GapPattern
	err := j.scanJSON(ctx, `SELECT pattern_json FROM gap_patterns ORDER BY occurrences DESC, gap`, func(raw []byte) error {
		var p models.GapPattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		patterns = append(patterns, p)
		return nil
	})
	if err != nil {
		return nil, utils.NewAppError("journal.load_patterns", "read patterns", err)
	}
	return patterns, nil
}
