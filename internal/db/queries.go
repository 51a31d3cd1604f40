package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/run"
)

// InsertRun records a finished annotation.
func InsertRun(db *sql.DB, r *run.Run) error {
	var matchesJSON sql.NullString
	if len(r.Matches) > 0 {
		data, err := json.Marshal(r.Matches)
		if err != nil {
			return errors.NewInternal(err)
		}
		matchesJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO runs (
			id, input_path, output_path, source_field, output_field, lexicon,
			events_in, events_out, tokens_total, tokens_matched,
			prompts_rewritten, duration_seconds, matches_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		r.ID, r.InputPath, r.OutputPath, r.SourceField, r.OutputField, r.Lexicon,
		r.EventsIn, r.EventsOut, r.TokensTotal, r.TokensMatched,
		r.PromptsRewritten, r.DurationSeconds, matchesJSON, r.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewInvalidRequest(fmt.Sprintf("run %s already recorded", r.ID))
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetRun retrieves a run by its ULID.
func GetRun(db *sql.DB, id string) (*run.Run, error) {
	query := `
		SELECT id, input_path, output_path, source_field, output_field, lexicon,
			events_in, events_out, tokens_total, tokens_matched,
			prompts_rewritten, duration_seconds, matches_json, created_at
		FROM runs
		WHERE id = ?
	`

	var (
		r           run.Run
		matchesJSON sql.NullString
	)
	err := db.QueryRow(query, id).Scan(
		&r.ID, &r.InputPath, &r.OutputPath, &r.SourceField, &r.OutputField, &r.Lexicon,
		&r.EventsIn, &r.EventsOut, &r.TokensTotal, &r.TokensMatched,
		&r.PromptsRewritten, &r.DurationSeconds, &matchesJSON, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if matchesJSON.Valid && matchesJSON.String != "" {
		if err := json.Unmarshal([]byte(matchesJSON.String), &r.Matches); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if r.Matches == nil {
		r.Matches = []run.MatchRecord{}
	}

	return &r, nil
}

// ListRuns returns run summaries, newest first, with the total row count.
func ListRuns(db *sql.DB, limit, offset int) ([]run.Summary, int, error) {
	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, input_path, output_path, events_in, events_out,
			tokens_total, tokens_matched, prompts_rewritten, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var summaries []run.Summary
	for rows.Next() {
		var s run.Summary
		if err := rows.Scan(
			&s.ID, &s.InputPath, &s.OutputPath, &s.EventsIn, &s.EventsOut,
			&s.TokensTotal, &s.TokensMatched, &s.PromptsRewritten, &s.CreatedAt,
		); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return summaries, total, nil
}

// PurgeRuns permanently deletes runs. With olderThanDays set, only runs
// created more than that many days ago are removed.
func PurgeRuns(db *sql.DB, olderThanDays *int) (int, error) {
	query := "DELETE FROM runs"
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " WHERE created_at < ?"
		args = append(args, cutoff)
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}
