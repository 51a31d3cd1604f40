package ops

import (
	"database/sql"

	"github.com/hpungsan/castpaint/internal/db"
	"github.com/hpungsan/castpaint/internal/run"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeMatches *bool // default: true (nil means default)
}

// Fetch retrieves one run by ID.
func Fetch(database *sql.DB, input FetchInput) (*run.Run, error) {
	id, err := ValidateRunID(input.ID)
	if err != nil {
		return nil, err
	}

	r, err := db.GetRun(database, id)
	if err != nil {
		return nil, err
	}

	if input.IncludeMatches != nil && !*input.IncludeMatches {
		r.Matches = []run.MatchRecord{}
	}
	return r, nil
}
