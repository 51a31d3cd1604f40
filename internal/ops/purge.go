package ops

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hpungsan/castpaint/internal/db"
	"github.com/hpungsan/castpaint/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional, only purge runs created more than N days ago
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes run history. Annotated files are left alone.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be non-negative")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("purge")
	}

	count, err := db.PurgeRuns(database, input.OlderThanDays)
	if err != nil {
		return nil, err
	}
	slog.Info("purged run history", "purged", count)

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.OlderThanDays),
	}, nil
}

// ParseDays parses "7d" format to days.
func ParseDays(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(strings.TrimSpace(s), "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid duration: %s", s))
		}
		if days < 0 {
			return 0, errors.NewInvalidRequest("duration must be non-negative")
		}
		return days, nil
	}
	return 0, errors.NewInvalidRequest("duration must end with 'd' (days), e.g., 7d")
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No runs to purge"
	}

	runWord := "run"
	if count > 1 {
		runWord = "runs"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, runWord)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (recorded more than %d days ago)", *olderThanDays)
	}
	return msg
}
