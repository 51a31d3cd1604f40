package ops

import (
	"database/sql"
	"fmt"

	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/run"
)

// Report formats
const (
	ReportMarkdown = "markdown"
	ReportHTML     = "html"
)

// ReportInput contains parameters for the Report operation.
type ReportInput struct {
	ID   string
	HTML bool
}

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	ID      string `json:"id"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// Report renders a run's Markdown report, or its HTML form.
func Report(database *sql.DB, input ReportInput) (*ReportOutput, error) {
	r, err := Fetch(database, FetchInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	out := &ReportOutput{
		ID:      r.ID,
		Format:  ReportMarkdown,
		Content: run.Report(r),
	}
	if input.HTML {
		html, err := run.RenderHTML(out.Content)
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("render report: %w", err))
		}
		out.Format = ReportHTML
		out.Content = html
	}
	return out, nil
}
