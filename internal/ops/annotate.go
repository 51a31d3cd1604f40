package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/castpaint/internal/annotate"
	"github.com/hpungsan/castpaint/internal/cast"
	"github.com/hpungsan/castpaint/internal/config"
	"github.com/hpungsan/castpaint/internal/db"
	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/lexicon"
	"github.com/hpungsan/castpaint/internal/run"
)

// AnnotateInput contains parameters for the Annotate operation.
// Empty string fields fall back to the config.
type AnnotateInput struct {
	Paths         []string // required, one or more .json recordings
	LexiconPath   string
	Prefix        string
	OutputDir     string
	SourceField   string
	OutputField   string
	RewriteSource bool // ORed with config
	DryRun        bool // annotate in memory only; nothing written or recorded
}

// FileResult is the outcome for one recording.
type FileResult struct {
	RunID            string            `json:"run_id,omitempty"`
	InputPath        string            `json:"input_path"`
	OutputPath       string            `json:"output_path"`
	EventsIn         int               `json:"events_in"`
	EventsOut        int               `json:"events_out"`
	TokensTotal      int               `json:"tokens_total"`
	TokensMatched    int               `json:"tokens_matched"`
	PromptsRewritten int               `json:"prompts_rewritten"`
	DurationSeconds  float64           `json:"duration_seconds"`
	Matches          []run.MatchRecord `json:"matches"`
	Written          bool              `json:"written"`
}

// AnnotateOutput contains the result of the Annotate operation.
type AnnotateOutput struct {
	Files   []FileResult `json:"files"`
	Lexicon string       `json:"lexicon"`
	DryRun  bool         `json:"dry_run"`
	Message string       `json:"message"`
}

// annotateSettings are the resolved field names and destinations.
type annotateSettings struct {
	prefix        string
	outputDir     string
	sourceField   string
	outputField   string
	rewriteSource bool
}

// prepared is an annotated recording held in memory until every input has
// been processed.
type prepared struct {
	result FileResult
	data   []byte
}

// Annotate colors each recording and writes <prefix><name> next to it (or
// into the output directory). Every input is decoded and annotated before any
// output is written, so a malformed file in the batch leaves nothing behind.
// Cancellation is checked between files.
func Annotate(ctx context.Context, database *sql.DB, cfg *config.Config, input AnnotateInput) (*AnnotateOutput, error) {
	if len(input.Paths) == 0 {
		return nil, errors.NewInvalidRequest("at least one recording path is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	settings := annotateSettings{
		prefix:        firstNonEmpty(input.Prefix, cfg.OutputPrefix),
		outputDir:     firstNonEmpty(input.OutputDir, cfg.OutputDir),
		sourceField:   firstNonEmpty(input.SourceField, cfg.SourceField, cast.DefaultSourceField),
		outputField:   firstNonEmpty(input.OutputField, cfg.OutputField, cast.DefaultOutputField),
		rewriteSource: input.RewriteSource || cfg.RewriteSource,
	}

	lex, err := loadLexicon(cfg, input.LexiconPath)
	if err != nil {
		return nil, err
	}

	batch := make([]prepared, 0, len(input.Paths))
	seen := make(map[string]string, len(input.Paths))
	for _, path := range input.Paths {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("annotate")
		}
		p, err := annotateFile(path, lex, settings)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[p.result.OutputPath]; dup {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("%s and %s would both write %s", other, path, p.result.OutputPath))
		}
		seen[p.result.OutputPath] = path
		batch = append(batch, p)
	}

	out := &AnnotateOutput{
		Files:   make([]FileResult, 0, len(batch)),
		Lexicon: lex.Source(),
		DryRun:  input.DryRun,
	}

	for _, p := range batch {
		if !input.DryRun {
			if err := ctx.Err(); err != nil {
				return nil, errors.NewCancelled("annotate")
			}
			if err := writeFileAtomic(p.result.OutputPath, p.data); err != nil {
				return nil, err
			}
			p.result.Written = true

			if database != nil && !cfg.HistoryDisabled {
				r, err := newRun(p.result, lex, settings)
				if err != nil {
					return nil, err
				}
				if err := db.InsertRun(database, r); err != nil {
					return nil, err
				}
				p.result.RunID = r.ID
			}
		}

		slog.Info("annotated recording",
			"input", p.result.InputPath,
			"output", p.result.OutputPath,
			"events_in", p.result.EventsIn,
			"events_out", p.result.EventsOut,
			"matched", p.result.TokensMatched,
			"dry_run", input.DryRun,
		)
		out.Files = append(out.Files, p.result)
	}

	out.Message = formatAnnotateMessage(out.Files, input.DryRun)
	return out, nil
}

// annotateFile reads, decodes and annotates one recording in memory.
func annotateFile(path string, lex *lexicon.Lexicon, s annotateSettings) (prepared, error) {
	data, err := readRecording(path)
	if err != nil {
		return prepared{}, err
	}

	rec, err := cast.Decode(path, data, s.sourceField)
	if err != nil {
		return prepared{}, err
	}

	res, err := annotate.Annotate(rec.Events, lex)
	if err != nil {
		return prepared{}, err
	}

	fields := []string{s.outputField}
	if s.rewriteSource && s.sourceField != s.outputField {
		fields = append(fields, s.sourceField)
	}
	encoded, err := rec.Encode(res.Events, fields...)
	if err != nil {
		return prepared{}, err
	}

	outPath, err := OutputPath(path, s.prefix, s.outputDir)
	if err != nil {
		return prepared{}, err
	}
	absIn, err := filepath.Abs(path)
	if err != nil {
		return prepared{}, errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	return prepared{
		result: FileResult{
			InputPath:        absIn,
			OutputPath:       outPath,
			EventsIn:         len(rec.Events),
			EventsOut:        len(res.Events),
			TokensTotal:      res.TokensTotal,
			TokensMatched:    len(res.Matches),
			PromptsRewritten: res.PromptsRewritten,
			DurationSeconds:  cast.Duration(rec.Events),
			Matches:          matchRecords(res.Matches),
		},
		data: encoded,
	}, nil
}

// matchRecords converts injector matches to their history form.
func matchRecords(matches []annotate.Match) []run.MatchRecord {
	records := make([]run.MatchRecord, len(matches))
	for i, m := range matches {
		records[i] = run.MatchRecord{
			Text:  m.Text,
			Start: m.Start,
			Span:  m.Span(),
			Kind:  m.Kind(),
			Style: m.Style.String(),
		}
	}
	return records
}

// newRun builds the history record for a written file.
func newRun(res FileResult, lex *lexicon.Lexicon, s annotateSettings) (*run.Run, error) {
	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &run.Run{
		ID:               id,
		InputPath:        res.InputPath,
		OutputPath:       res.OutputPath,
		SourceField:      s.sourceField,
		OutputField:      s.outputField,
		Lexicon:          lex.Source(),
		EventsIn:         res.EventsIn,
		EventsOut:        res.EventsOut,
		TokensTotal:      res.TokensTotal,
		TokensMatched:    res.TokensMatched,
		PromptsRewritten: res.PromptsRewritten,
		DurationSeconds:  res.DurationSeconds,
		Matches:          res.Matches,
		CreatedAt:        time.Now().Unix(),
	}, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// formatAnnotateMessage creates a human-readable message for the result.
func formatAnnotateMessage(files []FileResult, dryRun bool) string {
	matched := 0
	for _, f := range files {
		matched += f.TokensMatched
	}

	fileWord := "recording"
	if len(files) != 1 {
		fileWord = "recordings"
	}
	tokenWord := "token"
	if matched != 1 {
		tokenWord = "tokens"
	}

	if dryRun {
		return fmt.Sprintf("Dry run: %d %s, %d %s would be colored", len(files), fileWord, matched, tokenWord)
	}
	return fmt.Sprintf("Annotated %d %s, colored %d %s", len(files), fileWord, matched, tokenWord)
}
