package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/castpaint/internal/config"
	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// AnnotateRequest represents the arguments for cast_annotate.
type AnnotateRequest struct {
	Paths         []string `json:"paths"`
	Lexicon       string   `json:"lexicon,omitempty"`
	Prefix        string   `json:"prefix,omitempty"`
	OutputDir     string   `json:"output_dir,omitempty"`
	SourceField   string   `json:"source_field,omitempty"`
	OutputField   string   `json:"output_field,omitempty"`
	RewriteSource bool     `json:"rewrite_source,omitempty"`
	DryRun        bool     `json:"dry_run,omitempty"`
}

// TokensRequest represents the arguments for cast_tokens.
type TokensRequest struct {
	Path        string `json:"path"`
	Lexicon     string `json:"lexicon,omitempty"`
	SourceField string `json:"source_field,omitempty"`
	MatchedOnly bool   `json:"matched_only,omitempty"`
}

// LexiconRequest represents the arguments for cast_lexicon.
type LexiconRequest struct {
	Lexicon string `json:"lexicon,omitempty"`
}

// ListRequest represents the arguments for run_list.
type ListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// FetchRequest represents the arguments for run_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeMatches *bool  `json:"include_matches,omitempty"`
}

// ReportRequest represents the arguments for run_report.
type ReportRequest struct {
	ID   string `json:"id"`
	HTML bool   `json:"html,omitempty"`
}

// PurgeRequest represents the arguments for run_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// HandleAnnotate handles the cast_annotate tool call.
func (h *Handlers) HandleAnnotate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnnotateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Annotate(ctx, h.db, h.cfg, ops.AnnotateInput{
		Paths:         input.Paths,
		LexiconPath:   input.Lexicon,
		Prefix:        input.Prefix,
		OutputDir:     input.OutputDir,
		SourceField:   input.SourceField,
		OutputField:   input.OutputField,
		RewriteSource: input.RewriteSource,
		DryRun:        input.DryRun,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTokens handles the cast_tokens tool call.
func (h *Handlers) HandleTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TokensRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Path == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	result, err := ops.Tokens(h.cfg, ops.TokensInput{
		Path:        input.Path,
		LexiconPath: input.Lexicon,
		SourceField: input.SourceField,
		MatchedOnly: input.MatchedOnly,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLexicon handles the cast_lexicon tool call.
func (h *Handlers) HandleLexicon(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LexiconRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Lexicon(h.cfg, ops.LexiconInput{Path: input.Lexicon})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the run_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the run_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(h.db, ops.FetchInput{ID: input.ID, IncludeMatches: input.IncludeMatches})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReport handles the run_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Report(h.db, ops.ReportInput{ID: input.ID, HTML: input.HTML})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePurge handles the run_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// decode round-trips the raw arguments map through JSON into T.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}

// errorResult turns err into an IsError result carrying {"error": {...}}.
// INTERNAL errors never include details; they may hold paths or SQL text.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    string(errors.ErrInternal),
		"message": "an internal error occurred",
		"status":  500,
	}
	if pErr := errors.As(err); pErr != nil {
		errorObj["code"] = string(pErr.Code)
		errorObj["status"] = pErr.Status
		errorObj["message"] = pErr.Message
		if pErr.Code != errors.ErrInternal {
			if err != error(pErr) {
				// keep the wrapping context
				errorObj["message"] = err.Error()
			}
			if pErr.Details != nil {
				errorObj["details"] = pErr.Details
			}
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
