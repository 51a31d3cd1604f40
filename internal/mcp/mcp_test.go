package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/castpaint/internal/config"
	"github.com/hpungsan/castpaint/internal/db"
	"github.com/hpungsan/castpaint/internal/errors"
)

const helloCast = `{
  "version": 1,
  "stdout": [
    [0.5, "me@host:~$ "],
    [1.0, "docker"],
    [0.1, " "],
    [0.2, "w"], [0.1, "e"], [0.1, "a"], [0.1, "v"], [0.1, "e"],
    [0.3, "\r\n"]
  ]
}`

const testLexicon = `prompt_color: yellow
prompts: ["me@host:~$ "]
tokens:
  docker: [blue]
  weave: [black, bold]
`

// testSetup creates a temporary database, config and a recording fixture.
func testSetup(t *testing.T) (*sql.DB, *config.Config, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	castPath := filepath.Join(tmpDir, "hello.json")
	if err := os.WriteFile(castPath, []byte(helloCast), 0644); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}
	lexPath := filepath.Join(tmpDir, "lexicon.yaml")
	if err := os.WriteFile(lexPath, []byte(testLexicon), 0644); err != nil {
		t.Fatalf("failed to write lexicon: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.LexiconPath = lexPath
	return database, cfg, castPath
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// annotateOnce runs cast_annotate on the fixture and returns the run ID.
func annotateOnce(t *testing.T, h *Handlers, castPath string) string {
	t.Helper()
	result, err := h.HandleAnnotate(context.Background(), makeRequest(map[string]any{
		"paths": []any{castPath},
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	files := out["files"].([]any)
	return files[0].(map[string]any)["run_id"].(string)
}

func TestHandleAnnotate(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "annotate valid recording",
			args:      map[string]any{"paths": []any{castPath}},
			wantError: false,
		},
		{
			name:      "dry run",
			args:      map[string]any{"paths": []any{castPath}, "dry_run": true},
			wantError: false,
		},
		{
			name:      "no paths",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "missing file",
			args:      map[string]any{"paths": []any{filepath.Join(t.TempDir(), "gone.json")}},
			wantError: true,
			errorCode: "FILE_NOT_FOUND",
		},
		{
			name:      "missing source field",
			args:      map[string]any{"paths": []any{castPath}, "source_field": "stdin"},
			wantError: true,
			errorCode: "MISSING_FIELD",
		},
		{
			name:      "paths is not an array",
			args:      map[string]any{"paths": castPath},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAnnotate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleAnnotate_Output(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)

	result, err := h.HandleAnnotate(context.Background(), makeRequest(map[string]any{
		"paths":  []any{castPath},
		"prefix": "color-",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)

	files := out["files"].([]any)
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	f := files[0].(map[string]any)
	wantPath := filepath.Join(filepath.Dir(castPath), "color-hello.json")
	if f["output_path"] != wantPath {
		t.Errorf("output_path = %v, want %s", f["output_path"], wantPath)
	}
	if f["tokens_matched"] != float64(2) {
		t.Errorf("tokens_matched = %v, want 2", f["tokens_matched"])
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("annotated file not written: %v", err)
	}
}

func TestHandleTokens(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)

	result, err := h.HandleTokens(context.Background(), makeRequest(map[string]any{
		"path":         castPath,
		"matched_only": true,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	tokens := out["tokens"].([]any)
	if len(tokens) != 2 {
		t.Fatalf("tokens = %d, want 2", len(tokens))
	}
	weave := tokens[1].(map[string]any)
	if weave["text"] != "weave" || weave["kind"] != "composed" || weave["style"] != "black+bold" {
		t.Errorf("unexpected token: %v", weave)
	}

	result, err = h.HandleTokens(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleLexicon(t *testing.T) {
	database, cfg, _ := testSetup(t)
	h := NewHandlers(database, cfg)

	result, err := h.HandleLexicon(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	if out["count"] != float64(2) {
		t.Errorf("count = %v, want 2", out["count"])
	}
	if out["source"] != cfg.LexiconPath {
		t.Errorf("source = %v, want %s", out["source"], cfg.LexiconPath)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("tokens:\n  run: [mauve]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	result, err = h.HandleLexicon(context.Background(), makeRequest(map[string]any{"lexicon": bad}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "UNKNOWN_STYLE")
}

func TestHandleList(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)

	for i := 0; i < 3; i++ {
		annotateOnce(t, h, castPath)
	}

	result, err := h.HandleList(context.Background(), makeRequest(map[string]any{"limit": 2}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	if items := out["items"].([]any); len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	pagination := out["pagination"].(map[string]any)
	if pagination["total"] != float64(3) || pagination["has_more"] != true {
		t.Errorf("unexpected pagination: %v", pagination)
	}
}

func TestHandleFetch(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)
	id := annotateOnce(t, h, castPath)

	tests := []struct {
		name        string
		args        map[string]any
		errorCode   string
		wantMatches int
	}{
		{"by id", map[string]any{"id": id}, "", 2},
		{"without matches", map[string]any{"id": id, "include_matches": false}, "", 0},
		{"unknown id", map[string]any{"id": "01NOPE"}, "NOT_FOUND", 0},
		{"missing id", map[string]any{}, "INVALID_REQUEST", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleFetch(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.errorCode != "" {
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			out := parseOutput(t, result)
			if out["id"] != id {
				t.Errorf("id = %v, want %s", out["id"], id)
			}
			if matches := out["matches"].([]any); len(matches) != tt.wantMatches {
				t.Errorf("matches = %d, want %d", len(matches), tt.wantMatches)
			}
		})
	}
}

func TestHandleReport(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)
	id := annotateOnce(t, h, castPath)

	result, err := h.HandleReport(context.Background(), makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	if out["format"] != "markdown" {
		t.Errorf("format = %v, want markdown", out["format"])
	}
	if !strings.HasPrefix(out["content"].(string), "# Run "+id) {
		t.Errorf("unexpected report: %v", out["content"])
	}

	result, err = h.HandleReport(context.Background(), makeRequest(map[string]any{"id": id, "html": true}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out = parseOutput(t, result)
	if !strings.Contains(out["content"].(string), "<h1>") {
		t.Errorf("expected HTML report, got %v", out["content"])
	}
}

func TestHandlePurge(t *testing.T) {
	database, cfg, castPath := testSetup(t)
	h := NewHandlers(database, cfg)
	annotateOnce(t, h, castPath)

	result, err := h.HandlePurge(context.Background(), makeRequest(map[string]any{"older_than_days": 7}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if out := parseOutput(t, result); out["purged"] != float64(0) {
		t.Errorf("purged = %v, want 0", out["purged"])
	}

	result, err = h.HandlePurge(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if out := parseOutput(t, result); out["purged"] != float64(1) {
		t.Errorf("purged = %v, want 1", out["purged"])
	}

	result, err = h.HandlePurge(context.Background(), makeRequest(map[string]any{"older_than_days": -1}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandlePurge_CancelledContext(t *testing.T) {
	database, cfg, _ := testSetup(t)
	h := NewHandlers(database, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.HandlePurge(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, _ := testSetup(t)

	s := NewServer(database, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"cast_annotate",
		"cast_tokens",
		"cast_lexicon",
		"run_list",
		"run_fetch",
		"run_report",
		"run_purge",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, _ := testSetup(t)

	cfg.DisabledTools = []string{"run_purge", "run_purge", "not_a_tool"}
	tools := NewServer(database, cfg, "test").ListTools()

	if len(tools) != 6 {
		t.Errorf("registered tool count = %d, want 6", len(tools))
	}
	if _, ok := tools["run_purge"]; ok {
		t.Error("disabled tool run_purge should not be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, _ := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	if tools := NewServer(database, cfg, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"run_purge", "cast_annotate"}, 0},
		{"one unknown", []string{"run_purge", "capsule_store"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 7 {
		t.Errorf("AllToolNames() returned %d names, want 7", len(names))
	}
	if names[0] != "cast_annotate" {
		t.Errorf("AllToolNames() not sorted: %v", names)
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	errObj := errorObject(t, r)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) || errObj["message"] == "boom" {
		t.Errorf("unexpected error object: %v", errObj)
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("files[1]: %w", errors.NewMissingField("b.json", "stdout"))
	errObj := errorObject(t, errorResult(wrapped))

	if errObj["code"] != string(errors.ErrMissingField) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrMissingField)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "files[1]") {
		t.Errorf("message should contain wrapper context, got: %s", msg)
	}
	if _, ok := errObj["details"]; !ok {
		t.Error("expected details for non-INTERNAL error")
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error %s, got success", expectedCode)
		return
	}
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
