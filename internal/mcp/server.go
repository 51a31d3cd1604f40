// Package mcp exposes castpaint's operations as MCP tools over stdio.
package mcp

import (
	"database/sql"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/castpaint/internal/config"
)

type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"cast_annotate": {
		def:     annotateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnnotate },
	},
	"cast_tokens": {
		def:     tokensToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTokens },
	},
	"cast_lexicon": {
		def:     lexiconToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLexicon },
	},
	"run_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"run_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"run_report": {
		def:     reportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReport },
	},
	"run_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns the names that match no registered tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with every tool not listed in
// cfg.DisabledTools.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := server.NewMCPServer(
		"castpaint",
		version,
		server.WithToolCapabilities(true),
	)

	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		slog.Warn("ignoring unknown disabled_tools entries", "tools", unknown)
	}

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	h := NewHandlers(db, cfg)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the MCP tools on stdin/stdout until the client disconnects.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(db, cfg, version))
}
