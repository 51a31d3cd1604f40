// Package ops implements castpaint's operations. The CLI, the MCP server and
// the web UI are thin adapters over these functions.
package ops

import (
	"strings"

	"github.com/hpungsan/castpaint/internal/config"
	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/lexicon"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ValidateRunID trims and checks a run ID.
func ValidateRunID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// loadLexicon loads the lexicon at path, falling back to the configured
// lexicon and then to the embedded default.
func loadLexicon(cfg *config.Config, path string) (*lexicon.Lexicon, error) {
	if path == "" && cfg != nil {
		path = cfg.LexiconPath
	}
	return lexicon.Load(path)
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
