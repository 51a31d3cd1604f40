package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/castpaint/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // source recording
	PathCheckWrite                      // annotated output
)

// RecordingExt is the only accepted recording extension.
const RecordingExt = ".json"

// ValidatePath checks a recording path before it is opened.
// It checks:
// 1. Path traversal (.. sequences)
// 2. Extension (.json required)
// 3. Existence, for reads
// 4. Symlink safety (parent dir and file must not be symlinks)
//
// O_NOFOLLOW at open time covers the final component again.
func ValidatePath(path string, mode PathCheckMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != RecordingExt {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have %s extension: %s", RecordingExt, path))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	parentDir := filepath.Dir(absPath)
	// A missing parent is created later by the writer.
	if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}

	info, err := os.Lstat(absPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return errors.NewInvalidRequest("path must not be a symlink")
	case err == nil && info.IsDir():
		return errors.NewInvalidRequest(fmt.Sprintf("path is a directory: %s", path))
	case os.IsNotExist(err) && mode == PathCheckRead:
		return errors.NewFileNotFound(path)
	}

	return nil
}

// OutputPath builds the annotated file path: prefix + input base name, in
// outputDir if set, else next to the input.
func OutputPath(inputPath, prefix, outputDir string) (string, error) {
	if strings.ContainsAny(prefix, `/\`) || containsTraversal(prefix) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("prefix must not contain path separators: %q", prefix))
	}

	absIn, err := filepath.Abs(filepath.Clean(inputPath))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	dir := filepath.Dir(absIn)
	if outputDir != "" {
		if containsTraversal(outputDir) {
			return "", errors.NewInvalidRequest("output directory must not contain directory traversal (..)")
		}
		dir, err = filepath.Abs(filepath.Clean(outputDir))
		if err != nil {
			return "", errors.NewInvalidRequest(fmt.Sprintf("invalid output directory: %v", err))
		}
	}

	out := filepath.Join(dir, SanitizeForFilename(prefix+filepath.Base(absIn)))
	if out == absIn {
		return "", errors.NewInvalidRequest(fmt.Sprintf("output would overwrite input %s; set a prefix or output directory", inputPath))
	}
	return out, nil
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

// SanitizeForFilename removes control characters from a file name.
func SanitizeForFilename(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	s = result.String()
	if s == "" {
		s = "unnamed"
	}
	return s
}
