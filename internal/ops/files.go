package ops

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hpungsan/castpaint/internal/errors"
)

// maxRecordingBytes caps how much of a recording is read into memory.
const maxRecordingBytes = 256 << 20

// readRecording validates and reads a recording file.
func readRecording(path string) ([]byte, error) {
	if err := ValidatePath(path, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(path)
	if err != nil {
		if errors.As(err) != nil {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open recording: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxRecordingBytes+1))
	if err != nil {
		return nil, errors.NewMalformedRecording(path, fmt.Sprintf("read failed: %v", err))
	}
	if len(data) > maxRecordingBytes {
		return nil, errors.NewMalformedRecording(path, fmt.Sprintf("recording exceeds %d bytes", maxRecordingBytes))
	}
	return data, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so an existing file is preserved if anything fails.
func writeFileAtomic(path string, data []byte) error {
	if err := ValidatePath(path, PathCheckWrite); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create output directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if errors.As(err) != nil {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create output file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close output file: %w", err))
	}
	file = nil

	// os.Rename would replace a symlink planted since validation
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("output path is a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("output already exists; overwriting is not supported on Windows (delete it or choose another prefix)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize output: %w", err))
	}

	success = true
	return nil
}
