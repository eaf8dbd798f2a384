// Package security validates operator-supplied file paths before they are
// opened: the policy file and the SQLite database.
package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxPolicyFileSize bounds how much of a policy file is read.
const MaxPolicyFileSize = 1 << 20

// ErrFileTooLarge is returned by ReadFileLimited when the file exceeds the limit.
var ErrFileTooLarge = errors.New("file too large")

// forbiddenChars are shell metacharacters never expected in a config path.
var forbiddenChars = []string{";", "&", "|", "$", "`", "<", ">", "\n", "\r", "\x00"}

// ValidatePath cleans path, makes it absolute and resolves symlinks when
// the file exists. A path that does not exist yet is returned cleaned.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("file path cannot be empty")
	}
	for _, char := range forbiddenChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %q", char, path)
		}
	}

	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve file path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return clean, nil
		}
		return "", fmt.Errorf("resolve file path: %w", err)
	}
	return resolved, nil
}

// ReadFileLimited reads a validated regular file of at most limit bytes.
func ReadFileLimited(path string, limit int64) ([]byte, error) {
	clean, err := ValidatePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	f, err := os.Open(clean)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", clean)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", clean, ErrFileTooLarge, limit)
	}
	return data, nil
}
