package toolruntime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolver resolves a possibly-relative path against defaultRoot and
// verifies the result is a descendant of baseRoot (spec §4.3: "any path
// that is not a descendant of base_root returns `error: ... outside
// project root`").
type resolver struct {
	baseRoot    string
	defaultRoot string
}

func (r resolver) resolve(path string) (string, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return "", fmt.Errorf("path is required")
	}

	base := strings.TrimSpace(r.defaultRoot)
	if base == "" {
		base = r.baseRoot
	}
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve default root: %w", err)
	}

	var target string
	if filepath.IsAbs(clean) {
		target = filepath.Clean(clean)
	} else {
		target = filepath.Join(baseAbs, clean)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	rootAbs, err := filepath.Abs(r.baseRoot)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path outside project root")
	}
	return targetAbs, nil
}

func (r resolver) relative(absPath string) string {
	rootAbs, err := filepath.Abs(r.baseRoot)
	if err != nil {
		return absPath
	}
	rel, err := filepath.Rel(rootAbs, absPath)
	if err != nil {
		return absPath
	}
	return rel
}
