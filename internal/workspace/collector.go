// Package workspace implements the Context Collector: it produces a
// bounded, line-numbered snapshot of a scope directory or a single file
// slice for inclusion in the next model turn.
package workspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Bounds on the size and shape of a collected context, mirroring the
// original prototype's contextualizer.py constants.
const (
	DefaultReadLimit = 2000
	MaxLineLength    = 2000
	MaxReadBytes     = 50 * 1024
	MaxFiles         = 8
)

// interestingSuffixes are checked for existence, in order, before any other
// directory entry is considered.
var interestingSuffixes = []string{
	"README.md",
	"README.txt",
	"README",
	"main.py",
	"requirements.txt",
	"pyproject.toml",
	"package.json",
	"setup.py",
}

// interestingPrefixes match the lowercased name of any remaining entry.
var interestingPrefixes = []string{"readme", "docs", "architecture", "overview"}

// binaryExtensions is a fast-path blacklist consulted before the byte-level
// heuristic in isBinary.
var binaryExtensions = map[string]bool{
	".zip": true, ".tar": true, ".gz": true, ".exe": true, ".dll": true,
	".so": true, ".class": true, ".jar": true, ".war": true, ".7z": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true,
	".pptx": true, ".odt": true, ".ods": true, ".odp": true, ".bin": true,
	".dat": true, ".obj": true, ".o": true, ".a": true, ".lib": true,
	".wasm": true, ".pyc": true, ".pyo": true,
}

// FileSlice is a bounded, line-numbered window into a file.
type FileSlice struct {
	Path             string
	Offset           int
	Limit            int
	TotalLines       int
	Lines            []string
	Truncated        bool
	TruncatedByBytes bool
	Preview          string
}

// LastLineRead is the 1-based index of the last line included in Lines.
func (f FileSlice) LastLineRead() int {
	return f.Offset + len(f.Lines)
}

// NumberedLines renders Lines with a "%05d| " prefix starting at Offset+1.
func (f FileSlice) NumberedLines() []string {
	out := make([]string, len(f.Lines))
	for i, line := range f.Lines {
		out[i] = fmt.Sprintf("%05d| %s", f.Offset+1+i, line)
	}
	return out
}

// Snapshot is the result of collecting context for a scope directory: an
// optional directory listing plus up to MaxFiles FileSlices.
type Snapshot struct {
	ScopeRoot string
	Listing   []string
	Files     []FileSlice
}

// FileWindow overrides the default offset/limit for a specific candidate
// path when collecting a Snapshot.
type FileWindow struct {
	Offset int
	Limit  int
}

// CollectOptions configures Collect.
type CollectOptions struct {
	LimitBytes     int
	DefaultLimit   int
	IncludeListing bool
	FileWindows    map[string]FileWindow
}

func isBinary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if binaryExtensions[ext] {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	if n == 0 {
		return false
	}
	chunk := buf[:n]

	for _, b := range chunk {
		if b == 0 {
			return true
		}
	}

	nonPrintable := 0
	for _, b := range chunk {
		if b < 9 || (b > 13 && b < 32) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(chunk)) > 0.3
}

// ReadFileSlice reads a bounded, line-numbered window of path starting at
// offset (0-based line index), taking at most limit lines and at most
// maxBytes of UTF-8 content (line separators counted).
func ReadFileSlice(path string, offset, limit, maxBytes int) FileSlice {
	if isBinary(path) {
		return FileSlice{
			Path:    path,
			Offset:  offset,
			Limit:   limit,
			Lines:   []string{"<binary file>"},
			Preview: "<binary file>",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		msg := fmt.Sprintf("<failed to read: %v>", err)
		return FileSlice{Path: path, Offset: offset, Limit: limit, Lines: []string{msg}, Preview: msg}
	}

	allLines := strings.Split(string(data), "\n")
	totalLines := len(allLines)

	safeOffset := offset
	if safeOffset < 0 {
		safeOffset = 0
	}
	if safeOffset > totalLines {
		safeOffset = totalLines
	}

	end := safeOffset + limit
	if end > totalLines {
		end = totalLines
	}

	var raw []string
	bytesUsed := 0
	truncatedByBytes := false
	for _, line := range allLines[safeOffset:end] {
		clipped := line
		if len(clipped) > MaxLineLength {
			clipped = clipped[:MaxLineLength] + "..."
		}
		size := len(clipped)
		if len(raw) > 0 {
			size++ // newline separator
		}
		if bytesUsed+size > maxBytes {
			truncatedByBytes = true
			break
		}
		raw = append(raw, clipped)
		bytesUsed += size
	}

	truncated := truncatedByBytes || safeOffset+len(raw) < totalLines

	previewLines := raw
	if len(previewLines) > 20 {
		previewLines = previewLines[:20]
	}

	return FileSlice{
		Path:             path,
		Offset:           safeOffset,
		Limit:            limit,
		TotalLines:       totalLines,
		Lines:            raw,
		Truncated:        truncated,
		TruncatedByBytes: truncatedByBytes,
		Preview:          strings.Join(previewLines, "\n"),
	}
}

func discoverCandidates(scopeRoot string) ([]string, error) {
	entries, err := os.ReadDir(scopeRoot)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && name != ".env" && name != ".gitignore" {
			continue
		}
		names = append(names, name)
	}

	seen := map[string]bool{}
	var candidates []string

	for _, preferred := range interestingSuffixes {
		full := filepath.Join(scopeRoot, preferred)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			if !seen[preferred] {
				candidates = append(candidates, preferred)
				seen[preferred] = true
			}
		}
	}

	for _, name := range names {
		if seen[name] {
			continue
		}
		lower := strings.ToLower(name)
		for _, prefix := range interestingPrefixes {
			if strings.HasPrefix(lower, prefix) {
				candidates = append(candidates, name)
				seen[name] = true
				break
			}
		}
	}

	for _, name := range names {
		if !seen[name] {
			candidates = append(candidates, name)
			seen[name] = true
		}
	}

	return candidates, nil
}

// Collect builds a Snapshot for scope: up to MaxFiles non-directory entries,
// in discovery order (existing interestingSuffixes names first, then names
// with an interestingPrefixes prefix, then the rest by name), each read with
// ReadFileSlice honouring any per-path FileWindow override in opts.
func Collect(scope string, opts CollectOptions) (Snapshot, error) {
	scopeRoot, err := filepath.Abs(scope)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve scope: %w", err)
	}

	var listing []string
	if opts.IncludeListing {
		entries, err := os.ReadDir(scopeRoot)
		if err != nil {
			listing = []string{"<scope directory missing>"}
		} else {
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
			for _, e := range entries {
				mark := ""
				if e.IsDir() {
					mark = "/"
				}
				listing = append(listing, e.Name()+mark)
			}
		}
	}

	candidates, err := discoverCandidates(scopeRoot)
	if err != nil {
		return Snapshot{ScopeRoot: scopeRoot, Listing: listing}, nil
	}

	limitBytes := opts.LimitBytes
	if limitBytes <= 0 || limitBytes > MaxReadBytes {
		limitBytes = MaxReadBytes
	}
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultReadLimit
	}

	var files []FileSlice
	for _, name := range candidates {
		if len(files) >= MaxFiles {
			break
		}
		full := filepath.Join(scopeRoot, name)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}

		offset, limit := 0, defaultLimit
		if w, ok := opts.FileWindows[full]; ok {
			offset, limit = w.Offset, w.Limit
			if limit <= 0 {
				limit = 1
			}
		}
		files = append(files, ReadFileSlice(full, offset, limit, limitBytes))
	}

	return Snapshot{ScopeRoot: scopeRoot, Listing: listing, Files: files}, nil
}

func sliceHint(f FileSlice) string {
	switch {
	case f.TruncatedByBytes:
		return fmt.Sprintf("(Output truncated at %d bytes. Use 'offset' parameter to read beyond line %d)", MaxReadBytes, f.LastLineRead())
	case f.Truncated:
		return fmt.Sprintf("(File has more lines. Use 'offset' parameter to read beyond line %d)", f.LastLineRead())
	default:
		return fmt.Sprintf("(End of file - total %d lines)", f.TotalLines)
	}
}

// FormatFileSliceForPrompt renders a FileSlice as a "### File:" block with
// numbered lines, fenced with <file>/</file> markers and a continuation hint.
func FormatFileSliceForPrompt(f FileSlice, relRoot string) string {
	relPath := f.Path
	if relRoot != "" {
		if rel, err := filepath.Rel(relRoot, f.Path); err == nil && !strings.HasPrefix(rel, "..") {
			relPath = rel
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### File: %s", relPath)
	if len(f.Lines) > 0 {
		fmt.Fprintf(&b, " (lines %d-%d)", f.Offset+1, f.LastLineRead())
	}
	if f.Truncated {
		b.WriteString(" (truncated)")
	}
	b.WriteString("\n<file>\n")

	numbered := f.NumberedLines()
	if len(numbered) == 0 {
		b.WriteString("<empty file>")
	} else {
		b.WriteString(strings.Join(numbered, "\n"))
	}
	b.WriteString("\n\n")
	b.WriteString(sliceHint(f))
	b.WriteString("\n</file>")
	return b.String()
}

// FormatForPrompt renders a full Snapshot as model-facing context text.
func FormatForPrompt(s Snapshot) string {
	var blocks []string
	if len(s.Listing) > 0 {
		blocks = append(blocks, "## Directory Listing")
		for _, line := range s.Listing {
			blocks = append(blocks, "- "+line)
		}
	}
	for _, f := range s.Files {
		if len(blocks) > 0 {
			blocks = append(blocks, "")
		}
		blocks = append(blocks, FormatFileSliceForPrompt(f, s.ScopeRoot))
	}
	return strings.Join(blocks, "\n")
}

// FormatForDisplay renders a compact, human-facing summary of a Snapshot,
// one "Reading file: ..." line per collected slice.
func FormatForDisplay(s Snapshot) string {
	var blocks []string
	if len(s.Listing) > 0 {
		blocks = append(blocks, "## Directory Listing")
		for _, line := range s.Listing {
			blocks = append(blocks, "- "+line)
		}
	}
	for _, f := range s.Files {
		rel := f.Path
		if rel2, err := filepath.Rel(s.ScopeRoot, f.Path); err == nil {
			rel = rel2
		}
		if len(blocks) > 0 {
			blocks = append(blocks, "")
		}
		descriptor := fmt.Sprintf("offset=%d limit=%d lines_read=%d truncated=%t", f.Offset, f.Limit, len(f.Lines), f.Truncated)
		blocks = append(blocks, fmt.Sprintf("Reading file: %s (%s)", rel, descriptor))
	}
	return strings.Join(blocks, "\n")
}

// scanLineCount counts the lines of the file at path without loading the
// whole file. Nothing in this module calls it.
func scanLineCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
