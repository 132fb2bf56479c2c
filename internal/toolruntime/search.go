package toolruntime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

type searchContentArgs struct {
	Pattern       string   `json:"pattern"`
	Cwd           string   `json:"cwd"`
	Include       []string `json:"include"`
	Exclude       []string `json:"exclude"`
	CaseSensitive *bool    `json:"caseSensitive"`
	MaxResults    int      `json:"maxResults"`
}

type rgMatch struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		LineNumber int `json:"line_number"`
		Lines      struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"data"`
}

// dispatchSearchContent prefers an external `rg --json` invocation; on
// rejection or failure it falls back to an in-process regex walk honouring
// include/exclude globs, caseSensitive (default true), and maxResults
// (default 200, hard max 1000) (spec §4.3).
func (rt *Runtime) dispatchSearchContent(ctx context.Context, argumentsJSON string) Result {
	var args searchContentArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}
	if args.Pattern == "" {
		return errResult("pattern is required")
	}

	cwd := rt.DefaultRoot
	if args.Cwd != "" {
		resolved, err := rt.resolver.resolve(args.Cwd)
		if err != nil {
			return errResult("%v", err)
		}
		cwd = resolved
	}

	caseSensitive := true
	if args.CaseSensitive != nil {
		caseSensitive = *args.CaseSensitive
	}
	maxResults := clampLimit(args.MaxResults, 200, 1000)

	if lines, ok := rt.searchWithRipgrep(ctx, args, cwd, caseSensitive, maxResults); ok {
		return formatSearchResult(lines)
	}

	lines, err := rt.searchFallback(args, cwd, caseSensitive, maxResults)
	if err != nil {
		return errResult("%v", err)
	}
	return formatSearchResult(lines)
}

func formatSearchResult(lines []string) Result {
	if len(lines) == 0 {
		return Result{Text: "(no matches)", Mutated: false}
	}
	return Result{Text: strings.Join(lines, "\n"), Mutated: false}
}

func (rt *Runtime) searchWithRipgrep(ctx context.Context, args searchContentArgs, cwd string, caseSensitive bool, maxResults int) ([]string, bool) {
	rgPath, err := exec.LookPath("rg")
	if err != nil {
		return nil, false
	}

	rgArgs := []string{"--json", "--max-count", fmt.Sprintf("%d", maxResults)}
	if !caseSensitive {
		rgArgs = append(rgArgs, "-i")
	}
	for _, inc := range args.Include {
		rgArgs = append(rgArgs, "--glob", inc)
	}
	for _, exc := range args.Exclude {
		rgArgs = append(rgArgs, "--glob", "!"+exc)
	}
	rgArgs = append(rgArgs, args.Pattern, ".")

	cmd := exec.CommandContext(ctx, rgPath, rgArgs...)
	cmd.Dir = cwd
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		// rg exits 1 when nothing matched; any other failure falls back.
		if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() != 1 {
			return nil, false
		}
	}

	var lines []string
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < maxResults {
		var m rgMatch
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			continue
		}
		if m.Type != "match" {
			continue
		}
		text := strings.TrimRight(m.Data.Lines.Text, "\n")
		lines = append(lines, fmt.Sprintf("%s:%d: %s", m.Data.Path.Text, m.Data.LineNumber, text))
	}
	return lines, true
}

func (rt *Runtime) searchFallback(args searchContentArgs, cwd string, caseSensitive bool, maxResults int) ([]string, error) {
	pattern := args.Pattern
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %v", err)
	}

	var lines []string
	walkErr := filepath.WalkDir(cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil || len(lines) >= maxResults {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(cwd, path)
		if relErr != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if len(args.Include) > 0 && !matchesAnyGlob(args.Include, relSlash) {
			return nil
		}
		if matchesAnyGlob(args.Exclude, relSlash) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if len(lines) >= maxResults {
				break
			}
			if re.MatchString(line) {
				lines = append(lines, fmt.Sprintf("%s:%d: %s", relSlash, i+1, line))
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return lines, nil
}

func matchesAnyGlob(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doubleStarMatch(p, name); ok {
			return true
		}
	}
	return false
}
