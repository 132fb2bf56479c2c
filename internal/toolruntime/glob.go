package toolruntime

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

type globArgs struct {
	Pattern string `json:"pattern"`
	Cwd     string `json:"cwd"`
	Limit   int    `json:"limit"`
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

// dispatchGlob implements `**`-capable globbing rooted at cwd (default
// default_root), filtering out matches that escape base_root and capping
// at limit (default 200, hard max 1000) (spec §4.3).
func (rt *Runtime) dispatchGlob(argumentsJSON string) Result {
	var args globArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}
	if args.Pattern == "" {
		return errResult("pattern is required")
	}

	root := rt.DefaultRoot
	if args.Cwd != "" {
		resolved, err := rt.resolver.resolve(args.Cwd)
		if err != nil {
			return errResult("%v", err)
		}
		root = resolved
	}

	limit := clampLimit(args.Limit, 200, 1000)

	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		ok, matchErr := doubleStarMatch(args.Pattern, filepath.ToSlash(rel))
		if matchErr != nil || !ok {
			return nil
		}
		if !withinBaseRoot(rt.BaseRoot, path) {
			return nil
		}
		matches = append(matches, rt.resolver.relative(path))
		return nil
	})

	sort.Strings(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	text := "(no matches)"
	if len(matches) > 0 {
		text = strings.Join(matches, "\n")
	}
	return Result{Text: text, Mutated: false}
}

func withinBaseRoot(baseRoot, path string) bool {
	baseAbs, err := filepath.Abs(baseRoot)
	if err != nil {
		return false
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, pathAbs)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// doubleStarMatch extends filepath.Match with "**" (matches any number of
// path segments, including zero) by translating the glob pattern to an
// anchored regular expression, since the stdlib glob has no such concept.
func doubleStarMatch(pattern, name string) (bool, error) {
	if !strings.Contains(pattern, "**") {
		return filepath.Match(pattern, name)
	}
	re, err := regexp.Compile("^" + globToRegexWithDoubleStar(pattern) + "$")
	if err != nil {
		return false, err
	}
	return re.MatchString(name), nil
}

func globToRegexWithDoubleStar(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case i+2 < len(runes) && runes[i] == '*' && runes[i+1] == '*' && runes[i+2] == '/':
			b.WriteString("(?:.*/)?")
			i += 2
		case i+1 < len(runes) && runes[i] == '*' && runes[i+1] == '*':
			b.WriteString(".*")
			i++
		case runes[i] == '*':
			b.WriteString("[^/]*")
		case runes[i] == '?':
			b.WriteString("[^/]")
		case strings.ContainsRune(`.+()|[]{}^$\`, runes[i]):
			b.WriteByte('\\')
			b.WriteRune(runes[i])
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}
