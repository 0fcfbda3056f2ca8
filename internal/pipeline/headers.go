package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandHeaders resolves the header arguments into a sorted, de-duplicated
// list of files. An argument may be a plain path or a doublestar glob such
// as "include/**/*.h". Files matching any exclude pattern are dropped.
func ExpandHeaders(args, excludes []string) ([]string, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	seen := make(map[string]bool)
	var headers []string
	for _, arg := range args {
		matches, err := expand(arg)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if seen[m] || excluded(m, excludes) {
				continue
			}
			seen[m] = true
			headers = append(headers, m)
		}
	}
	sort.Strings(headers)
	return headers, nil
}

func expand(arg string) ([]string, error) {
	if !hasMeta(arg) {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", arg, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("header %s: is a directory", arg)
		}
		return []string{arg}, nil
	}

	matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", arg, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no headers match %q", arg)
	}
	return matches, nil
}

func hasMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func excluded(path string, excludes []string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range excludes {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, slashed); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
