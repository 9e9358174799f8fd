package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolvePaths expands an import argument into files. The argument may be
// a comma separated list of files, a directory (its .csv, .json and .txt
// entries, not recursive) or a single file. The result is sorted and
// free of duplicates.
func ResolvePaths(arg string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		info, err := os.Stat(part)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(part))
			continue
		}
		entries, err := os.ReadDir(part)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, err := FormatOf(e.Name()); err == nil {
				add(filepath.Join(part, e.Name()))
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no importable files in %q", arg)
	}
	sort.Strings(out)
	return out, nil
}
