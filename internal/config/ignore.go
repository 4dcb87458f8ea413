package config

import (
	"path"
	"path/filepath"
	"strings"
)

func normalizeDirPattern(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, `/\`)
	return filepath.ToSlash(p)
}

// MatchIgnoredDir reports whether the directory at rel (relative to the search root) with base
// name name is excluded. Patterns are directory names ("node_modules"), relative prefixes
// ("app/legacy") or globs ("tmp-*", "generated/*").
func MatchIgnoredDir(rel, name string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	for _, raw := range patterns {
		p := normalizeDirPattern(raw)
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p, "*?[]") {
			if name == p || rel == p || strings.HasPrefix(rel, p+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
		if dir, ok := strings.CutSuffix(p, "/*"); ok && strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// UnderIgnoredDir reports whether file lies inside a directory below root that patterns
// exclude. Every ancestor between root and file is checked, so a file handed over directly
// gets the same verdict as one reached by walking. Files outside root are never ignored.
func UnderIgnoredDir(root, file string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := range parts {
		if MatchIgnoredDir(strings.Join(parts[:i+1], "/"), parts[i], patterns) {
			return true
		}
	}
	return false
}

// IsIgnoredDir applies IgnoreDirs to a directory given relative to the search root.
func (c Config) IsIgnoredDir(rel, name string) bool {
	return MatchIgnoredDir(rel, name, c.IgnoreDirs)
}

// InIgnoredDir reports whether path sits below an ignored directory of the search root.
func (c Config) InIgnoredDir(path string) bool {
	return UnderIgnoredDir(c.SearchRoot(), path, c.IgnoreDirs)
}
