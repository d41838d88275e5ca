package main

import (
	"path"
	"strings"
)

func globMatch(pattern, name string) (matched bool, err error) {
	return path.Match(pattern, name)
}

func globIsGlob(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '[', '*', '?':
			_, err := globMatch(pattern, "whatever")
			return err == nil
		}
	}
	return false
}

// globPivot returns the literal prefix every id matching pattern must start
// with, or "" when ids have to be scanned from the start. Patterns holding an
// escape always scan from the start.
func globPivot(pattern string) string {
	if pattern == "*" || strings.IndexByte(pattern, '\\') >= 0 {
		return ""
	}
	if prefix, ok := cutSuffixStar(pattern); ok && !globIsGlob(prefix) {
		return prefix
	}
	if !globIsGlob(pattern) {
		return pattern
	}
	return ""
}

func cutSuffixStar(pattern string) (string, bool) {
	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		return pattern[:len(pattern)-1], true
	}
	return pattern, false
}
