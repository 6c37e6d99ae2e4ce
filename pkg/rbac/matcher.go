package rbac

import (
	"path"
	"strings"
)

const anySegments = "**"

// splitPath breaks a path into its non-empty segments
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// matchSegments reports whether the pattern segments cover all of segs
func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == anySegments {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}

		if len(segs) == 0 || !matchSegment(pattern[0], segs[0]) {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}

// matchSegment compares a single segment; wildcards never cross a "/"
func matchSegment(pattern, seg string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == seg
	}
	ok, err := path.Match(pattern, seg)
	return err == nil && ok
}
