package util

import "strings"

// IsRedirectSafe reports whether target is acceptable as a post-login
// redirect. Only local paths qualify: protocol-relative URLs ("//evil")
// and absolute URLs would open-redirect to another origin.
func IsRedirectSafe(target string) bool {
	if target == "" {
		return false
	}
	if !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	if strings.ContainsAny(target, "\r\n") {
		return false
	}
	return true
}

// JoinPath prefixes path with an optional subpath segment. The subpath is
// stored without surrounding slashes; an empty subpath leaves path as is.
func JoinPath(subpath, path string) string {
	if subpath == "" {
		return path
	}
	return "/" + subpath + path
}
