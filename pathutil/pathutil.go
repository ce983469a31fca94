// Package pathutil implements the path-string contract that the tree
// package relies on: validation, component splitting, parent extraction,
// and longest-common-prefix computation over absolute, slash-delimited
// paths such as "/a/b/c/".
//
// A valid path begins and ends with "/", is composed of lowercase-letter
// components no longer than MaxComponentLength, separated by "/", and is no
// longer than MaxPathLength in total. "/" alone denotes the root.
package pathutil

import (
	"sort"
	"strings"
)

const (
	// MaxComponentLength bounds the length of a single path component,
	// mirroring MAX_FOLDER_NAME_LENGTH in the original reference design.
	MaxComponentLength = 255

	// MaxPathLength bounds the total length of a path string.
	MaxPathLength = 4096
)

// Root is the path denoting the tree's root directory.
const Root = "/"

// IsValid reports whether path is a well-formed absolute path: it begins
// and ends with "/", every component is 1..MaxComponentLength lowercase
// letters, and the total length does not exceed MaxPathLength.
func IsValid(path string) bool {
	if len(path) == 0 || len(path) > MaxPathLength {
		return false
	}
	if path[0] != '/' || path[len(path)-1] != '/' {
		return false
	}
	if path == Root {
		return true
	}

	for _, component := range strings.Split(path[1:len(path)-1], "/") {
		if !isValidComponent(component) {
			return false
		}
	}
	return true
}

func isValidComponent(component string) bool {
	if len(component) == 0 || len(component) > MaxComponentLength {
		return false
	}
	for _, r := range component {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// SplitNext splits the first component off of subpath, which must start
// with "/". It returns the component name and the remainder (still
// beginning with "/"), or ok == false if subpath has no further component
// (i.e. subpath == "/").
func SplitNext(subpath string) (component, remainder string, ok bool) {
	if subpath == "" || subpath == Root {
		return "", "", false
	}
	rest := subpath[1:]
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		// Malformed (doesn't end in "/"), but report it verbatim rather
		// than panicking; callers validate with IsValid first.
		return rest, Root, true
	}
	return rest[:idx], rest[idx:], true
}

// ParentPath splits path into its parent path and basename. path must be
// a valid, non-root path. For "/a/b/c/" it returns ("/a/b/", "c").
func ParentPath(path string) (parent, basename string) {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	return trimmed[:idx+1], trimmed[idx+1:]
}

// CommonPath returns the longest prefix of p1 and p2 that is itself a
// valid, complete path (i.e. the split happens on a "/" boundary).
func CommonPath(p1, p2 string) string {
	c1 := componentsOf(p1)
	c2 := componentsOf(p2)

	var common []string
	for i := 0; i < len(c1) && i < len(c2); i++ {
		if c1[i] != c2[i] {
			break
		}
		common = append(common, c1[i])
	}
	return Root + strings.Join(common, "/") + joinTrailingSlash(common)
}

func joinTrailingSlash(components []string) string {
	if len(components) == 0 {
		return ""
	}
	return "/"
}

// SplitCommonPath advances both p1 and p2 past their common path prefix,
// returning the remainders (each still a valid path beginning with "/",
// relative to the shared prefix conceptually but expressed as an absolute
// suffix path for use with SplitNext).
func SplitCommonPath(p1, p2 string) (rem1, rem2 string) {
	common := CommonPath(p1, p2)
	return RelativeSuffix(p1, common), RelativeSuffix(p2, common)
}

// IsSubpath reports whether maybe_child is a strict descendant of
// ancestor: ancestor is a proper prefix of maybe_child on a component
// boundary, and the two are not equal.
func IsSubpath(maybeChild, ancestor string) bool {
	if maybeChild == ancestor {
		return false
	}
	return strings.HasPrefix(maybeChild, ancestor)
}

func componentsOf(path string) []string {
	if path == Root {
		return nil
	}
	return strings.Split(strings.Trim(path, "/"), "/")
}

// ListChildrenString serializes a set of child names in canonical
// (lexicographically sorted), comma-separated order.
func ListChildrenString(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
