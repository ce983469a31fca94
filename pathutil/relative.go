package pathutil

import "strings"

// RelativeSuffix returns the path remaining after stripping ancestor, a
// known proper (or non-proper) prefix of path on a component boundary.
// The result is itself a valid-shaped path suitable for SplitNext: "/" if
// path == ancestor, otherwise "/" followed by the remaining components.
func RelativeSuffix(path, ancestor string) string {
	return Root + strings.TrimPrefix(path, ancestor)
}
