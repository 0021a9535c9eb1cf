package descriptor

import "strings"

// Slug derives a project identifier from a display title: lower-cased, with
// runs of whitespace collapsed to a single dash. The same title always
// yields the same identifier.
func Slug(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	return strings.Join(fields, "-")
}
