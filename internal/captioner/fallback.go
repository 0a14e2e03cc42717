package captioner

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const fallbackHintLength = 60

// fallbackHashtags is the fixed tag set returned by the fallback path.
var fallbackHashtags = []string{"#reels", "#tiktok", "#automation", "#fyp", "#contentcreator"}

var titleCaser = cases.Title(language.English)

// Fallback returns a deterministic caption derived from the truncated
// context hint plus the fixed hashtag set. It never fails.
func Fallback(contextHint string) (string, []string) {
	hint := humanizeHint(contextHint)
	caption := "Fresh cross-platform clip drop."
	if hint != "" {
		caption += " " + hint
	}
	return truncate(caption, 150), append([]string(nil), fallbackHashtags...)
}

// humanizeHint tidies a free-form hint for display: URLs pass through
// untouched, slug-like hints are split on separators and title-cased.
func humanizeHint(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	if !strings.Contains(hint, "://") {
		words := strings.NewReplacer("-", " ", "_", " ").Replace(hint)
		hint = titleCaser.String(strings.ToLower(words))
	}
	return truncate(hint, fallbackHintLength)
}
