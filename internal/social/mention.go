package social

import "regexp"

// mentionPattern matches word-character local parts followed by a letter/underscore
// domain whose last segment has 2-3 letters. The trailing word boundary rejects a
// longer top-level segment instead of truncating it.
var mentionPattern = regexp.MustCompile(`\w+@[A-Za-z_]+(?:\.[A-Za-z_]+)*\.[A-Za-z]{2,3}\b`)

// ExtractMentions returns the email-shaped tokens of text in order of appearance.
// Duplicates are kept; an empty slice is returned when nothing matches.
func ExtractMentions(text string) []string {
	if text == "" {
		return []string{}
	}
	matches := mentionPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
