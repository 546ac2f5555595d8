// Package sanitize turns post and comment content into plain text for the
// terminal.
package sanitize

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from user content. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New creates a Sanitizer that keeps no tags at all.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes every tag, decodes entities, drops control characters such
// as terminal escape sequences and collapses whitespace.
func (s *Sanitizer) Text(content string) string {
	if content == "" {
		return ""
	}

	// Block elements would otherwise glue adjacent words together.
	content = blockBreaks.Replace(content)
	stripped := strings.Map(dropControl, html.UnescapeString(s.policy.Sanitize(content)))

	return strings.Join(strings.Fields(stripped), " ")
}

// dropControl keeps whitespace so that Fields still splits on it. Entities
// are decoded first so that "&#27;" cannot smuggle an ESC through.
func dropControl(r rune) rune {
	if unicode.IsSpace(r) {
		return r
	}

	if unicode.IsControl(r) {
		return -1
	}

	return r
}

// Excerpt returns at most limit runes of Text(content), ending in "..."
// when shortened.
func (s *Sanitizer) Excerpt(content string, limit int) string {
	text := s.Text(content)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	const ellipsis = "..."

	if limit <= len(ellipsis) {
		return string([]rune(text)[:limit])
	}

	cut := strings.TrimSpace(string([]rune(text)[:limit-len(ellipsis)]))

	return cut + ellipsis
}

var blockBreaks = strings.NewReplacer(
	"<br>", " <br>",
	"<br/>", " <br/>",
	"<br />", " <br />",
	"</p>", "</p> ",
	"</div>", "</div> ",
	"</li>", "</li> ",
	"</h1>", "</h1> ",
	"</h2>", "</h2> ",
	"</h3>", "</h3> ",
)
