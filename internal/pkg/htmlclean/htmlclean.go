// Package htmlclean repairs HTML fragments returned by the generation model
// before they are handed to the browser for verbatim rendering.
package htmlclean

import "strings"

// Tags the model commonly leaves unbalanced.
var commonTags = []string{
	"div", "p", "h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "span", "strong", "b", "i", "em", "small",
}

// Clean strips markdown code fences, unescapes HTML entities the model
// sometimes double-encodes, and appends closing tags for unbalanced common
// tags. It is a best-effort repair, not a sanitizer: the model's markup is
// trusted by design.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "```html", "")
	text = strings.ReplaceAll(text, "```", "")

	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")

	for _, tag := range commonTags {
		open := countTag(text, "<"+tag)
		closed := countTag(text, "</"+tag)
		if open > closed {
			text += strings.Repeat("</"+tag+">", open-closed)
		}
	}

	return strings.TrimSpace(text)
}

// countTag counts occurrences of prefix that end the tag name there, so "<b"
// does not match "<br>".
func countTag(text, prefix string) int {
	count := 0
	for i := 0; ; {
		idx := strings.Index(text[i:], prefix)
		if idx < 0 {
			break
		}
		at := i + idx + len(prefix)
		if at >= len(text) || !isTagNameChar(text[at]) {
			count++
		}
		i += idx + len(prefix)
	}
	return count
}

func isTagNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
