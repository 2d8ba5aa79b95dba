package content

import (
	"strings"

	"golang.org/x/net/html"
)

// ExcerptWords is the default excerpt length.
const ExcerptWords = 30

// Excerpt strips markup from htmlText and keeps the first n words,
// appending "..." when the text was cut.
func Excerpt(htmlText string, n int) string {
	if n <= 0 {
		n = ExcerptWords
	}
	words := strings.Fields(PlainText(htmlText))
	if len(words) > n {
		return strings.Join(words[:n], " ") + "..."
	}
	return strings.Join(words, " ")
}

// PlainText returns the text content of an HTML fragment, without script
// and style bodies.
func PlainText(htmlText string) string {
	z := html.NewTokenizer(strings.NewReader(htmlText))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if tt == html.StartTagToken && isRawText(name) {
				skip++
			}
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// blockTags separate words; inline tags do not.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "tr": true, "td": true, "th": true,
	"section": true, "article": true, "figure": true, "figcaption": true,
}

func isRawText(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}
