package pipeline

import (
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// imageExtensions are the link targets treated as images.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
}

// CollectImageRefs returns the distinct image references in htmlContent, in
// document order. Candidates are:
//   - img[src] and img[srcset]
//   - source[srcset] (inside picture elements)
//   - a[href] whose path ends with an image extension
//
// References that can never be localized (anchors, data: URIs, mailto:)
// are omitted.
func CollectImageRefs(htmlContent string) ([]string, error) {
	if !strings.Contains(htmlContent, "<") {
		return nil, nil
	}
	doc, _, err := parseHTML(htmlContent)
	if err != nil {
		return nil, err
	}

	var refs []string
	seen := make(map[string]bool)
	add := func(ref string) {
		if !isCandidate(ref) || seen[ref] {
			return
		}
		seen[ref] = true
		refs = append(refs, ref)
	}

	walkImageAttrs(doc, func(n *html.Node, i int, srcset bool) {
		if srcset {
			for _, c := range parseSrcset(n.Attr[i].Val) {
				add(c.url)
			}
			return
		}
		add(n.Attr[i].Val)
	})
	return refs, nil
}

// RewriteImageRefs replaces every candidate reference found in replace with
// its mapped value. References missing from the map are left untouched.
func RewriteImageRefs(htmlContent string, replace map[string]string) (string, error) {
	if len(replace) == 0 {
		return htmlContent, nil
	}
	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	walkImageAttrs(doc, func(n *html.Node, i int, srcset bool) {
		if srcset {
			n.Attr[i].Val = rewriteSrcset(n.Attr[i].Val, replace)
			return
		}
		if to, ok := replace[n.Attr[i].Val]; ok {
			n.Attr[i].Val = to
		}
	})
	return renderHTML(doc, isFragment)
}

// walkImageAttrs calls fn for every attribute that may hold an image
// reference. srcset reports whether the attribute is a srcset list.
func walkImageAttrs(n *html.Node, fn func(n *html.Node, i int, srcset bool)) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			for i, a := range n.Attr {
				switch a.Key {
				case "src":
					fn(n, i, false)
				case "srcset":
					fn(n, i, true)
				}
			}
		case atom.Source:
			for i, a := range n.Attr {
				if a.Key == "srcset" {
					fn(n, i, true)
				}
			}
		case atom.A:
			for i, a := range n.Attr {
				if a.Key == "href" && isImageLink(a.Val) {
					fn(n, i, false)
				}
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkImageAttrs(c, fn)
	}
}

// isCandidate filters out references no localizer can act on.
func isCandidate(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return false
	}
	lower := strings.ToLower(ref)
	for _, scheme := range []string{"data:", "mailto:", "javascript:", "tel:", "blob:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

// isImageLink reports whether href points at an image file, ignoring the
// query string and fragment.
func isImageLink(href string) bool {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return imageExtensions[strings.ToLower(path.Ext(href))]
}

// srcsetCandidate is one image candidate of a srcset attribute. start and
// end locate url in the attribute value.
type srcsetCandidate struct {
	url        string
	start, end int
}

// parseSrcset extracts the candidate URLs of a srcset value following the
// HTML parsing rules: a URL is a run of non-whitespace with trailing commas
// stripped, so commas inside a URL (CDN transforms such as w_100,h_100)
// belong to it. Descriptors run to the next comma outside parentheses.
func parseSrcset(value string) []srcsetCandidate {
	var out []srcsetCandidate
	i := 0
	for i < len(value) {
		for i < len(value) && (isSrcsetSpace(value[i]) || value[i] == ',') {
			i++
		}
		if i == len(value) {
			break
		}
		start := i
		for i < len(value) && !isSrcsetSpace(value[i]) {
			i++
		}
		end := i
		for end > start && value[end-1] == ',' {
			end--
		}
		if end > start {
			out = append(out, srcsetCandidate{url: value[start:end], start: start, end: end})
		}
		if end < i {
			// Trailing commas closed the candidate without descriptors.
			continue
		}
		depth := 0
	descriptors:
		for ; i < len(value); i++ {
			switch value[i] {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			case ',':
				if depth == 0 {
					i++
					break descriptors
				}
			}
		}
	}
	return out
}

// rewriteSrcset substitutes mapped candidate URLs in place. Everything else
// in the value, including unmapped URLs and separators, is kept as written.
func rewriteSrcset(value string, replace map[string]string) string {
	var b strings.Builder
	last := 0
	for _, c := range parseSrcset(value) {
		to, ok := replace[c.url]
		if !ok {
			continue
		}
		b.WriteString(value[last:c.start])
		b.WriteString(to)
		last = c.end
	}
	if last == 0 {
		return value
	}
	b.WriteString(value[last:])
	return b.String()
}

func isSrcsetSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node and whether it was a fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string. Fragments render their
// children only, without an <html><body> wrapper.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
