package htmlutil

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// blockTags start a new line in the extracted text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// skipTags are dropped along with everything inside them.
var skipTags = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"template": true,
}

// StripTags converts an (X)HTML document or fragment to plain text. Block
// elements become line breaks, entities are decoded, runs of whitespace are
// collapsed and blank lines are dropped. The output only depends on the
// input, so the same chapter always yields the same text and offsets into it
// stay stable.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	skipDepth := 0
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return normalizeLines(b.String())
		case html.TextToken:
			if skipDepth == 0 {
				writeCollapsed(&b, string(z.Text()))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			if tt == html.SelfClosingTagToken {
				// XHTML allows <script/> and <title/>, which would otherwise
				// swallow the rest of the document as raw text.
				z.NextIsNotRawText()
			}
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth == 0 && blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth == 0 && blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

// ExtractTitle returns the trimmed text of the first <title> element, or ""
// when there is none.
func ExtractTitle(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	inTitle := false
	var b strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.SelfClosingTagToken:
			z.NextIsNotRawText()
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && string(name) == "title" {
				return strings.Join(strings.Fields(b.String()), " ")
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

// writeCollapsed writes text with interior whitespace (including source line
// breaks) reduced to single spaces, keeping a boundary space on either side so
// inline elements don't glue words together.
func writeCollapsed(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	fields := strings.FieldsFunc(text, unicode.IsSpace)
	if unicode.IsSpace(firstRune(text)) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(fields, " "))
	if len(fields) > 0 && unicode.IsSpace(lastRune(text)) {
		b.WriteByte(' ')
	}
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}
