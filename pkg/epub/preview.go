package epub

import "strings"

// GeneratePreview returns the opening of the book: chapter texts joined by
// newlines, cut off after maxChars characters (runes). The result is never
// longer than maxChars; a non-positive budget or a book without chapters
// yields "".
func GeneratePreview(book *ParsedBook, maxChars int) string {
	if book == nil || maxChars <= 0 || len(book.Chapters) == 0 {
		return ""
	}

	var b strings.Builder
	remaining := maxChars
	for i, ch := range book.Chapters {
		if i > 0 {
			if remaining == 0 {
				break
			}
			b.WriteByte('\n')
			remaining--
		}

		text := []rune(ch.Text)
		if len(text) > remaining {
			text = text[:remaining]
		}
		b.WriteString(string(text))
		remaining -= len(text)
	}
	return b.String()
}
