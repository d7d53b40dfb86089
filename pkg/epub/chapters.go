package epub

import (
	"context"
	"strconv"

	"github.com/novelreader/novelreader/pkg/htmlutil"
	"github.com/pkg/errors"
)

// extractChapters reads every spine entry in order. Any failure aborts the
// whole extraction.
func extractChapters(ctx context.Context, a *archive, spine []string) ([]Chapter, error) {
	chapters := make([]Chapter, 0, len(spine))
	for i, p := range spine {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}

		data, err := a.read(p)
		if err != nil {
			return nil, err
		}

		markup := string(stripBOM(data))
		title := htmlutil.ExtractTitle(markup)
		if title == "" {
			title = defaultChapterTitle(i)
		}

		chapters = append(chapters, Chapter{
			Index: i,
			Title: title,
			HTML:  markup,
			Text:  htmlutil.StripTags(markup),
		})
	}
	return chapters, nil
}

func defaultChapterTitle(index int) string {
	return "Chapter " + strconv.Itoa(index+1)
}
