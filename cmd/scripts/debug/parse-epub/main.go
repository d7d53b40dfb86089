package main

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/jessevdk/go-flags"
	"github.com/novelreader/novelreader/pkg/epub"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

type chapterSummary struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Chars int    `json:"chars"`
}

type summary struct {
	Metadata epub.Metadata    `json:"metadata"`
	Chapters []chapterSummary `json:"chapters"`
	Preview  string           `json:"preview,omitempty"`
}

func main() {
	log := logger.New()

	var opts struct {
		Preview int  `short:"p" long:"preview" description:"Include a preview of this many characters"`
		Full    bool `short:"f" long:"full" description:"Print every chapter's HTML and text instead of a summary"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-epub [--preview N] [--full] <path/to/file.epub>")
		os.Exit(1)
	}

	book, err := epub.ParseFile(context.Background(), args[0])
	if err != nil {
		log.Err(err).Fatal("epub parse error")
	}

	var out interface{} = book
	if !opts.Full {
		s := summary{
			Metadata: book.Metadata,
			Chapters: make([]chapterSummary, 0, len(book.Chapters)),
			Preview:  epub.GeneratePreview(book, opts.Preview),
		}
		for _, ch := range book.Chapters {
			s.Chapters = append(s.Chapters, chapterSummary{
				Index: ch.Index,
				Title: ch.Title,
				Chars: utf8.RuneCountInString(ch.Text),
			})
		}
		out = s
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Err(err).Fatal("json marshal error")
	}
	fmt.Println(string(data))
}
