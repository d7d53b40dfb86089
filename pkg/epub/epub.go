// Package epub reads EPUB archives into a chaptered, plain-text friendly
// representation. It resolves the package document through
// META-INF/container.xml, extracts Dublin Core metadata and walks the spine
// to produce one Chapter per spine entry.
package epub

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedContainer is returned (wrapped) when the input isn't a zip
// archive, the package document can't be found or parsed, or a spine entry
// can't be resolved to a file in the archive. No partial result is returned
// alongside it.
var ErrMalformedContainer = errors.New("malformed epub container")

// Metadata is the descriptive metadata of a book. A nil field means the
// package document doesn't carry a usable value; nothing is made up.
type Metadata struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	Language    *string `json:"language,omitempty"`
	Identifier  *string `json:"identifier,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Chapter is a single spine entry. Index is its 0-based position in the
// spine, Title is never empty, HTML is the raw markup and Text the extracted
// plain text that character offsets refer to.
type Chapter struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	Text  string `json:"text"`
}

// ParsedBook is the result of a full parse.
type ParsedBook struct {
	Metadata Metadata  `json:"metadata"`
	Chapters []Chapter `json:"chapters"`
}

// ChapterTitle returns the title of the chapter at index, and false when the
// index is out of range.
func (b *ParsedBook) ChapterTitle(index int) (string, bool) {
	if b == nil || index < 0 || index >= len(b.Chapters) {
		return "", false
	}
	return b.Chapters[index].Title, true
}

// Parse reads the whole book: metadata plus every spine entry, in order.
func Parse(ctx context.Context, r io.ReaderAt, size int64) (*ParsedBook, error) {
	a, err := openArchive(r, size)
	if err != nil {
		return nil, err
	}

	pkgPath, err := resolvePackagePath(a)
	if err != nil {
		return nil, err
	}

	pkg, err := readPackage(a, pkgPath)
	if err != nil {
		return nil, err
	}

	spine, err := pkg.resolveSpine(a)
	if err != nil {
		return nil, err
	}

	chapters, err := extractChapters(ctx, a, spine)
	if err != nil {
		return nil, err
	}

	return &ParsedBook{
		Metadata: pkg.metadata(),
		Chapters: chapters,
	}, nil
}

// ParseBytes is Parse over an in-memory file.
func ParseBytes(ctx context.Context, data []byte) (*ParsedBook, error) {
	return Parse(ctx, bytes.NewReader(data), int64(len(data)))
}

// ParseFile is Parse over a file on disk.
func ParseFile(ctx context.Context, path string) (*ParsedBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	stats, err := f.Stat()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return Parse(ctx, f, stats.Size())
}

// ParseMetadata only reads the package metadata, so it succeeds for books
// whose spine is broken. Used to pre-fill upload forms.
func ParseMetadata(data []byte) (*Metadata, error) {
	a, err := openArchive(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pkgPath, err := resolvePackagePath(a)
	if err != nil {
		return nil, err
	}

	pkg, err := readPackage(a, pkgPath)
	if err != nil {
		return nil, err
	}

	md := pkg.metadata()
	return &md, nil
}

// MalformedDetail returns what was wrong with the container, without the
// sentinel's own text. It returns "" for errors that aren't malformed
// container errors.
func MalformedDetail(err error) string {
	if !errors.Is(err, ErrMalformedContainer) {
		return ""
	}
	return strings.TrimSuffix(err.Error(), ": "+ErrMalformedContainer.Error())
}

func malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedContainer, format, args...)
}
