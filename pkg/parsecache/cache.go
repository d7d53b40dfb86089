// Package parsecache stores parsed books on disk so an EPUB is only parsed
// once per upload. Entries are keyed by book ID and written atomically.
package parsecache

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/novelreader/novelreader/pkg/epub"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// CurrentVersion is bumped whenever the parser output changes in a way that
// should invalidate existing entries.
const CurrentVersion = 1

// entry is the on-disk envelope around a parsed book.
type entry struct {
	Version    int              `json:"version"`
	BookID     int              `json:"book_id"`
	SourcePath string           `json:"source_path"`
	ParsedAt   time.Time        `json:"parsed_at"`
	Book       *epub.ParsedBook `json:"book"`
}

// ParseFunc produces a parsed book from the raw file at path.
type ParseFunc func(ctx context.Context, path string) (*epub.ParsedBook, error)

// Cache manages parsed-book entries under {dir}/parsed.
type Cache struct {
	dir   string
	parse ParseFunc
}

// NewCache creates a Cache rooted at cacheDir that parses misses with
// epub.ParseFile.
func NewCache(cacheDir string) *Cache {
	return NewCacheWithParser(cacheDir, epub.ParseFile)
}

// NewCacheWithParser is NewCache with a custom parser.
func NewCacheWithParser(cacheDir string, parse ParseFunc) *Cache {
	return &Cache{dir: filepath.Join(cacheDir, "parsed"), parse: parse}
}

// Path returns where the entry for bookID lives.
func (c *Cache) Path(bookID int) string {
	return filepath.Join(c.dir, strconv.Itoa(bookID)+".json")
}

// GetOrParse returns the cached parse of the book's file. On a miss (no entry,
// unreadable entry, stale version or a different source file) the file is
// parsed again and the entry rewritten. A failed rewrite is logged and the
// fresh parse is still returned.
func (c *Cache) GetOrParse(ctx context.Context, book *models.Book) (*epub.ParsedBook, error) {
	log := logger.FromContext(ctx)

	parsed, err := c.read(book)
	if err != nil {
		log.Warn("ignoring unreadable parse cache entry", logger.Data{"book_id": book.ID, "error": err.Error()})
	}
	if parsed != nil {
		return parsed, nil
	}

	parsed, err = c.parse(ctx, book.Filepath)
	if err != nil {
		return nil, err
	}

	if err := c.Put(book, parsed); err != nil {
		log.Err(err).Error("failed to write parse cache entry", logger.Data{"book_id": book.ID})
	}

	return parsed, nil
}

// Put writes the entry for book. The file is written next to its final
// location and renamed into place so readers never see a partial entry.
func (c *Cache) Put(book *models.Book, parsed *epub.ParsedBook) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return errors.WithStack(err)
	}

	data, err := json.Marshal(entry{
		Version:    CurrentVersion,
		BookID:     book.ID,
		SourcePath: book.Filepath,
		ParsedAt:   time.Now().UTC(),
		Book:       parsed,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	tmp, err := os.CreateTemp(c.dir, ".parsed-*.tmp")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.Rename(tmpPath, c.Path(book.ID)))
}

// Invalidate removes the entry for bookID. A missing entry is not an error.
func (c *Cache) Invalidate(bookID int) error {
	err := os.Remove(c.Path(bookID))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

// read returns (nil, nil) on a plain miss and (nil, err) when an entry
// exists but can't be used.
func (c *Cache) read(book *models.Book) (*epub.ParsedBook, error) {
	data, err := os.ReadFile(c.Path(book.ID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "decode parse cache entry")
	}
	if e.Version != CurrentVersion || e.BookID != book.ID || e.SourcePath != book.Filepath || e.Book == nil {
		return nil, nil
	}
	return e.Book, nil
}
