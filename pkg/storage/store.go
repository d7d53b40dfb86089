// Package storage keeps uploaded book files on disk under a per-owner
// directory.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// ErrNotZip is returned by Save when the upload doesn't look like a zip
// archive. Nothing is written in that case.
var ErrNotZip = errors.New("file is not a zip archive")

// ErrNameTaken is returned by Save when every suffixed variant of the stored
// name is already in use.
var ErrNameTaken = errors.New("no free file name")

// sniffSize is how much of the upload is inspected before anything is
// written.
const sniffSize = 3072

// maxNameSuffix bounds the _N suffixes tried for a taken name.
const maxNameSuffix = 1000

// Stored describes a file written by Save.
type Stored struct {
	Path string
	Size int64
}

type Store struct {
	dir string
	now func() time.Time
}

func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir is the root storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName builds the stored name for an upload: the upload time in unix
// milliseconds followed by the slugged original name.
func FileName(original string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	name := slug.Make(base)
	if name == "" {
		name = "book"
	}
	return fmt.Sprintf("%d_%s.epub", at.UnixMilli(), name)
}

// Save streams r into {dir}/{ownerID}/{millis}_{slug}.epub. The content is
// staged under a temporary name and only renamed into place once fully
// written. A name that's already taken gets a numeric suffix; names are
// claimed with a hard link so concurrent saves never replace each other.
func (s *Store) Save(ctx context.Context, ownerID int, original string, r io.Reader) (*Stored, error) {
	head := make([]byte, sniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.WithStack(err)
	}
	head = head[:n]
	if !isZip(head) {
		return nil, errors.WithStack(ErrNotZip)
	}

	ownerDir := filepath.Join(s.dir, strconv.Itoa(ownerID))
	if err := os.MkdirAll(ownerDir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	staging := filepath.Join(ownerDir, ".upload-"+uuid.NewString())
	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer os.Remove(staging)

	size, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		f.Close()
		return nil, errors.WithStack(err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.WithStack(err)
	}

	target, err := claim(staging, filepath.Join(ownerDir, FileName(original, s.now())))
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("stored upload", logger.Data{"path": target, "size": size})

	return &Stored{Path: target, Size: size}, nil
}

// Remove deletes a stored file. A file that's already gone is not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

func isZip(head []byte) bool {
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

// claim links staging to path, or to the first free path_N variant, and
// returns the name it got. os.Link fails instead of replacing an existing
// file.
func claim(staging, path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	candidate := path
	for i := 1; i <= maxNameSuffix; i++ {
		err := os.Link(staging, candidate)
		if err == nil {
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", errors.WithStack(err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	return "", errors.Wrapf(ErrNameTaken, "%s", path)
}
