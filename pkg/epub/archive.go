package epub

import (
	"archive/zip"
	"io"
	"net/url"
	"path"
	"strings"
)

// maxEntrySize caps the decompressed size of any single archive entry.
const maxEntrySize int64 = 256 * 1024 * 1024

type archive struct {
	zr *zip.Reader
}

func openArchive(r io.ReaderAt, size int64) (*archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, malformed("not a zip archive: %v", err)
	}
	return &archive{zr: zr}, nil
}

// find looks an entry up by exact name, then case-insensitively.
func (a *archive) find(name string) *zip.File {
	for _, f := range a.zr.File {
		if f.Name == name {
			return f
		}
	}
	for _, f := range a.zr.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// read returns the contents of the named entry. A missing, oversized or
// unreadable entry is a malformed container.
func (a *archive) read(name string) ([]byte, error) {
	f := a.find(name)
	if f == nil {
		return nil, malformed("missing entry %q", name)
	}
	return readEntry(f, maxEntrySize)
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, malformed("entry %q is too large", f.Name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, malformed("open entry %q: %v", f.Name, err)
	}
	defer rc.Close()

	// The declared size can lie, so read one byte past the limit to notice.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, malformed("read entry %q: %v", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, malformed("entry %q is too large", f.Name)
	}
	return data, nil
}

// resolveHref resolves a manifest href against the directory of the package
// document. Fragments and percent-encoding are stripped. An empty string is
// returned for hrefs that are absolute or climb out of the archive root.
func resolveHref(pkgPath, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if href == "" || strings.HasPrefix(href, "/") || strings.Contains(href, "://") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}

	resolved := path.Clean(path.Join(path.Dir(pkgPath), href))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return ""
	}
	return resolved
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
