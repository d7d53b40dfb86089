package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/novelreader/novelreader/internal/testgen"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name string
	data string
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParse_FullBook(t *testing.T) {
	t.Parallel()

	data := testgen.EPUBBytes(t, testgen.EPUBOptions{
		Title:       "The Left Hand of Darkness",
		Authors:     []string{"Ursula K. Le Guin"},
		Language:    "en",
		Identifier:  "urn:isbn:9780441478125",
		Description: "  A winter planet.  ",
		Chapters: []testgen.ChapterOptions{
			{Title: "A Parade in Erhenrang", Body: "<p>I'll make my report as if I told a story.</p>"},
			{Body: "<h2>Untitled</h2><p>The place inside the blizzard.</p>"},
			{Title: "   ", Body: "<p>Blank title.</p>"},
		},
	})

	book, err := ParseBytes(context.Background(), data)
	require.NoError(t, err)

	require.NotNil(t, book.Metadata.Title)
	assert.Equal(t, "The Left Hand of Darkness", *book.Metadata.Title)
	require.NotNil(t, book.Metadata.Author)
	assert.Equal(t, "Ursula K. Le Guin", *book.Metadata.Author)
	require.NotNil(t, book.Metadata.Language)
	assert.Equal(t, "en", *book.Metadata.Language)
	require.NotNil(t, book.Metadata.Identifier)
	assert.Equal(t, "urn:isbn:9780441478125", *book.Metadata.Identifier)
	require.NotNil(t, book.Metadata.Description)
	assert.Equal(t, "A winter planet.", *book.Metadata.Description)

	require.Len(t, book.Chapters, 3)
	for i, ch := range book.Chapters {
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Title)
	}
	assert.Equal(t, "A Parade in Erhenrang", book.Chapters[0].Title)
	assert.Equal(t, "I'll make my report as if I told a story.", book.Chapters[0].Text)
	assert.Contains(t, book.Chapters[0].HTML, "<p>I'll make my report as if I told a story.</p>")
	assert.Equal(t, "Chapter 2", book.Chapters[1].Title)
	assert.Equal(t, "Untitled\nThe place inside the blizzard.", book.Chapters[1].Text)
	assert.Equal(t, "Chapter 3", book.Chapters[2].Title)
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	data := testgen.EPUBBytes(t, testgen.EPUBOptions{
		Title: "Twice",
		Chapters: []testgen.ChapterOptions{
			{Title: "One", Body: "<p>a <b>b</b> c</p>"},
			{Title: "Two", Body: "<div>d</div>"},
		},
	})

	first, err := ParseBytes(context.Background(), data)
	require.NoError(t, err)
	second, err := ParseBytes(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_MetadataFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("contributor when there is no creator", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{
			Title:        "Anthology",
			Contributors: []string{"Editor Person"},
		})
		md, err := ParseMetadata(data)
		require.NoError(t, err)
		require.NotNil(t, md.Author)
		assert.Equal(t, "Editor Person", *md.Author)
	})

	t.Run("subject when there is no description", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{
			Subjects: []string{"Science Fiction", "Classics"},
		})
		md, err := ParseMetadata(data)
		require.NoError(t, err)
		require.NotNil(t, md.Description)
		assert.Equal(t, "Science Fiction", *md.Description)
	})

	t.Run("metadata without namespace", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{
			Title:         "Plain",
			Authors:       []string{"Nobody"},
			NoDCNamespace: true,
		})
		md, err := ParseMetadata(data)
		require.NoError(t, err)
		require.NotNil(t, md.Title)
		assert.Equal(t, "Plain", *md.Title)
		require.NotNil(t, md.Author)
		assert.Equal(t, "Nobody", *md.Author)
	})

	t.Run("absent fields stay nil", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{})
		md, err := ParseMetadata(data)
		require.NoError(t, err)
		assert.Nil(t, md.Title)
		assert.Nil(t, md.Author)
		assert.Nil(t, md.Language)
		assert.Nil(t, md.Identifier)
		assert.Nil(t, md.Description)
	})
}

func TestParse_ContainerResolution(t *testing.T) {
	t.Parallel()

	t.Run("package at the archive root", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Root", PackagePath: "content.opf"})
		book, err := ParseBytes(context.Background(), data)
		require.NoError(t, err)
		require.NotNil(t, book.Metadata.Title)
		assert.Equal(t, "Root", *book.Metadata.Title)
		assert.Len(t, book.Chapters, 1)
	})

	t.Run("missing container falls back to OEBPS/content.opf", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Fallback", OmitContainer: true})
		book, err := ParseBytes(context.Background(), data)
		require.NoError(t, err)
		require.NotNil(t, book.Metadata.Title)
		assert.Equal(t, "Fallback", *book.Metadata.Title)
	})

	t.Run("missing container and no package at the fallback path", func(t *testing.T) {
		t.Parallel()
		data := testgen.EPUBBytes(t, testgen.EPUBOptions{OmitContainer: true, PackagePath: "book/package.opf"})
		_, err := ParseBytes(context.Background(), data)
		require.ErrorIs(t, err, ErrMalformedContainer)
	})

	t.Run("garbage container falls back", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t,
			zipEntry{"META-INF/container.xml", "<<<not xml"},
			zipEntry{"OEBPS/content.opf", `<package><metadata><title>Recovered</title></metadata><manifest/><spine/></package>`},
		)
		book, err := ParseBytes(context.Background(), data)
		require.NoError(t, err)
		require.NotNil(t, book.Metadata.Title)
		assert.Equal(t, "Recovered", *book.Metadata.Title)
		assert.Empty(t, book.Chapters)
	})

	t.Run("container points at a missing package", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t,
			zipEntry{"META-INF/container.xml", `<container><rootfiles><rootfile full-path="nope.opf"/></rootfiles></container>`},
		)
		_, err := ParseBytes(context.Background(), data)
		require.ErrorIs(t, err, ErrMalformedContainer)
	})

	t.Run("case-insensitive entry lookup", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t,
			zipEntry{"META-INF/container.xml", `<container><rootfiles><rootfile full-path="OEBPS/Content.opf"/></rootfiles></container>`},
			zipEntry{"OEBPS/content.opf", `<package><metadata/><manifest><item id="a" href="Text/One.xhtml"/></manifest><spine><itemref idref="a"/></spine></package>`},
			zipEntry{"OEBPS/text/one.xhtml", `<html><body><p>found</p></body></html>`},
		)
		book, err := ParseBytes(context.Background(), data)
		require.NoError(t, err)
		require.Len(t, book.Chapters, 1)
		assert.Equal(t, "found", book.Chapters[0].Text)
	})
}

func TestParse_SpineOrder(t *testing.T) {
	t.Parallel()

	data := buildZip(t,
		zipEntry{"META-INF/container.xml", `<container><rootfiles><rootfile full-path="OPS/package.opf"/></rootfiles></container>`},
		zipEntry{"OPS/package.opf", `<package xmlns="http://www.idpf.org/2007/opf">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Order</dc:title></metadata>
  <manifest>
    <item id="a" href="xhtml/a.xhtml"/>
    <item id="b" href="xhtml/b.xhtml#start"/>
    <item id="c" href="xhtml/c%20d.xhtml"/>
  </manifest>
  <spine>
    <itemref idref="c"/>
    <itemref idref="a"/>
    <itemref idref="b" linear="no"/>
  </spine>
</package>`},
		zipEntry{"OPS/xhtml/a.xhtml", `<html><head><title>A</title></head><body>a</body></html>`},
		zipEntry{"OPS/xhtml/b.xhtml", `<html><head><title>B</title></head><body>b</body></html>`},
		zipEntry{"OPS/xhtml/c d.xhtml", `<html><head><title>C</title></head><body>c</body></html>`},
	)

	book, err := ParseBytes(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, book.Chapters, 3)
	assert.Equal(t, "C", book.Chapters[0].Title)
	assert.Equal(t, "A", book.Chapters[1].Title)
	assert.Equal(t, "B", book.Chapters[2].Title)
	assert.Equal(t, 2, book.Chapters[2].Index)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{
			name: "not a zip",
			data: func(_ *testing.T) []byte { return []byte("definitely not an epub") },
		},
		{
			name: "empty input",
			data: func(_ *testing.T) []byte { return []byte{} },
		},
		{
			name: "spine file missing from the archive",
			data: func(t *testing.T) []byte {
				return testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Broken", MissingSpineFile: true})
			},
		},
		{
			name: "spine idref missing from the manifest",
			data: func(t *testing.T) []byte {
				return testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Broken", UnknownSpineRef: true})
			},
		},
		{
			name: "package document isn't xml",
			data: func(t *testing.T) []byte {
				return buildZip(t, zipEntry{"OEBPS/content.opf", "plain text"})
			},
		},
		{
			name: "package without spine",
			data: func(t *testing.T) []byte {
				return buildZip(t, zipEntry{"OEBPS/content.opf", "<package><metadata/></package>"})
			},
		},
		{
			name: "href escapes the archive",
			data: func(t *testing.T) []byte {
				return buildZip(t, zipEntry{"OEBPS/content.opf", `<package><manifest><item id="x" href="../../etc/passwd"/></manifest><spine><itemref idref="x"/></spine></package>`})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			book, err := ParseBytes(context.Background(), tt.data(t))
			require.ErrorIs(t, err, ErrMalformedContainer)
			assert.Nil(t, book)
		})
	}
}

func TestParseMetadata_IgnoresBrokenSpine(t *testing.T) {
	t.Parallel()

	data := testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Still Readable", MissingSpineFile: true})
	md, err := ParseMetadata(data)
	require.NoError(t, err)
	require.NotNil(t, md.Title)
	assert.Equal(t, "Still Readable", *md.Title)

	_, err = ParseMetadata([]byte("nope"))
	require.ErrorIs(t, err, ErrMalformedContainer)
}

func TestParse_CancelledContext(t *testing.T) {
	t.Parallel()

	data := testgen.EPUBBytes(t, testgen.EPUBOptions{Title: "Cancelled"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseBytes(ctx, data)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testgen.GenerateEPUB(t, dir, "book.epub", testgen.EPUBOptions{Title: "On Disk"})

	book, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, book.Metadata.Title)
	assert.Equal(t, "On Disk", *book.Metadata.Title)

	_, err = ParseFile(context.Background(), dir+"/missing.epub")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedContainer)
}

func TestParsedBook_ChapterTitle(t *testing.T) {
	t.Parallel()

	book := &ParsedBook{Chapters: []Chapter{{Index: 0, Title: "Intro"}, {Index: 1, Title: "Outro"}}}

	title, ok := book.ChapterTitle(1)
	assert.True(t, ok)
	assert.Equal(t, "Outro", title)

	_, ok = book.ChapterTitle(2)
	assert.False(t, ok)
	_, ok = book.ChapterTitle(-1)
	assert.False(t, ok)

	var missing *ParsedBook
	_, ok = missing.ChapterTitle(0)
	assert.False(t, ok)
}

func TestResolveHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkgPath  string
		href     string
		expected string
	}{
		{"OEBPS/content.opf", "chapter1.xhtml", "OEBPS/chapter1.xhtml"},
		{"OEBPS/content.opf", "Text/ch%201.xhtml", "OEBPS/Text/ch 1.xhtml"},
		{"OEBPS/content.opf", "ch.xhtml#frag", "OEBPS/ch.xhtml"},
		{"OEBPS/content.opf", "../shared/ch.xhtml", "shared/ch.xhtml"},
		{"content.opf", "ch.xhtml", "ch.xhtml"},
		{"OEBPS/content.opf", "../../escape.xhtml", ""},
		{"OEBPS/content.opf", "/abs.xhtml", ""},
		{"OEBPS/content.opf", "http://example.com/x.xhtml", ""},
		{"OEBPS/content.opf", "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, resolveHref(tt.pkgPath, tt.href), tt.href)
	}
}

func TestMalformedDetail(t *testing.T) {
	t.Parallel()

	_, err := ParseBytes(context.Background(), testgen.EPUBBytes(t, testgen.EPUBOptions{UnknownSpineRef: true}))
	require.Error(t, err)
	detail := MalformedDetail(errors.WithStack(err))
	assert.Contains(t, detail, "is not in the manifest")
	assert.NotContains(t, detail, ErrMalformedContainer.Error())

	assert.Equal(t, "", MalformedDetail(errors.New("other")))
}
