package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"testing"
)

// GenerateEPUB writes an EPUB built from opts to dir/filename and returns
// its path.
func GenerateEPUB(t *testing.T, dir, filename string, opts EPUBOptions) string {
	t.Helper()
	return WriteFile(t, dir, filename, EPUBBytes(t, opts))
}

// EPUBBytes builds an EPUB in memory.
func EPUBBytes(t *testing.T, opts EPUBOptions) []byte {
	t.Helper()

	pkgPath := opts.PackagePath
	if pkgPath == "" {
		pkgPath = "OEBPS/content.opf"
	}
	pkgDir := path.Dir(pkgPath)

	chapters := opts.Chapters
	if len(chapters) == 0 {
		chapters = []ChapterOptions{{Title: "Chapter 1", Body: "<p>This is a test chapter.</p>"}}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be first and uncompressed.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype entry: %v", err)
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("failed to write mimetype: %v", err)
	}

	if !opts.OmitContainer {
		containerXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`, pkgPath)
		if err := writeZipFile(zw, "META-INF/container.xml", []byte(containerXML)); err != nil {
			t.Fatalf("failed to write container.xml: %v", err)
		}
	}

	if err := writeZipFile(zw, pkgPath, []byte(generateOPF(opts, len(chapters)))); err != nil {
		t.Fatalf("failed to write package document: %v", err)
	}

	for i, ch := range chapters {
		name := path.Join(pkgDir, fmt.Sprintf("chapter%d.xhtml", i+1))
		if err := writeZipFile(zw, name, []byte(chapterXHTML(ch))); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func chapterXHTML(ch ChapterOptions) string {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
`)
	if ch.Title != "" {
		buf.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(ch.Title)))
	}
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(ch.Body)
	buf.WriteString("\n</body>\n</html>")
	return buf.String()
}

func generateOPF(opts EPUBOptions, chapterCount int) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package version="3.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
`)
	prefix := "dc:"
	if opts.NoDCNamespace {
		prefix = ""
		buf.WriteString("  <metadata>\n")
	} else {
		buf.WriteString(`  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">` + "\n")
	}

	element := func(name, value string) {
		buf.WriteString(fmt.Sprintf("    <%s%s>%s</%s%s>\n", prefix, name, escapeXML(value), prefix, name))
	}

	if opts.Title != "" {
		element("title", opts.Title)
	}
	for _, author := range opts.Authors {
		element("creator", author)
	}
	for _, contributor := range opts.Contributors {
		element("contributor", contributor)
	}
	if opts.Identifier != "" {
		element("identifier", opts.Identifier)
	}
	if opts.Language != "" {
		element("language", opts.Language)
	}
	if opts.Description != "" {
		element("description", opts.Description)
	}
	for _, subject := range opts.Subjects {
		element("subject", subject)
	}
	buf.WriteString("  </metadata>\n")

	buf.WriteString("  <manifest>\n")
	for i := 1; i <= chapterCount; i++ {
		buf.WriteString(fmt.Sprintf("    <item id=\"chapter%d\" href=\"chapter%d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", i, i))
	}
	if opts.MissingSpineFile {
		buf.WriteString("    <item id=\"missing\" href=\"missing.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	}
	buf.WriteString("  </manifest>\n")

	buf.WriteString("  <spine>\n")
	for i := 1; i <= chapterCount; i++ {
		buf.WriteString(fmt.Sprintf("    <itemref idref=\"chapter%d\"/>\n", i))
	}
	if opts.MissingSpineFile {
		buf.WriteString("    <itemref idref=\"missing\"/>\n")
	}
	if opts.UnknownSpineRef {
		buf.WriteString("    <itemref idref=\"nowhere\"/>\n")
	}
	buf.WriteString("  </spine>\n")

	buf.WriteString("</package>")

	return buf.String()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
