package epub

import (
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

const (
	containerPath = "META-INF/container.xml"
	// fallbackPackagePath is where most EPUB 2 producers put the package
	// document, and is tried when container.xml is absent or unusable.
	fallbackPackagePath = "OEBPS/content.opf"
)

// resolvePackagePath returns the archive path of the package document: the
// full-path of the first usable rootfile in container.xml, or the fallback
// location. The returned path is guaranteed to exist in the archive.
func resolvePackagePath(a *archive) (string, error) {
	pkgPath := rootfileFromContainer(a)
	if pkgPath == "" {
		pkgPath = fallbackPackagePath
	}

	f := a.find(pkgPath)
	if f == nil {
		return "", malformed("package document %q not found", pkgPath)
	}
	return f.Name, nil
}

// rootfileFromContainer returns "" when container.xml is missing, can't be
// parsed or doesn't name a rootfile.
func rootfileFromContainer(a *archive) string {
	f := a.find(containerPath)
	if f == nil {
		return ""
	}
	data, err := readEntry(f, maxEntrySize)
	if err != nil {
		return ""
	}

	doc, err := readXML(data)
	if err != nil {
		return ""
	}

	for _, el := range descendants(doc.Root()) {
		if el.Tag != "rootfile" {
			continue
		}
		if p := strings.TrimSpace(el.SelectAttrValue("full-path", "")); p != "" {
			return p
		}
	}
	return ""
}

// readXML parses an XML document leniently: unknown entities and odd
// encodings declared in the prolog are tolerated.
func readXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(stripBOM(data)); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, malformed("empty xml document")
	}
	return doc, nil
}

// descendants returns every element below el in document order.
func descendants(el *etree.Element) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		out = append(out, child)
		out = append(out, descendants(child)...)
	}
	return out
}
