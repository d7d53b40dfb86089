package epub

import (
	"strings"

	"github.com/beevik/etree"
)

const dcNamespace = "http://purl.org/dc/elements/1.1/"

type packageDocument struct {
	path string
	root *etree.Element
}

func readPackage(a *archive, pkgPath string) (*packageDocument, error) {
	data, err := a.read(pkgPath)
	if err != nil {
		return nil, err
	}

	doc, err := readXML(data)
	if err != nil {
		return nil, malformed("parse package document %q: %v", pkgPath, err)
	}

	return &packageDocument{path: pkgPath, root: doc.Root()}, nil
}

func (p *packageDocument) metadata() Metadata {
	scope := p.child("metadata")
	if scope == nil {
		scope = p.root
	}

	return Metadata{
		Title:       dcText(scope, "title"),
		Author:      dcText(scope, "creator", "contributor"),
		Language:    dcText(scope, "language"),
		Identifier:  dcText(scope, "identifier"),
		Description: dcText(scope, "description", "subject"),
	}
}

// resolveSpine maps the spine's itemrefs through the manifest to archive
// paths. Every itemref has to resolve to an entry that exists.
func (p *packageDocument) resolveSpine(a *archive) ([]string, error) {
	hrefs := map[string]string{}
	if manifest := p.child("manifest"); manifest != nil {
		for _, item := range manifest.ChildElements() {
			if item.Tag != "item" {
				continue
			}
			id := strings.TrimSpace(item.SelectAttrValue("id", ""))
			if id != "" {
				hrefs[id] = item.SelectAttrValue("href", "")
			}
		}
	}

	spine := p.child("spine")
	if spine == nil {
		return nil, malformed("package document %q has no spine", p.path)
	}

	var paths []string
	for _, ref := range spine.ChildElements() {
		if ref.Tag != "itemref" {
			continue
		}
		idref := strings.TrimSpace(ref.SelectAttrValue("idref", ""))
		href, ok := hrefs[idref]
		if !ok {
			return nil, malformed("spine item %q is not in the manifest", idref)
		}
		resolved := resolveHref(p.path, href)
		if resolved == "" {
			return nil, malformed("spine item %q has an invalid href %q", idref, href)
		}
		f := a.find(resolved)
		if f == nil {
			return nil, malformed("spine item %q points at missing file %q", idref, resolved)
		}
		paths = append(paths, f.Name)
	}
	return paths, nil
}

func (p *packageDocument) child(tag string) *etree.Element {
	for _, el := range p.root.ChildElements() {
		if el.Tag == tag {
			return el
		}
	}
	return nil
}

// dcText returns the trimmed text of the first non-blank element matching
// one of names, trying each name in turn. For each name, Dublin Core
// namespaced elements are preferred, then any element with that local name
// so that packages with missing namespace declarations still work.
func dcText(scope *etree.Element, names ...string) *string {
	elements := descendants(scope)
	for _, name := range names {
		if v := firstText(elements, name, true); v != nil {
			return v
		}
		if v := firstText(elements, name, false); v != nil {
			return v
		}
	}
	return nil
}

func firstText(elements []*etree.Element, name string, requireDC bool) *string {
	for _, el := range elements {
		if el.Tag != name {
			continue
		}
		if requireDC && el.NamespaceURI() != dcNamespace {
			continue
		}
		text := strings.TrimSpace(innerText(el))
		if text != "" {
			return &text
		}
	}
	return nil
}

func innerText(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			b.WriteString(innerText(t))
		}
	}
	return b.String()
}
