package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text no tags",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "simple paragraph",
			input:    "<p>Hello world</p>",
			expected: "Hello world",
		},
		{
			name:     "multiple paragraphs",
			input:    "<p>First paragraph</p><p>Second paragraph</p>",
			expected: "First paragraph\nSecond paragraph",
		},
		{
			name:     "div with content",
			input:    "<div>Content here</div>",
			expected: "Content here",
		},
		{
			name:     "nested tags",
			input:    "<p><strong>Bold</strong> and <em>italic</em></p>",
			expected: "Bold and italic",
		},
		{
			name:     "br tags",
			input:    "Line one<br>Line two<br/>Line three<br />Line four",
			expected: "Line one\nLine two\nLine three\nLine four",
		},
		{
			name:     "tags with attributes",
			input:    `<p style="font-weight: 600">Styled text</p>`,
			expected: "Styled text",
		},
		{
			name:     "complex html from screenshot",
			input:    `<div><p style="font-weight: 600">The apocalypse <em>will</em> be televised!</p><p>A man. His ex-girlfriend's cat.</p></div>`,
			expected: "The apocalypse will be televised!\nA man. His ex-girlfriend's cat.",
		},
		{
			name:     "html entities",
			input:    "Tom &amp; Jerry &mdash; the classic",
			expected: "Tom & Jerry \u2014 the classic",
		},
		{
			name:     "multiple spaces collapsed",
			input:    "Too    many    spaces",
			expected: "Too many spaces",
		},
		{
			name:     "list items",
			input:    "<ul><li>Item one</li><li>Item two</li></ul>",
			expected: "Item one\nItem two",
		},
		{
			name:     "headings",
			input:    "<h1>Title</h1><p>Content</p>",
			expected: "Title\nContent",
		},
		{
			name:     "nbsp entity",
			input:    "Hello&nbsp;world",
			expected: "Hello world",
		},
		{
			name:     "quotes entities",
			input:    "&ldquo;Hello&rdquo; said the &lsquo;man&rsquo;",
			expected: "\u201CHello\u201D said the \u2018man\u2019",
		},
		{
			name:     "self-closing tags",
			input:    "Text <img src='test.jpg'/> more text",
			expected: "Text more text",
		},
		{
			name:     "source line breaks inside a paragraph",
			input:    "<p>Call me\n   Ishmael.</p>",
			expected: "Call me Ishmael.",
		},
		{
			name:     "head script and style are dropped",
			input:    `<html><head><title>Chapter 1</title><style>p { color: red; }</style></head><body><script>alert(1)</script><p>Body</p></body></html>`,
			expected: "Body",
		},
		{
			name:     "xhtml document",
			input:    `<?xml version="1.0" encoding="UTF-8"?><!DOCTYPE html><html xmlns="http://www.w3.org/1999/xhtml"><body><h2>One</h2><p>It was a dark &amp; stormy night.</p></body></html>`,
			expected: "One\nIt was a dark & stormy night.",
		},
		{
			name:     "self-closing script in xhtml head",
			input:    `<html><head><title/><script src="a.js"/></head><body><p>Still here</p></body></html>`,
			expected: "Still here",
		},
		{
			name:     "numeric entities",
			input:    "&#60;tag&#62; &#8220;quoted&#8221;",
			expected: "<tag> \u201Cquoted\u201D",
		},
		{
			name:     "preserves content between inline tags",
			input:    "This is <strong>very</strong> important",
			expected: "This is very important",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := StripTags(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "title in head",
			input:    `<html><head><title>  The Boy Who Lived </title></head><body><p>x</p></body></html>`,
			expected: "The Boy Who Lived",
		},
		{
			name:     "entities and whitespace",
			input:    "<title>Salt\n &amp; Pepper</title>",
			expected: "Salt & Pepper",
		},
		{
			name:     "no title",
			input:    "<html><body><h1>Heading</h1></body></html>",
			expected: "",
		},
		{
			name:     "empty title",
			input:    "<html><head><title></title></head></html>",
			expected: "",
		},
		{
			name:     "self-closing title",
			input:    "<html><head><title/></head><body>text</body></html>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ExtractTitle(tt.input))
		})
	}
}

func TestStripTags_Deterministic(t *testing.T) {
	t.Parallel()

	input := `<body><p>One <em>two</em></p><div>three<br/>four</div></body>`
	assert.Equal(t, StripTags(input), StripTags(input))
	assert.Equal(t, "One two\nthree\nfour", StripTags(input))
}
