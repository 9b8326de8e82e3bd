// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon

import (
	"fmt"
	"strings"
)

// Segment is one part of a template: either literal text or a named
// field to be filled in from an event's properties.
type Segment struct {
	text   string
	field  bool
	format string
}

// Literal returns a literal text segment.
func Literal(text string) Segment { return Segment{text: text} }

// Field returns a field segment that renders the property named name.
func Field(name string) Segment { return Segment{text: name, field: true} }

// FieldFormat returns a field segment carrying a format hint for
// renderers that understand one.
func FieldFormat(name, format string) Segment {
	return Segment{text: name, field: true, format: format}
}

// IsField reports whether the segment is a field rather than a literal.
func (s Segment) IsField() bool { return s.field }

// Text returns the literal text, or the field name for field segments.
func (s Segment) Text() string { return s.text }

// Format returns the field's format hint, if any.
func (s Segment) Format() string { return s.format }

// Template is a parsed message template: an ordered sequence of literal
// and field segments. Templates are immutable once constructed.
type Template struct {
	segs []Segment
}

// NewTemplate builds a template directly from segments. This is the
// entry point used by capture front-ends that parse at compile time.
func NewTemplate(segs ...Segment) Template {
	return Template{segs: segs}
}

// ParseTemplate parses a template string. Fields are written {name},
// optionally with a format hint as {name:hint}. Doubled braces escape
// literal braces.
func ParseTemplate(s string) (Template, error) {
	var (
		segs []Segment
		lit  strings.Builder
	)
	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("beacon: unclosed field at offset %d in %q", i, s)
			}
			end += i
			name, format := s[i+1:end], ""
			if j := strings.IndexByte(name, ':'); j >= 0 {
				name, format = name[:j], name[j+1:]
			}
			if name == "" {
				return Template{}, fmt.Errorf("beacon: empty field name at offset %d in %q", i, s)
			}
			if lit.Len() > 0 {
				segs = append(segs, Literal(lit.String()))
				lit.Reset()
			}
			segs = append(segs, FieldFormat(name, format))
			i = end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return Template{}, fmt.Errorf("beacon: unmatched '}' at offset %d in %q", i, s)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	if lit.Len() > 0 {
		segs = append(segs, Literal(lit.String()))
	}
	return Template{segs: segs}, nil
}

// MustParseTemplate is ParseTemplate that panics on a malformed
// template. Intended for templates fixed at the call site.
func MustParseTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Segments returns the parsed segments in order.
func (t Template) Segments() []Segment { return t.segs }

// Raw reconstructs the template's source text.
func (t Template) Raw() string {
	var b strings.Builder
	for _, s := range t.segs {
		if !s.field {
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s.text, "{", "{{"), "}", "}}"))
			continue
		}
		b.WriteByte('{')
		b.WriteString(s.text)
		if s.format != "" {
			b.WriteByte(':')
			b.WriteString(s.format)
		}
		b.WriteByte('}')
	}
	return b.String()
}

// Render substitutes each field with the first property matching its
// name. A field with no matching property renders as the field name in
// back-ticks, marking a late-bound or missing value without failing.
func (t Template) Render(props Properties) string {
	var b strings.Builder
	t.RenderTo(&b, props)
	return b.String()
}

// RenderTo is Render into an existing builder.
func (t Template) RenderTo(b *strings.Builder, props Properties) {
	for _, s := range t.segs {
		if !s.field {
			b.WriteString(s.text)
			continue
		}
		if v, ok := props.Find(s.text); ok {
			b.WriteString(v.String())
		} else {
			b.WriteByte('`')
			b.WriteString(s.text)
			b.WriteByte('`')
		}
	}
}
