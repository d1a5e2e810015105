// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls tagged sections out of free-form model output.
//
// The model is asked to answer inside <summary>, <methods>,
// <contributions>, and <limitations> tags but is free to write planning
// text around them. Extraction first tries a strict XML parse of the whole
// response; when that fails (stray '<' or '&' in the planning text, an
// unclosed tag) it falls back to a per-tag pattern match so that whatever
// well-formed sections exist are still recovered.
package extract

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"
	"go.uber.org/zap"
)

// Key names one extracted section.
type Key string

const (
	KeySummary       Key = "summary"
	KeyMethods       Key = "methods"
	KeyContributions Key = "contributions"
	KeyLimitations   Key = "limitations"
)

var keys = []Key{KeySummary, KeyMethods, KeyContributions, KeyLimitations}

// Keys returns the section keys in output order.
func Keys() []Key {
	return append([]Key(nil), keys...)
}

// Title returns the key with its first letter upper-cased.
func (k Key) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func isKey(name string) (Key, bool) {
	for _, k := range keys {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Fields maps every key to its extracted text. A section missing from the
// payload, or present but blank, is fn.None.
type Fields map[Key]fn.Option[string]

// Get returns the value for k, treating a missing map entry as None.
func (f Fields) Get(k Key) fn.Option[string] {
	if v, ok := f[k]; ok {
		return v
	}
	return fn.None[string]()
}

// Present returns the keys holding a value, in output order.
func (f Fields) Present() []Key {
	var out []Key
	for _, k := range keys {
		if f.Get(k).IsSome() {
			out = append(out, k)
		}
	}
	return out
}

func emptyFields() Fields {
	f := make(Fields, len(keys))
	for _, k := range keys {
		f[k] = fn.None[string]()
	}
	return f
}

// fallbackPatterns match <key>...</key> case-insensitively across lines,
// shortest body first.
var fallbackPatterns = func() map[Key]*regexp.Regexp {
	m := make(map[Key]*regexp.Regexp, len(keys))
	for _, k := range keys {
		m[k] = regexp.MustCompile(`(?is)<` + string(k) + `>(.*?)</` + string(k) + `>`)
	}
	return m
}()

// Extractor parses model output and logs when the strict parse is
// abandoned. The zero value is usable.
type Extractor struct {
	Log *zap.Logger
}

// Extract returns every key's value from raw. It never fails.
func (e Extractor) Extract(raw string) Fields {
	f, err := parseXML(raw)
	if err == nil {
		return f
	}
	if e.Log != nil {
		e.Log.Debug("strict parse of tagged output failed; using pattern fallback", zap.Error(err))
	}
	return parsePatterns(raw)
}

// Extract is Extractor{}.Extract.
func Extract(raw string) Fields {
	return Extractor{}.Extract(raw)
}

type capture struct {
	depth int
	buf   *strings.Builder
}

// parseXML wraps raw in a root element and decodes it strictly. For each
// key the first matching element at any depth wins; its value is all
// character data beneath it.
func parseXML(raw string) (Fields, error) {
	dec := xml.NewDecoder(strings.NewReader("<root>" + raw + "</root>"))

	found := make(map[Key]*strings.Builder)
	var open []capture
	depth := 0
	closedRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if closedRoot {
				return nil, errors.New("content after root element")
			}
			depth++
			if k, ok := isKey(t.Name.Local); ok && found[k] == nil {
				b := &strings.Builder{}
				found[k] = b
				open = append(open, capture{depth: depth, buf: b})
			}
		case xml.EndElement:
			for len(open) > 0 && open[len(open)-1].depth == depth {
				open = open[:len(open)-1]
			}
			depth--
			if depth == 0 {
				closedRoot = true
			}
		case xml.CharData:
			if closedRoot && strings.TrimSpace(string(t)) != "" {
				return nil, errors.New("content after root element")
			}
			for _, c := range open {
				c.buf.Write(t)
			}
		}
	}

	f := emptyFields()
	for k, b := range found {
		if s := strings.TrimSpace(b.String()); s != "" {
			f[k] = fn.Some(s)
		}
	}
	return f, nil
}

func parsePatterns(raw string) Fields {
	f := emptyFields()
	for _, k := range keys {
		m := fallbackPatterns[k].FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if s := strings.TrimSpace(m[1]); s != "" {
			f[k] = fn.Some(s)
		}
	}
	return f
}

// Format renders the present sections as Markdown, one "### Title"
// heading followed by its text per section, in Keys order. It returns ""
// when nothing is present.
func Format(f Fields) string {
	var lines []string
	for _, k := range keys {
		f.Get(k).WhenSome(func(s string) {
			lines = append(lines, "### "+k.Title(), s)
		})
	}
	return strings.Join(lines, "\n")
}
