// ABOUTME: Raw JSON section of a dashboard payload with presence and shape checks
// ABOUTME: Renderers decode sections lazily so one malformed section cannot spoil the rest
package models

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSectionMissing is returned when decoding a section that is absent or null.
var ErrSectionMissing = errors.New("section missing")

// Kind classifies the JSON value held by a Section.
type Kind int

const (
	KindMissing Kind = iota
	KindNull
	KindArray
	KindObject
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "missing"
	}
}

// Section holds one named part of the payload as undecoded JSON.
type Section struct {
	raw []byte
}

// NewSection wraps raw JSON text. An empty string yields a missing section.
func NewSection(raw string) Section {
	if raw == "" {
		return Section{}
	}
	return Section{raw: []byte(raw)}
}

func (s *Section) UnmarshalJSON(data []byte) error {
	s.raw = append([]byte(nil), data...)
	return nil
}

func (s Section) MarshalJSON() ([]byte, error) {
	if len(s.raw) == 0 {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// Raw returns the section's JSON text.
func (s Section) Raw() []byte {
	return s.raw
}

func (s Section) Kind() Kind {
	b := bytes.TrimSpace(s.raw)
	if len(b) == 0 {
		return KindMissing
	}
	switch b[0] {
	case '[':
		return KindArray
	case '{':
		return KindObject
	case '"':
		return KindString
	case 'n':
		return KindNull
	case 't', 'f':
		return KindBool
	default:
		return KindNumber
	}
}

// Present reports whether the section exists and is not null.
func (s Section) Present() bool {
	k := s.Kind()
	return k != KindMissing && k != KindNull
}

// Len is the element count of an array, the key count of an object, or the
// length of a string. Other kinds report zero.
func (s Section) Len() int {
	switch s.Kind() {
	case KindArray:
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(s.raw, &items); err != nil {
			return 0
		}
		return len(items)
	case KindObject:
		var fields map[string]jsoniter.RawMessage
		if err := json.Unmarshal(s.raw, &fields); err != nil {
			return 0
		}
		return len(fields)
	case KindString:
		return len(s.Text())
	default:
		return 0
	}
}

// HasData reports whether the section carries something worth rendering:
// a non-empty array or object, a positive number, or a non-blank string.
func (s Section) HasData() bool {
	switch s.Kind() {
	case KindArray, KindObject:
		return s.Len() > 0
	case KindNumber:
		return s.Number() > 0
	case KindString:
		return strings.TrimSpace(s.Text()) != ""
	default:
		return false
	}
}

// Decode unmarshals the section into v.
func (s Section) Decode(v any) error {
	if !s.Present() {
		return ErrSectionMissing
	}
	return json.Unmarshal(s.raw, v)
}

// Items returns the elements of an array section.
func (s Section) Items() ([]Section, error) {
	var items []jsoniter.RawMessage
	if err := s.Decode(&items); err != nil {
		return nil, err
	}
	out := make([]Section, len(items))
	for i, item := range items {
		out[i] = Section{raw: item}
	}
	return out, nil
}

// Field returns a named member of an object section, or a missing section.
func (s Section) Field(name string) Section {
	if s.Kind() != KindObject {
		return Section{}
	}
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(s.raw, &fields); err != nil {
		return Section{}
	}
	return Section{raw: fields[name]}
}

// Text returns a string section's value, or the raw text for other kinds.
func (s Section) Text() string {
	if s.Kind() == KindString {
		var str string
		if err := json.Unmarshal(s.raw, &str); err == nil {
			return str
		}
	}
	if !s.Present() {
		return ""
	}
	return string(bytes.TrimSpace(s.raw))
}

// Number returns a numeric value, accepting numbers and numeric strings.
// Anything else is zero.
func (s Section) Number() float64 {
	n, _ := s.numberOK()
	return n
}

func (s Section) numberOK() (float64, bool) {
	switch s.Kind() {
	case KindNumber:
		n, err := strconv.ParseFloat(string(bytes.TrimSpace(s.raw)), 64)
		return n, err == nil
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(s.Text()), 64)
		return n, err == nil
	default:
		return 0, false
	}
}
