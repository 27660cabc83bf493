// Package payload defines the content of a record and the lossless
// encode/compress pipeline applied to it before encryption.
package payload

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind classifies a payload variant.
type Kind uint8

const (
	// KindPlain is a label with a single value.
	KindPlain Kind = 1
	// KindDomain is a label with a set of named attributes.
	KindDomain Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindDomain:
		return "domain"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Payload is the secret content of a record. The zero value is not a valid
// payload; use Plain or Domain.
type Payload struct {
	kind  Kind
	label string
	value string
	attrs map[string]string
}

// Plain returns a payload holding a single value under label.
func Plain(label, value string) Payload {
	return Payload{kind: KindPlain, label: label, value: value}
}

// Domain returns a payload holding named attributes under label. attrs is
// copied.
func Domain(label string, attrs map[string]string) Payload {
	cp := make(map[string]string, len(attrs))
	maps.Copy(cp, attrs)
	return Payload{kind: KindDomain, label: label, attrs: cp}
}

// Kind returns the payload variant.
func (p Payload) Kind() Kind { return p.kind }

// Label returns the label used to look the payload up within a lot.
func (p Payload) Label() string { return p.label }

// Value returns the value of a plain payload. ok is false for other kinds.
func (p Payload) Value() (value string, ok bool) {
	return p.value, p.kind == KindPlain
}

// Attributes returns a copy of the attributes of a domain payload, or nil
// for other kinds.
func (p Payload) Attributes() map[string]string {
	if p.kind != KindDomain {
		return nil
	}
	return maps.Clone(p.attrs)
}

// Equal reports whether p and o hold the same content. Attribute order is
// irrelevant.
func (p Payload) Equal(o Payload) bool {
	return p.kind == o.kind &&
		p.label == o.label &&
		p.value == o.value &&
		maps.Equal(p.attrs, o.attrs)
}

// String implements fmt.Stringer without revealing secret values, so a
// payload that ends up in a log line leaks nothing but its label.
func (p Payload) String() string {
	return fmt.Sprintf("%s(%s: [redacted])", p.kind, p.label)
}

// Reveal renders the payload with its secret values, for display to the
// owner only.
func (p Payload) Reveal() string {
	if p.kind != KindDomain {
		return p.label + ": " + p.value
	}
	parts := make([]string, 0, len(p.attrs))
	for _, name := range slices.Sorted(maps.Keys(p.attrs)) {
		parts = append(parts, name+": "+p.attrs[name])
	}
	return p.label + ": {" + strings.Join(parts, ", ") + "}"
}
