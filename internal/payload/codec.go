package payload

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout, protobuf-compatible:
//
//	1: kind      varint
//	2: label     bytes
//	3: value     bytes   (plain only)
//	4: attribute message, repeated, sorted by name (domain only)
//	   1: name   bytes
//	   2: value  bytes
const (
	fieldKind  protowire.Number = 1
	fieldLabel protowire.Number = 2
	fieldValue protowire.Number = 3
	fieldAttr  protowire.Number = 4

	fieldAttrName  protowire.Number = 1
	fieldAttrValue protowire.Number = 2
)

var (
	errUnknownKind   = errors.New("unknown payload kind")
	errDuplicateAttr = errors.New("duplicate attribute")
	errInvalidUTF8   = errors.New("invalid utf-8 string")
)

// Encode serializes p to its compact binary form. Identical payloads always
// encode to identical bytes.
func Encode(p Payload) ([]byte, error) {
	if p.kind != KindPlain && p.kind != KindDomain {
		return nil, &PipelineError{Stage: StageEncode, Err: fmt.Errorf("%w: %d", errUnknownKind, p.kind)}
	}

	var b []byte
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.kind))
	b = protowire.AppendTag(b, fieldLabel, protowire.BytesType)
	b = protowire.AppendString(b, p.label)

	switch p.kind {
	case KindPlain:
		b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
		b = protowire.AppendString(b, p.value)
	case KindDomain:
		for _, name := range slices.Sorted(maps.Keys(p.attrs)) {
			var attr []byte
			attr = protowire.AppendTag(attr, fieldAttrName, protowire.BytesType)
			attr = protowire.AppendString(attr, name)
			attr = protowire.AppendTag(attr, fieldAttrValue, protowire.BytesType)
			attr = protowire.AppendString(attr, p.attrs[name])

			b = protowire.AppendTag(b, fieldAttr, protowire.BytesType)
			b = protowire.AppendBytes(b, attr)
		}
	}
	return b, nil
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Payload, error) {
	p, err := decode(b)
	if err != nil {
		return Payload{}, &PipelineError{Stage: StageDecode, Err: err}
	}
	return p, nil
}

func decode(b []byte) (Payload, error) {
	var (
		p     Payload
		attrs map[string]string
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Payload{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Payload{}, protowire.ParseError(n)
			}
			p.kind = Kind(v)
			b = b[n:]

		case num == fieldLabel && typ == protowire.BytesType:
			s, n, err := consumeString(b)
			if err != nil {
				return Payload{}, err
			}
			p.label = s
			b = b[n:]

		case num == fieldValue && typ == protowire.BytesType:
			s, n, err := consumeString(b)
			if err != nil {
				return Payload{}, err
			}
			p.value = s
			b = b[n:]

		case num == fieldAttr && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Payload{}, protowire.ParseError(n)
			}
			name, value, err := decodeAttr(msg)
			if err != nil {
				return Payload{}, err
			}
			if attrs == nil {
				attrs = make(map[string]string)
			}
			if _, dup := attrs[name]; dup {
				return Payload{}, fmt.Errorf("%w: %q", errDuplicateAttr, name)
			}
			attrs[name] = value
			b = b[n:]

		default:
			return Payload{}, fmt.Errorf("unexpected field %d (wire type %d)", num, typ)
		}
	}

	switch p.kind {
	case KindPlain:
		if attrs != nil {
			return Payload{}, errors.New("plain payload carries attributes")
		}
	case KindDomain:
		if p.value != "" {
			return Payload{}, errors.New("domain payload carries a value")
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		p.attrs = attrs
	default:
		return Payload{}, fmt.Errorf("%w: %d", errUnknownKind, p.kind)
	}
	return p, nil
}

func decodeAttr(b []byte) (name, value string, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType || (num != fieldAttrName && num != fieldAttrValue) {
			return "", "", fmt.Errorf("unexpected attribute field %d (wire type %d)", num, typ)
		}
		s, n, err := consumeString(b)
		if err != nil {
			return "", "", err
		}
		if num == fieldAttrName {
			name = s
		} else {
			value = s
		}
		b = b[n:]
	}
	return name, value, nil
}

func consumeString(b []byte) (string, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	if !utf8.Valid(v) {
		return "", 0, errInvalidUTF8
	}
	return string(v), n, nil
}
