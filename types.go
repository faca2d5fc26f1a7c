// The user-facing semantic type system.
//
// SemanticType is the logical layer callers write schemas in: the JSON
// scalars plus Date, DateTime, Duration, Binary, the containers Array and
// Object, and the wildcard Any. It shares scalar tags with the physical
// layer (node.go) and diverges at containers, which here carry full
// structure.
//
// The enumeration is open by convention: consumers switching on Kind keep a
// default arm, so a tag added later degrades to the fallback instead of
// breaking every match site at once.
package arbor

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// SemanticType is a node in the logical type tree. Item is set for Array,
// Fields for Object; both are nil for scalars and Any.
type SemanticType struct {
	Kind   Kind
	Item   *SemanticType
	Fields []Field
}

// Field is one named member of an Object type.
type Field struct {
	Name     string
	Type     SemanticType
	Nullable bool
	Required bool
}

// Scalar and wildcard type constants.
var (
	TypeNull     = SemanticType{Kind: KindNull}
	TypeBool     = SemanticType{Kind: KindBool}
	TypeInt64    = SemanticType{Kind: KindInt64}
	TypeFloat64  = SemanticType{Kind: KindFloat64}
	TypeString   = SemanticType{Kind: KindString}
	TypeDate     = SemanticType{Kind: KindDate}
	TypeDateTime = SemanticType{Kind: KindDateTime}
	TypeDuration = SemanticType{Kind: KindDuration}
	TypeBinary   = SemanticType{Kind: KindBinary}
	TypeAny      = SemanticType{Kind: KindAny}
)

// ArrayOf returns an array type over item.
func ArrayOf(item SemanticType) SemanticType {
	return SemanticType{Kind: KindArray, Item: &item}
}

// ObjectOf returns an object type over fields, in the given order.
func ObjectOf(fields ...Field) SemanticType {
	return SemanticType{Kind: KindObject, Fields: fields}
}

// Schema is a root type plus optional named definitions.
type Schema struct {
	Root SemanticType
	Defs map[string]SemanticType
}

// Validate checks the schema for well-formedness: no two fields of any
// single object may share a name. Nested containers and named definitions
// are checked recursively.
func (s *Schema) Validate() error {
	if err := validateType(s.Root, ""); err != nil {
		return err
	}
	for name, t := range s.Defs {
		if err := validateType(t, name); err != nil {
			return err
		}
	}
	return nil
}

func validateType(t SemanticType, path string) error {
	switch t.Kind {
	case KindArray:
		if t.Item != nil {
			return validateType(*t.Item, path+"[]")
		}
	case KindObject:
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if seen[f.Name] {
				return &DuplicateFieldError{Name: f.Name, Path: path}
			}
			seen[f.Name] = true
			sub := f.Name
			if path != "" {
				sub = path + "." + f.Name
			}
			if err := validateType(f.Type, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compatible reports whether data written under the writer type can be
// consumed under the reader type. The check is asymmetric by design:
//
//   - identical types are compatible
//   - Int64 widens to Float64, never the reverse
//   - Any is compatible with everything, both directions
//   - arrays recurse on the item type
//   - objects: every field the reader requires must exist in the writer
//     under the same name with a compatible type; extra writer fields are
//     ignored
func Compatible(writer, reader SemanticType) bool {
	if writer.Kind == KindAny || reader.Kind == KindAny {
		return true
	}
	if writer.Kind == KindInt64 && reader.Kind == KindFloat64 {
		return true
	}
	if writer.Kind != reader.Kind {
		return false
	}
	switch writer.Kind {
	case KindArray:
		wi, ri := TypeAny, TypeAny
		if writer.Item != nil {
			wi = *writer.Item
		}
		if reader.Item != nil {
			ri = *reader.Item
		}
		return Compatible(wi, ri)
	case KindObject:
		byName := make(map[string]SemanticType, len(writer.Fields))
		for _, f := range writer.Fields {
			byName[f.Name] = f.Type
		}
		for _, rf := range reader.Fields {
			wt, ok := byName[rf.Name]
			if !ok {
				if rf.Required {
					return false
				}
				continue
			}
			if !Compatible(wt, rf.Type) {
				return false
			}
		}
		return true
	}
	return true
}

// Fingerprint returns a 16 hex character digest of the schema's canonical
// encoding. Equal fingerprints mean structurally identical schemas, making
// this a cheap identity for registry caching and compatibility pre-checks.
func (s *Schema) Fingerprint() string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	writeType(h, s.Root)
	// Defs are hashed in sorted name order so the fingerprint is canonical
	// regardless of map iteration.
	names := make([]string, 0, len(s.Defs))
	for name := range s.Defs {
		names = append(names, name)
	}
	sort.Strings(names)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(names)))
	h.Write(n[:])
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		writeType(h, s.Defs[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeType(h io.Writer, t SemanticType) {
	h.Write([]byte{byte(t.Kind)})
	switch t.Kind {
	case KindArray:
		if t.Item != nil {
			writeType(h, *t.Item)
		}
	case KindObject:
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(t.Fields)))
		h.Write(n[:])
		for _, f := range t.Fields {
			h.Write([]byte(f.Name))
			flags := byte(0)
			if f.Nullable {
				flags |= 1
			}
			if f.Required {
				flags |= 2
			}
			h.Write([]byte{0, flags})
			writeType(h, f.Type)
		}
	}
}
