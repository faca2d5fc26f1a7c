// Compilation between the semantic and physical type layers.
//
// Compiling is total: every SemanticType maps to exactly one StorageType,
// deterministically, and never fails. Container payloads are registered in
// a Registry and referenced by integer id rather than by pointer, so
// shared and recursive definitions need no ownership cycles.
//
// The reverse direction is partial on purpose. Scalars, temporals, binary
// and Any map back 1:1; a physical array or object returns ok=false because
// it carries no hint of which semantic container produced it. The two
// directions are separate functions — a total command and a partial query —
// so the asymmetry stays visible in the API instead of hiding behind a
// lossy round-trip.
package arbor

// TypeID references a compiled type in a Registry. IDs 0–11 are the scalar
// kinds themselves; container ids follow.
type TypeID uint32

// Registry holds the compiled physical types of one schema. Build it once,
// then share it by reference across every load that uses the schema; it is
// immutable after Compile returns.
type Registry struct {
	types []StorageType
	root  TypeID
}

// Compile compiles a schema into a physical type registry. It is total:
// validation (Schema.Validate) is a separate concern and compilation never
// fails.
func Compile(s *Schema) *Registry {
	r := &Registry{types: make([]StorageType, KindAny+1)}
	for k := KindNull; k <= KindAny; k++ {
		r.types[k] = StorageType{Kind: k}
	}
	r.root = r.Add(s.Root)
	return r
}

// Add registers a semantic type and returns its id. Scalars and Any reuse
// the preallocated ids; each container registration appends a new entry.
func (r *Registry) Add(t SemanticType) TypeID {
	switch t.Kind {
	case KindArray:
		item := TypeID(KindAny)
		if t.Item != nil {
			item = r.Add(*t.Item)
		}
		id := TypeID(len(r.types))
		r.types = append(r.types, StorageType{Kind: KindArray, Item: item})
		return id
	case KindObject:
		props := make([]Prop, len(t.Fields))
		for i, f := range t.Fields {
			props[i] = Prop{
				Name:     f.Name,
				Type:     r.Add(f.Type),
				Nullable: f.Nullable,
				Required: f.Required,
			}
		}
		id := TypeID(len(r.types))
		r.types = append(r.types, StorageType{Kind: KindObject, Props: props})
		return id
	default:
		return TypeID(t.Kind)
	}
}

// Root returns the id of the schema's root type.
func (r *Registry) Root() TypeID { return r.root }

// Lookup returns the storage type for an id.
func (r *Registry) Lookup(id TypeID) StorageType { return r.types[id] }

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.types) }

// FromPhysical maps a storage type back to its semantic counterpart.
// Scalars, temporals, binary and Any map 1:1; Array and Object return
// ok=false — unknowable without the original schema.
func FromPhysical(st StorageType) (SemanticType, bool) {
	switch st.Kind {
	case KindNull, KindBool, KindInt64, KindFloat64, KindString,
		KindDate, KindDateTime, KindDuration, KindBinary, KindAny:
		return SemanticType{Kind: st.Kind}, true
	default:
		return SemanticType{}, false
	}
}
