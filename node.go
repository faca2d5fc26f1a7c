// Fixed-size node records and the physical tag space.
//
// A node is 8 bytes: one tag byte (low nibble = kind, high nibble = flags)
// and a 32-bit slot. The slot is an index into the pool matching the node's
// kind, or into the builder's child tables for arrays and objects. The tag
// nibble holds 16 kinds, so adding a kind never grows the node.
//
// Nodes are never relocated and pools are append-only, so a slot stays
// valid for the node's entire lifetime.
package arbor

// Kind is the physical type tag of a node. The semantic layer (types.go)
// shares these tags for its scalar leaves; the two layers diverge only at
// containers, where the semantic side carries structure the physical side
// does not.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindDate     // days since epoch, int32
	KindDateTime // microseconds since epoch, int64, UTC
	KindDuration // microseconds, int64, time-only
	KindBinary
	KindArray
	KindObject
	KindAny

	// Tags 12–15 are reserved. Consumers switching on Kind must carry a
	// default arm so a future tag degrades instead of misbehaving.
	kindCount = 16
)

var kindNames = [...]string{
	"null", "bool", "int64", "float64", "string",
	"date", "datetime", "duration", "binary",
	"array", "object", "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "reserved"
}

// scalar reports whether values of this kind live in a column pool.
func (k Kind) scalar() bool {
	switch k {
	case KindBool, KindInt64, KindFloat64, KindString,
		KindDate, KindDateTime, KindDuration, KindBinary:
		return true
	}
	return false
}

// Node flag bits (high nibble of the tag byte).
const (
	flagRoot = 0x10 // node is a tree root
)

// NodeID identifies a node within one Arbor. IDs are dense, stable, and
// never reused.
type NodeID uint32

// Node is the fixed-size storage record. The zero Node is a null node.
type Node struct {
	tag  uint8
	slot uint32
}

func (n Node) kind() Kind { return Kind(n.tag & 0x0f) }

func (n Node) root() bool { return n.tag&flagRoot != 0 }

func makeNode(k Kind, slot uint32) Node {
	if k >= kindCount {
		// Out-of-range tags are a programming error, not input-dependent.
		panic("arbor: node kind out of tag range")
	}
	return Node{tag: uint8(k), slot: slot}
}

// StorageType is the compiled, storage-oriented type descriptor. Scalar
// kinds are self-describing; Array and Object reference the registry
// (physical.go) for their payload. A StorageType read back from a bare node
// has Kind only — the container payload needs the compiled registry, which
// is exactly the partiality the two-layer model prescribes.
type StorageType struct {
	Kind  Kind
	Item  TypeID // KindArray: registry id of the item type
	Props []Prop // KindObject: ordered properties
}

// Prop is one ordered property of a physical object type.
type Prop struct {
	Name     string
	Type     TypeID
	Nullable bool
	Required bool
}
