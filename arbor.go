// Builder and the immutable Arbor.
//
// Exactly one Builder owns the in-progress nodes and pools; it is passed by
// unique ownership through a parse call, never shared and never a process
// global. Finish freezes the forest: the returned Arbor is read-only and
// safe for concurrent readers without synchronization, because nothing
// mutates a node or pool value after the build completes.
package arbor

// Member is one key–value pair of an object node. Keys are interned in the
// string pool; Name on the read side is the resolved string.
type Member struct {
	Name string
	Node NodeID
}

// member is the storage form: the key as a string-pool index.
type member struct {
	key  uint32
	node NodeID
}

// Builder accumulates nodes and pool values for one Arbor.
type Builder struct {
	nodes   []Node
	roots   []NodeID
	arrays  [][]NodeID
	objects [][]member
	pools   pools
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) alloc(n Node) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	return id
}

// Null appends a generic null node (JSON null). This is distinct from a
// typed-pool null, which lives in a specific column.
func (b *Builder) Null() NodeID {
	return b.alloc(makeNode(KindNull, 0))
}

// TypedNull appends a null slot into the pool for kind k and a node
// pointing at it. Panics if k is not a scalar kind.
func (b *Builder) TypedNull(k Kind) NodeID {
	return b.alloc(makeNode(k, b.pools.appendNull(k)))
}

func (b *Builder) Bool(v bool) NodeID {
	return b.alloc(makeNode(KindBool, b.pools.bools.append(v)))
}

func (b *Builder) Int64(v int64) NodeID {
	return b.alloc(makeNode(KindInt64, b.pools.ints.append(v)))
}

func (b *Builder) Float64(v float64) NodeID {
	return b.alloc(makeNode(KindFloat64, b.pools.floats.append(v)))
}

func (b *Builder) String(v string) NodeID {
	return b.alloc(makeNode(KindString, b.pools.strings.append(v)))
}

// Date appends a day-resolution date. Temporal values never land in the
// plain int pools: Date always uses the day column, DateTime and Duration
// always use their microsecond columns.
func (b *Builder) Date(days int32) NodeID {
	return b.alloc(makeNode(KindDate, b.pools.dates.append(days)))
}

func (b *Builder) DateTime(micros int64) NodeID {
	return b.alloc(makeNode(KindDateTime, b.pools.times.append(micros)))
}

func (b *Builder) Duration(micros int64) NodeID {
	return b.alloc(makeNode(KindDuration, b.pools.durations.append(micros)))
}

func (b *Builder) Binary(v []byte) NodeID {
	return b.alloc(makeNode(KindBinary, b.pools.binaries.append(v)))
}

// Array appends an array node over previously built children.
func (b *Builder) Array(children []NodeID) NodeID {
	slot := uint32(len(b.arrays))
	b.arrays = append(b.arrays, children)
	return b.alloc(makeNode(KindArray, slot))
}

// Object appends an object node. Keys are interned through the string pool.
func (b *Builder) Object(members []Member) NodeID {
	stored := make([]member, len(members))
	for i, m := range members {
		stored[i] = member{key: b.pools.strings.append(m.Name), node: m.Node}
	}
	slot := uint32(len(b.objects))
	b.objects = append(b.objects, stored)
	return b.alloc(makeNode(KindObject, slot))
}

// Root marks a previously built node as a tree root. Roots keep their
// registration order.
func (b *Builder) Root(id NodeID) {
	b.nodes[id].tag |= flagRoot
	b.roots = append(b.roots, id)
}

// Len returns the number of nodes built so far.
func (b *Builder) Len() int { return len(b.nodes) }

// builderMark is a checkpoint of builder growth, taken before a tree walk
// so a rejected tree can be discarded without leaving residue.
type builderMark struct {
	nodes, arrays, objects int
	pools                  poolsMark
}

func (b *Builder) mark() builderMark {
	return builderMark{
		nodes:   len(b.nodes),
		arrays:  len(b.arrays),
		objects: len(b.objects),
		pools:   b.pools.mark(),
	}
}

// rewind discards everything built after m. Roots are untouched — a tree is
// registered as a root only once its walk succeeds.
func (b *Builder) rewind(m builderMark) {
	b.nodes = b.nodes[:m.nodes]
	b.arrays = b.arrays[:m.arrays]
	b.objects = b.objects[:m.objects]
	b.pools.truncate(m.pools)
}

// Finish freezes the builder into an immutable Arbor. The builder must not
// be used afterwards; ownership of every pool transfers to the Arbor.
func (b *Builder) Finish() *Arbor {
	a := &Arbor{
		nodes:   b.nodes,
		roots:   b.roots,
		arrays:  b.arrays,
		objects: b.objects,
		pools:   b.pools,
	}
	*b = Builder{}
	return a
}

// Arbor is an immutable forest of typed nodes plus its backing pools.
// Share it freely by reference; it never mutates after Finish.
type Arbor struct {
	nodes   []Node
	roots   []NodeID
	arrays  [][]NodeID
	objects [][]member
	pools   pools
}

// Len returns the total node count.
func (a *Arbor) Len() int { return len(a.nodes) }

// Roots returns the tree roots in registration order. The returned slice is
// shared; callers must not modify it.
func (a *Arbor) Roots() []NodeID { return a.roots }

// Read returns the storage type and slot of a node. Scalar slots index the
// pool for the node's kind; container slots index the child tables. The
// container StorageType carries Kind only — recovering its payload needs
// the compiled registry the schema produced, which an Arbor does not store.
func (a *Arbor) Read(id NodeID) (StorageType, uint32) {
	n := a.nodes[id]
	return StorageType{Kind: n.kind()}, n.slot
}

// Kind returns the physical kind of a node.
func (a *Arbor) Kind(id NodeID) Kind { return a.nodes[id].kind() }

// Scalar accessors. ok is false when the node's slot holds a typed-pool
// null, or when the node is not of the requested kind.

func (a *Arbor) BoolAt(id NodeID) (bool, bool) {
	if n := a.nodes[id]; n.kind() == KindBool {
		return a.pools.bools.get(n.slot)
	}
	return false, false
}

func (a *Arbor) Int64At(id NodeID) (int64, bool) {
	if n := a.nodes[id]; n.kind() == KindInt64 {
		return a.pools.ints.get(n.slot)
	}
	return 0, false
}

func (a *Arbor) Float64At(id NodeID) (float64, bool) {
	if n := a.nodes[id]; n.kind() == KindFloat64 {
		return a.pools.floats.get(n.slot)
	}
	return 0, false
}

func (a *Arbor) StringAt(id NodeID) (string, bool) {
	if n := a.nodes[id]; n.kind() == KindString {
		return a.pools.strings.get(n.slot)
	}
	return "", false
}

func (a *Arbor) DateAt(id NodeID) (int32, bool) {
	if n := a.nodes[id]; n.kind() == KindDate {
		return a.pools.dates.get(n.slot)
	}
	return 0, false
}

func (a *Arbor) DateTimeAt(id NodeID) (int64, bool) {
	if n := a.nodes[id]; n.kind() == KindDateTime {
		return a.pools.times.get(n.slot)
	}
	return 0, false
}

func (a *Arbor) DurationAt(id NodeID) (int64, bool) {
	if n := a.nodes[id]; n.kind() == KindDuration {
		return a.pools.durations.get(n.slot)
	}
	return 0, false
}

func (a *Arbor) BinaryAt(id NodeID) ([]byte, bool) {
	if n := a.nodes[id]; n.kind() == KindBinary {
		return a.pools.binaries.get(n.slot)
	}
	return nil, false
}

// IsNull reports whether a node is a generic null node or a typed-pool
// null slot.
func (a *Arbor) IsNull(id NodeID) bool {
	n := a.nodes[id]
	k := n.kind()
	if k == KindNull {
		return true
	}
	if !k.scalar() {
		return false
	}
	switch k {
	case KindBool:
		_, ok := a.pools.bools.get(n.slot)
		return !ok
	case KindInt64:
		_, ok := a.pools.ints.get(n.slot)
		return !ok
	case KindFloat64:
		_, ok := a.pools.floats.get(n.slot)
		return !ok
	case KindString:
		_, ok := a.pools.strings.get(n.slot)
		return !ok
	case KindDate:
		_, ok := a.pools.dates.get(n.slot)
		return !ok
	case KindDateTime:
		_, ok := a.pools.times.get(n.slot)
		return !ok
	case KindDuration:
		_, ok := a.pools.durations.get(n.slot)
		return !ok
	case KindBinary:
		_, ok := a.pools.binaries.get(n.slot)
		return !ok
	}
	return false
}

// ArrayAt returns the children of an array node. The slice is shared;
// callers must not modify it.
func (a *Arbor) ArrayAt(id NodeID) ([]NodeID, bool) {
	if n := a.nodes[id]; n.kind() == KindArray {
		return a.arrays[n.slot], true
	}
	return nil, false
}

// ObjectAt returns the members of an object node with key names resolved.
func (a *Arbor) ObjectAt(id NodeID) ([]Member, bool) {
	n := a.nodes[id]
	if n.kind() != KindObject {
		return nil, false
	}
	stored := a.objects[n.slot]
	out := make([]Member, len(stored))
	for i, m := range stored {
		name, _ := a.pools.strings.get(m.key)
		out[i] = Member{Name: name, Node: m.node}
	}
	return out, true
}

// FieldAt returns the member named name of an object node.
func (a *Arbor) FieldAt(id NodeID, name string) (NodeID, bool) {
	n := a.nodes[id]
	if n.kind() != KindObject {
		return 0, false
	}
	for _, m := range a.objects[n.slot] {
		if got, _ := a.pools.strings.get(m.key); got == name {
			return m.node, true
		}
	}
	return 0, false
}
