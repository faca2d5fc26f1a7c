// Append-only typed column pools.
//
// Each physical scalar kind owns one pool. A pool hands out stable integer
// indices — an arena, not pointers — so nodes reference entries without any
// lifetime coupling to the pool's growth. Pools support three operations:
// append a value, append a null (a reserved "no value" slot, distinct from
// absence), and indexed read. They never shrink or reorder during a build,
// and no locking is needed while building because exactly one writer owns
// the in-progress pools.
//
// Nulls are tracked in a validity bitmap beside the values, so a null slot
// costs one zero value plus one bit. A typed-pool null is how a coercion
// failure or missing value lands in a field's declared column without
// falling back to a generic null node.
package arbor

import (
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

// column is an append-only typed column with a validity bitmap.
type column[T any] struct {
	values []T
	valid  []uint64
}

func (c *column[T]) append(v T) uint32 {
	i := uint32(len(c.values))
	c.values = append(c.values, v)
	c.setValid(i)
	return i
}

func (c *column[T]) appendNull() uint32 {
	var zero T
	i := uint32(len(c.values))
	c.values = append(c.values, zero)
	c.growValid(i)
	return i
}

// get returns the value at i. ok is false for a null slot.
func (c *column[T]) get(i uint32) (T, bool) {
	var zero T
	if int(i) >= len(c.values) {
		return zero, false
	}
	if c.valid[i>>6]&(1<<(i&63)) == 0 {
		return zero, false
	}
	return c.values[i], true
}

func (c *column[T]) len() int { return len(c.values) }

// truncate discards entries at and past n. Validity bits are cleared so the
// slots behave as fresh ones when the column grows again.
func (c *column[T]) truncate(n int) {
	for i := uint32(n); int(i) < len(c.values); i++ {
		c.valid[i>>6] &^= 1 << (i & 63)
	}
	c.values = c.values[:n]
}

func (c *column[T]) setValid(i uint32) {
	c.growValid(i)
	c.valid[i>>6] |= 1 << (i & 63)
}

func (c *column[T]) growValid(i uint32) {
	for int(i>>6) >= len(c.valid) {
		c.valid = append(c.valid, 0)
	}
}

// stringPool is a column of strings with interning: appending a value that
// was appended before returns the existing index. Candidate slots are keyed
// by xxh3 hash and verified by comparison, so hash collisions cost a probe,
// never a wrong answer. Null slots are not interned — each null is its own
// slot, as in every other pool.
type stringPool struct {
	col    column[string]
	byHash map[uint64][]uint32
}

func (p *stringPool) append(v string) uint32 {
	if p.byHash == nil {
		p.byHash = make(map[uint64][]uint32)
	}
	h := xxh3.HashString(v)
	for _, i := range p.byHash[h] {
		if p.col.values[i] == v {
			return i
		}
	}
	i := p.col.append(v)
	p.byHash[h] = append(p.byHash[h], i)
	return i
}

func (p *stringPool) appendNull() uint32 { return p.col.appendNull() }

func (p *stringPool) get(i uint32) (string, bool) { return p.col.get(i) }

func (p *stringPool) len() int { return p.col.len() }

// truncate discards entries at and past n, removing them from the hash
// index so a discarded string can be interned afresh later.
func (p *stringPool) truncate(n int) {
	for i := uint32(n); int(i) < len(p.col.values); i++ {
		if p.col.valid[i>>6]&(1<<(i&63)) == 0 {
			continue // null slots are not indexed
		}
		h := xxh3.HashString(p.col.values[i])
		list := p.byHash[h]
		for j, idx := range list {
			if idx == i {
				p.byHash[h] = append(list[:j], list[j+1:]...)
				break
			}
		}
	}
	p.col.truncate(n)
}

// binaryCompressMin is the blob size above which entries are stored
// zstd-compressed. Small blobs skip compression: the frame overhead and
// encode latency outweigh any ratio gain.
const binaryCompressMin = 256

// Shared encoder/decoder — both are documented as safe for concurrent use.
// Allocated once at init because zstd encoder/decoder construction is
// expensive; creating one per append would dominate the cost of storing
// typical blobs. SpeedFastest: appends are the hot path, reads are not.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

type blob struct {
	data       []byte
	compressed bool
}

// binaryPool stores byte blobs, transparently compressing large entries.
type binaryPool struct {
	blobs []blob
	valid []uint64
}

func (p *binaryPool) append(v []byte) uint32 {
	var b blob
	if len(v) >= binaryCompressMin {
		if c := zstdEncoder.EncodeAll(v, nil); len(c) < len(v) {
			b = blob{data: c, compressed: true}
		}
	}
	if b.data == nil && v != nil {
		// Copy so the pool never aliases caller memory.
		b.data = append([]byte(nil), v...)
	}
	i := uint32(len(p.blobs))
	p.blobs = append(p.blobs, b)
	p.setValid(i, true)
	return i
}

func (p *binaryPool) appendNull() uint32 {
	i := uint32(len(p.blobs))
	p.blobs = append(p.blobs, blob{})
	p.setValid(i, false)
	return i
}

func (p *binaryPool) get(i uint32) ([]byte, bool) {
	if int(i) >= len(p.blobs) {
		return nil, false
	}
	if p.valid[i>>6]&(1<<(i&63)) == 0 {
		return nil, false
	}
	b := p.blobs[i]
	if !b.compressed {
		return b.data, true
	}
	out, err := zstdDecoder.DecodeAll(b.data, nil)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (p *binaryPool) len() int { return len(p.blobs) }

func (p *binaryPool) truncate(n int) {
	for i := uint32(n); int(i) < len(p.blobs); i++ {
		p.valid[i>>6] &^= 1 << (i & 63)
	}
	p.blobs = p.blobs[:n]
}

func (p *binaryPool) setValid(i uint32, ok bool) {
	for int(i>>6) >= len(p.valid) {
		p.valid = append(p.valid, 0)
	}
	if ok {
		p.valid[i>>6] |= 1 << (i & 63)
	}
}

// pools bundles the eight scalar columns of one Arbor.
type pools struct {
	bools     column[bool]
	ints      column[int64]
	floats    column[float64]
	strings   stringPool
	dates     column[int32] // days since epoch
	times     column[int64] // microseconds since epoch, UTC
	durations column[int64] // microseconds
	binaries  binaryPool
}

// poolsMark records the length of every column at one point in a build.
type poolsMark struct {
	bools, ints, floats, strings, dates, times, durations, binaries int
}

func (p *pools) mark() poolsMark {
	return poolsMark{
		bools:     p.bools.len(),
		ints:      p.ints.len(),
		floats:    p.floats.len(),
		strings:   p.strings.len(),
		dates:     p.dates.len(),
		times:     p.times.len(),
		durations: p.durations.len(),
		binaries:  p.binaries.len(),
	}
}

func (p *pools) truncate(m poolsMark) {
	p.bools.truncate(m.bools)
	p.ints.truncate(m.ints)
	p.floats.truncate(m.floats)
	p.strings.truncate(m.strings)
	p.dates.truncate(m.dates)
	p.times.truncate(m.times)
	p.durations.truncate(m.durations)
	p.binaries.truncate(m.binaries)
}

// appendNull writes a null slot into the pool for kind k and returns its
// index. Callers guarantee k is a scalar kind.
func (p *pools) appendNull(k Kind) uint32 {
	switch k {
	case KindBool:
		return p.bools.appendNull()
	case KindInt64:
		return p.ints.appendNull()
	case KindFloat64:
		return p.floats.appendNull()
	case KindString:
		return p.strings.appendNull()
	case KindDate:
		return p.dates.appendNull()
	case KindDateTime:
		return p.times.appendNull()
	case KindDuration:
		return p.durations.appendNull()
	case KindBinary:
		return p.binaries.appendNull()
	}
	panic("arbor: appendNull on non-scalar kind " + k.String())
}
