// Schema-less CSV import.
//
// LoadCSV reads a header row and data rows, runs every column through the
// type inference engine on a bounded sample, then loads each row as one
// flat object tree with typed scalar fields. Null patterns become
// typed-pool nulls in the column's inferred pool. A value outside the
// sample that fails the inferred type degrades to a typed-pool null with a
// CoercionFailed warning, mirroring Lax semantics — a CSV load never skips
// a row.
package arbor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSVOptions configures a CSV import.
type CSVOptions struct {
	Comma         rune     // field separator; ',' when zero
	NullPatterns  []string // custom null patterns; default set when empty
	SampleLimit   int      // rows sampled per column for inference (default 256)
	DiagnosticCap int      // combined diagnostic cap, as in LoadOptions
}

// LoadCSV imports CSV bytes with inferred column types. The returned Schema
// is the inferred one: a flat object of nullable scalar fields.
func LoadCSV(data []byte, opts CSVOptions) (*Arbor, *Schema, *Report, error) {
	if opts.SampleLimit == 0 {
		opts.SampleLimit = 256
	}

	r := csv.NewReader(bytes.NewReader(data))
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil, ErrEmptyInput
	}
	header := rows[0]
	rows = rows[1:]

	in := NewInferrer(opts.NullPatterns...)
	cols := make([]Inference, len(header))
	for c := range header {
		sample := make([]string, 0, min(len(rows), opts.SampleLimit))
		for i := 0; i < len(rows) && i < opts.SampleLimit; i++ {
			sample = append(sample, rows[i][c])
		}
		cols[c] = in.InferColumn(sample)
	}

	fields := make([]Field, len(header))
	for c, name := range header {
		fields[c] = Field{Name: name, Type: SemanticType{Kind: cols[c].Type}, Nullable: cols[c].Nullable}
	}
	schema := &Schema{Root: ObjectOf(fields...)}
	if err := schema.Validate(); err != nil {
		return nil, nil, nil, err
	}

	b := NewBuilder()
	rep := newReport(opts.DiagnosticCap)
	for i, row := range rows {
		members := make([]Member, len(header))
		for c, name := range header {
			members[c] = Member{Name: name, Node: csvCell(b, rep, in, i, name, row[c], cols[c].Type)}
		}
		b.Root(b.Object(members))
	}

	return b.Finish(), schema, rep, nil
}

// csvCell stores one cell under its column's inferred kind.
func csvCell(b *Builder, rep *Report, in *Inferrer, tree int, col, raw string, k Kind) NodeID {
	if in.IsNull(raw) {
		return b.TypedNull(k)
	}
	s := strings.TrimSpace(raw)
	switch k {
	case KindString:
		return b.String(raw)
	case KindInt64:
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return b.Int64(v)
		}
	case KindFloat64:
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return b.Float64(v)
		}
	case KindBool:
		if v, ok := booleanTokens[strings.ToLower(s)]; ok {
			return b.Bool(v)
		}
	case KindDuration:
		if v, err := ParseDuration(s); err == nil {
			return b.Duration(v)
		}
	case KindDate:
		if v, err := ParseDate(s); err == nil {
			return b.Date(v)
		}
	case KindDateTime:
		if v, err := ParseDateTime(s); err == nil {
			return b.DateTime(v)
		}
	}
	rep.addWarning(LoadWarning{
		Tree:    tree,
		Path:    col,
		Kind:    DiagCoercionFailed,
		Message: "cannot parse " + quote(raw) + " as " + k.String(),
	})
	return b.TypedNull(k)
}
