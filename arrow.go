// Arrow export for flat forests.
//
// A forest whose trees are objects of scalar fields maps cleanly onto an
// Arrow record batch: one tree per row, one pool-backed column per field.
// Typed-pool nulls become Arrow nulls. Temporal columns keep their
// resolution: Date is Date32, DateTime is a microsecond UTC timestamp,
// Duration a microsecond duration. Nested forests return ErrNotFlat —
// flattening policy belongs to the caller, not here.
package arbor

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// arrowType maps a scalar kind onto its Arrow data type.
func arrowType(k Kind) (arrow.DataType, error) {
	switch k {
	case KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case KindString:
		return arrow.BinaryTypes.String, nil
	case KindDate:
		return arrow.FixedWidthTypes.Date32, nil
	case KindDateTime:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case KindDuration:
		return &arrow.DurationType{Unit: arrow.Microsecond}, nil
	case KindBinary:
		return arrow.BinaryTypes.Binary, nil
	}
	return nil, fmt.Errorf("%w: field kind %s has no columnar mapping", ErrNotFlat, k)
}

// ArrowSchema converts a flat object schema into an Arrow schema.
func ArrowSchema(s *Schema) (*arrow.Schema, error) {
	if s.Root.Kind != KindObject {
		return nil, fmt.Errorf("%w: root is %s, want object", ErrNotFlat, s.Root.Kind)
	}
	fields := make([]arrow.Field, len(s.Root.Fields))
	for i, f := range s.Root.Fields {
		dt, err := arrowType(f.Type.Kind)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToArrowRecord converts a flat forest into one Arrow record batch, one
// row per tree. The caller owns the returned record and must Release it.
func ToArrowRecord(a *Arbor, s *Schema) (arrow.Record, error) {
	as, err := ArrowSchema(s)
	if err != nil {
		return nil, err
	}

	rb := array.NewRecordBuilder(memory.DefaultAllocator, as)
	defer rb.Release()

	for _, root := range a.Roots() {
		if a.Kind(root) != KindObject {
			return nil, fmt.Errorf("%w: tree root is %s, want object", ErrNotFlat, a.Kind(root))
		}
		for i, f := range s.Root.Fields {
			node, present := a.FieldAt(root, f.Name)
			if !present {
				rb.Field(i).AppendNull()
				continue
			}
			if err := appendCell(rb.Field(i), a, node, f.Type.Kind); err != nil {
				return nil, err
			}
		}
	}

	return rb.NewRecord(), nil
}

// appendCell copies one pool value into the matching Arrow builder.
func appendCell(fb array.Builder, a *Arbor, id NodeID, k Kind) error {
	if a.Kind(id) != k {
		// A generic null node under a typed column is still a null cell.
		if a.Kind(id) == KindNull {
			fb.AppendNull()
			return nil
		}
		return fmt.Errorf("%w: node kind %s under %s column", ErrNotFlat, a.Kind(id), k)
	}
	switch k {
	case KindBool:
		if v, ok := a.BoolAt(id); ok {
			fb.(*array.BooleanBuilder).Append(v)
			return nil
		}
	case KindInt64:
		if v, ok := a.Int64At(id); ok {
			fb.(*array.Int64Builder).Append(v)
			return nil
		}
	case KindFloat64:
		if v, ok := a.Float64At(id); ok {
			fb.(*array.Float64Builder).Append(v)
			return nil
		}
	case KindString:
		if v, ok := a.StringAt(id); ok {
			fb.(*array.StringBuilder).Append(v)
			return nil
		}
	case KindDate:
		if v, ok := a.DateAt(id); ok {
			fb.(*array.Date32Builder).Append(arrow.Date32(v))
			return nil
		}
	case KindDateTime:
		if v, ok := a.DateTimeAt(id); ok {
			fb.(*array.TimestampBuilder).Append(arrow.Timestamp(v))
			return nil
		}
	case KindDuration:
		if v, ok := a.DurationAt(id); ok {
			fb.(*array.DurationBuilder).Append(arrow.Duration(v))
			return nil
		}
	case KindBinary:
		if v, ok := a.BinaryAt(id); ok {
			fb.(*array.BinaryBuilder).Append(v)
			return nil
		}
	}
	fb.AppendNull() // typed-pool null
	return nil
}

// ExportIPC serializes a flat forest as one Arrow IPC stream.
func ExportIPC(a *Arbor, s *Schema) ([]byte, error) {
	record, err := ToArrowRecord(a, s)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(record.Schema()))
	if err := w.Write(record); err != nil {
		w.Close()
		return nil, fmt.Errorf("write record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}
	return buf.Bytes(), nil
}
