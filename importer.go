// Importing external schema descriptions.
//
// ImportSchema maps a JSON schema description onto a validated Schema.
// Recognized format hints on strings — date, date-time, duration, byte —
// select the temporal and binary types; every other hint (or none) yields
// plain String. The core itself never reads descriptions; it only requires
// that whatever imports them ends up producing a validated Schema.
package arbor

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// typeDesc is one node of an external schema description.
type typeDesc struct {
	Type       string               `json:"type"`
	Format     string               `json:"format,omitempty"`
	Nullable   bool                 `json:"nullable,omitempty"`
	Properties map[string]*typeDesc `json:"properties,omitempty"`
	Items      *typeDesc            `json:"items,omitempty"`
	Required   []string             `json:"required,omitempty"`
}

// ImportSchema converts a JSON schema description into a validated Schema.
func ImportSchema(data []byte) (*Schema, error) {
	var desc typeDesc
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDescription, err)
	}
	root, err := importType(&desc, "")
	if err != nil {
		return nil, err
	}
	s := &Schema{Root: root}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func importType(d *typeDesc, path string) (SemanticType, error) {
	if d == nil {
		return TypeAny, nil
	}
	switch d.Type {
	case "":
		return TypeAny, nil
	case "null":
		return TypeNull, nil
	case "boolean":
		return TypeBool, nil
	case "integer":
		return TypeInt64, nil
	case "number":
		return TypeFloat64, nil
	case "string":
		// Format hints select the richer semantic types; anything
		// unrecognized stays a plain string.
		switch d.Format {
		case "date":
			return TypeDate, nil
		case "date-time":
			return TypeDateTime, nil
		case "duration":
			return TypeDuration, nil
		case "byte":
			return TypeBinary, nil
		}
		return TypeString, nil
	case "array":
		item, err := importType(d.Items, path+"[]")
		if err != nil {
			return SemanticType{}, err
		}
		return ArrayOf(item), nil
	case "object":
		required := make(map[string]bool, len(d.Required))
		for _, name := range d.Required {
			required[name] = true
		}
		// Description properties are a map; sort names so the imported
		// field order is stable.
		names := make([]string, 0, len(d.Properties))
		for name := range d.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]Field, 0, len(names))
		for _, name := range names {
			sub := name
			if path != "" {
				sub = path + "." + name
			}
			ft, err := importType(d.Properties[name], sub)
			if err != nil {
				return SemanticType{}, err
			}
			nullable := d.Properties[name] != nil && d.Properties[name].Nullable
			fields = append(fields, Field{
				Name:     name,
				Type:     ft,
				Nullable: nullable,
				Required: required[name],
			})
		}
		return ObjectOf(fields...), nil
	}
	return SemanticType{}, fmt.Errorf("%w: unknown type %q at %s", ErrBadDescription, d.Type, pathOrRoot(path))
}
