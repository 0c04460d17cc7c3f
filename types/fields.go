package types

import (
	"slices"
	"strings"
)

// FieldName identifies a placeholder. Two templates using the same name share the value.
type FieldName string

func (f FieldName) String() string {
	return string(f)
}

// Valid reports whether the name can be requested from the user.
func (f FieldName) Valid() bool {
	return strings.TrimSpace(string(f)) != ""
}

// Placeholder returns the literal token written in templates.
func (f FieldName) Placeholder() string {
	return "{" + string(f) + "}"
}

// Value is one entry of an ordered field mapping.
type Value struct {
	Field FieldName `json:"field"`
	Value string    `json:"value"`
}

// Values is a field mapping that keeps insertion order.
type Values []Value

func (v Values) Get(field FieldName) (string, bool) {
	for _, item := range v {
		if item.Field == field {
			return item.Value, true
		}
	}
	return "", false
}

// Set replaces the value in place or appends a new entry.
func (v Values) Set(field FieldName, value string) Values {
	for i := range v {
		if v[i].Field == field {
			v[i].Value = value
			return v
		}
	}
	return append(v, Value{Field: field, Value: value})
}

func (v Values) Map() map[FieldName]string {
	out := make(map[FieldName]string, len(v))
	for _, item := range v {
		out[item.Field] = item.Value
	}
	return out
}

// Adjacency moves Field to immediately follow Anchor when both are present.
type Adjacency struct {
	Anchor FieldName `json:"anchor" yaml:"anchor"`
	Field  FieldName `json:"field" yaml:"field"`
}

// Rules holds the declarative field coupling shared by aggregation and the dialogue.
type Rules struct {
	// Reserved fields are supplied by other subsystems and never extracted or asked.
	Reserved []FieldName `json:"reserved" yaml:"reserved"`
	// Derived maps a derived field to the source field it copies.
	Derived  map[FieldName]FieldName `json:"derived" yaml:"derived"`
	Adjacent []Adjacency             `json:"adjacent" yaml:"adjacent"`
}

const (
	FieldHistNumber    FieldName = "hist_number"
	FieldCurrentDate   FieldName = "current_date"
	FieldDiagnosis     FieldName = "diagnosis"
	FieldSopDiagnosis  FieldName = "sop_diagnosis"
	FieldMainDiagnosis FieldName = "main_diagnosis"
	FieldAddress       FieldName = "address"
	FieldAddressFact   FieldName = "address_fact"
)

func DefaultRules() Rules {
	return Rules{
		Reserved: []FieldName{FieldHistNumber, FieldCurrentDate},
		Derived: map[FieldName]FieldName{
			FieldSopDiagnosis:  FieldDiagnosis,
			FieldMainDiagnosis: FieldDiagnosis,
		},
		Adjacent: []Adjacency{{Anchor: FieldAddress, Field: FieldAddressFact}},
	}
}

func (r Rules) IsReserved(f FieldName) bool {
	return slices.Contains(r.Reserved, f)
}

func (r Rules) IsDerived(f FieldName) bool {
	_, ok := r.Derived[f]
	return ok
}

// DerivedFrom lists the fields copied from source, sorted for stable output.
func (r Rules) DerivedFrom(source FieldName) []FieldName {
	var out []FieldName
	for derived, src := range r.Derived {
		if src == source {
			out = append(out, derived)
		}
	}
	slices.Sort(out)
	return out
}
