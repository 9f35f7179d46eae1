package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Category is a top-level catalog section, e.g. "Phones".
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Brand is a manufacturer within a category. The collaborator API calls it a company.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Item is a concrete device model offered by a brand.
type Item struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Specifications []Specification `json:"specifications,omitempty"`
}

// ValueType tags how a specification is answered.
type ValueType string

const (
	ValueTypeSelect   ValueType = "select"
	ValueTypeText     ValueType = "text"
	ValueTypeNumber   ValueType = "number"
	ValueTypeTextarea ValueType = "textarea"
)

// IsValid checks if the ValueType is one of the defined constants.
func (v ValueType) IsValid() bool {
	switch v {
	case ValueTypeSelect, ValueTypeText, ValueTypeNumber, ValueTypeTextarea:
		return true
	}
	return false
}

// Specification is one admin-configured facet of an item, e.g. Storage or Color.
type Specification struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ValueType  ValueType `json:"valueType"`
	Options    []string  `json:"options,omitempty"`
	IsRequired bool      `json:"isRequired"`
	Order      int       `json:"order"`
}

// IsSelect reports whether the specification is answered by picking an option.
// A select without options falls back to free text.
func (s Specification) IsSelect() bool {
	return s.ValueType == ValueTypeSelect && len(s.Options) > 0
}

// HasOption reports whether value is one of the allowed options.
func (s Specification) HasOption(value string) bool {
	for _, o := range s.Options {
		if o == value {
			return true
		}
	}
	return false
}

// ParseOptions decodes the JSON-string option list the collaborator sends.
// Malformed input yields no options.
func ParseOptions(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil
	}
	out := opts[:0]
	for _, o := range opts {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SortSpecifications orders specifications by display order, keeping server
// order for ties.
func SortSpecifications(specs []Specification) []Specification {
	out := append([]Specification(nil), specs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// FindSpecification returns the specification with the given id.
func FindSpecification(specs []Specification, id string) (Specification, int, bool) {
	for i, s := range specs {
		if s.ID == id {
			return s, i, true
		}
	}
	return Specification{}, -1, false
}
