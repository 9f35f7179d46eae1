package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names reported by ValidateDraft for the fixed parts of the draft.
const (
	FieldCategory = "category"
	FieldBrand    = "brand"
	FieldItem     = "item"
	FieldLocation = "location"
	FieldImages   = "images"
)

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// ValidateDraft returns the names of everything still missing before the
// draft can be submitted. Required specifications are reported by their
// name; optional ones are never reported.
func ValidateDraft(d *ListingDraft, specs []Specification) []string {
	var missing []string
	if d.CategoryID == "" {
		missing = append(missing, FieldCategory)
	}
	if d.BrandID == "" {
		missing = append(missing, FieldBrand)
	}
	if d.ItemID == "" {
		missing = append(missing, FieldItem)
	}
	for _, s := range MissingRequired(specs, d.Specs) {
		missing = append(missing, s.Name)
	}
	if isBlank(d.Location) {
		missing = append(missing, FieldLocation)
	}
	if len(d.Images) == 0 {
		missing = append(missing, FieldImages)
	}
	return missing
}

// NormalizeAnswer checks a value against the specification's type and returns
// the value to store. An empty result means the answer should be removed.
func NormalizeAnswer(spec Specification, value string) (string, error) {
	if spec.ValueType != ValueTypeTextarea {
		value = strings.TrimSpace(value)
	}
	if isBlank(value) {
		if spec.IsRequired {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, spec.Name)
		}
		return "", nil
	}
	switch {
	case spec.IsSelect():
		if !spec.HasOption(value) {
			return "", fmt.Errorf("%w: %q is not an option for %s", ErrInvalidInput, value, spec.Name)
		}
	case spec.ValueType == ValueTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "", fmt.Errorf("%w: %s must be a number", ErrInvalidInput, spec.Name)
		}
	}
	return value, nil
}

// PruneAnswers removes answers whose specification is not in specs, keeping
// the draft's answers a subset of the loaded specifications.
func PruneAnswers(answers map[string]string, specs []Specification) map[string]string {
	out := make(map[string]string, len(answers))
	for id, v := range answers {
		if _, _, ok := FindSpecification(specs, id); ok {
			out[id] = v
		}
	}
	return out
}
