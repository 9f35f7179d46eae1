package domain

import (
	"fmt"
	"strings"
)

// SpecificationAnswer pairs an answered specification with its value.
type SpecificationAnswer struct {
	SpecificationID string `json:"specificationId"`
	Value           string `json:"value"`
}

// ListingPayload is the body posted to the listing-creation endpoint.
type ListingPayload struct {
	ItemID         string                `json:"itemId"`
	CompanyID      string                `json:"companyId"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Price          float64               `json:"price"`
	Address        string                `json:"address"`
	Latitude       *float64              `json:"latitude"`
	Longitude      *float64              `json:"longitude"`
	Specifications []SpecificationAnswer `json:"specifications"`
	Images         []string              `json:"images"`
	IdempotencyKey string                `json:"idempotencyKey"`
}

// CreatedListing is the subset of the created listing the wizard reports back.
type CreatedListing struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// BuildPayload assembles the submission body from a validated draft. Answers
// are listed in display order and blank ones are skipped.
func BuildPayload(d *ListingDraft, specs []Specification) ListingPayload {
	ordered := SortSpecifications(specs)
	answers := make([]SpecificationAnswer, 0, len(d.Specs))
	lines := make([]string, 0, len(d.Specs))
	for _, s := range ordered {
		v, ok := d.Specs[s.ID]
		if !ok || isBlank(v) {
			continue
		}
		answers = append(answers, SpecificationAnswer{SpecificationID: s.ID, Value: v})
		lines = append(lines, fmt.Sprintf("%s: %s", s.Name, v))
	}
	return ListingPayload{
		ItemID:         d.ItemID,
		CompanyID:      d.BrandID,
		Title:          d.Title(),
		Description:    strings.Join(lines, "\n"),
		Price:          0,
		Address:        strings.TrimSpace(d.Location),
		Latitude:       copyFloat(d.Latitude),
		Longitude:      copyFloat(d.Longitude),
		Specifications: answers,
		Images:         append([]string{}, d.Images...),
		IdempotencyKey: d.ID,
	}
}
