package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImages is the number of photos a single listing may carry.
const MaxImages = 10

// ListingDraft is the working state of one in-progress listing submission.
// It is the JSON blob persisted between requests, so the field names are part
// of the storage format.
type ListingDraft struct {
	ID string `json:"id"`

	CategoryID   string `json:"categoryId,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`
	BrandID      string `json:"brandId,omitempty"`
	BrandName    string `json:"brandName,omitempty"`
	ItemID       string `json:"itemId,omitempty"`
	ItemName     string `json:"itemName,omitempty"`

	// Specs maps specification id to the chosen value.
	Specs map[string]string `json:"specs"`

	Location  string   `json:"location,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Images holds data URIs in upload order.
	Images []string `json:"images"`

	CurrentStep int `json:"currentStep"`

	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDraft returns an empty draft positioned on the category step. The id is
// generated here so that a retried submission of the same draft carries the
// same idempotency key.
func NewDraft() *ListingDraft {
	return &ListingDraft{
		ID:     uuid.NewString(),
		Specs:  map[string]string{},
		Images: []string{},
	}
}

// Clone returns a deep copy of the draft.
func (d *ListingDraft) Clone() *ListingDraft {
	if d == nil {
		return nil
	}
	c := *d
	c.Specs = make(map[string]string, len(d.Specs))
	for k, v := range d.Specs {
		c.Specs[k] = v
	}
	c.Images = append([]string{}, d.Images...)
	c.Latitude = copyFloat(d.Latitude)
	c.Longitude = copyFloat(d.Longitude)
	return &c
}

// Normalize repairs nil collections left by older blobs or zero values.
func (d *ListingDraft) Normalize() {
	if d.Specs == nil {
		d.Specs = map[string]string{}
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	if d.CurrentStep < 0 {
		d.CurrentStep = 0
	}
}

// Title is the listing title derived from the brand and item names.
func (d *ListingDraft) Title() string {
	return strings.TrimSpace(d.BrandName + " " + d.ItemName)
}

// HasCoordinates reports whether both latitude and longitude are set.
func (d *ListingDraft) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// ClearFromCategory drops the category and everything downstream of it.
func (d *ListingDraft) ClearFromCategory() {
	d.CategoryID, d.CategoryName = "", ""
	d.ClearFromBrand()
}

// ClearFromBrand drops the brand and everything downstream of it.
func (d *ListingDraft) ClearFromBrand() {
	d.BrandID, d.BrandName = "", ""
	d.ClearFromItem()
}

// ClearFromItem drops the item and everything downstream of it.
func (d *ListingDraft) ClearFromItem() {
	d.ItemID, d.ItemName = "", ""
	d.Specs = map[string]string{}
	d.ClearPhotosAndLocation()
}

// ClearPhotosAndLocation drops the last stage of the chain.
func (d *ListingDraft) ClearPhotosAndLocation() {
	d.Location = ""
	d.Latitude, d.Longitude = nil, nil
	d.Images = []string{}
}

// DraftPatch is a partial update. Nil fields are left untouched; a non-nil
// Specs replaces the whole mapping.
type DraftPatch struct {
	CategoryID   *string
	CategoryName *string
	BrandID      *string
	BrandName    *string
	ItemID       *string
	ItemName     *string
	Specs        map[string]string
	Location     *string
	Coordinates  *Coordinates
	Images       []string
	CurrentStep  *int
}

// Coordinates replaces both latitude and longitude; nil values clear them.
type Coordinates struct {
	Latitude  *float64
	Longitude *float64
}

// Apply shallow-merges the patch into d.
func (p DraftPatch) Apply(d *ListingDraft) {
	setString(&d.CategoryID, p.CategoryID)
	setString(&d.CategoryName, p.CategoryName)
	setString(&d.BrandID, p.BrandID)
	setString(&d.BrandName, p.BrandName)
	setString(&d.ItemID, p.ItemID)
	setString(&d.ItemName, p.ItemName)
	if p.Specs != nil {
		d.Specs = make(map[string]string, len(p.Specs))
		for k, v := range p.Specs {
			d.Specs[k] = v
		}
	}
	setString(&d.Location, p.Location)
	if p.Coordinates != nil {
		d.Latitude = copyFloat(p.Coordinates.Latitude)
		d.Longitude = copyFloat(p.Coordinates.Longitude)
	}
	if p.Images != nil {
		d.Images = append([]string{}, p.Images...)
	}
	if p.CurrentStep != nil {
		d.CurrentStep = *p.CurrentStep
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
