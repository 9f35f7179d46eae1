package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeDraft() *ListingDraft {
	d := NewDraft()
	d.CategoryID, d.CategoryName = "phones", "Phones"
	d.BrandID, d.BrandName = "apple", "Apple"
	d.ItemID, d.ItemName = "iphone-15", "iPhone 15"
	d.Specs["storage"] = "256GB"
	d.Location = "Almaty, Abay Ave 10"
	d.Images = []string{"data:image/jpeg;base64,/9j/"}
	return d
}

func TestValidateDraft_Complete(t *testing.T) {
	assert.Empty(t, ValidateDraft(completeDraft(), iphoneSpecs()))
}

func TestValidateDraft_RequiredSpecificationReportedByName(t *testing.T) {
	d := completeDraft()
	delete(d.Specs, "storage")

	assert.Equal(t, []string{"Storage"}, ValidateDraft(d, iphoneSpecs()))
}

func TestValidateDraft_OptionalSpecificationNotReported(t *testing.T) {
	d := completeDraft()
	d.Specs["color"] = "   "

	assert.Empty(t, ValidateDraft(d, iphoneSpecs()))
}

func TestValidateDraft_EmptyDraft(t *testing.T) {
	got := ValidateDraft(NewDraft(), iphoneSpecs())
	assert.Equal(t, []string{FieldCategory, FieldBrand, FieldItem, "Storage", FieldLocation, FieldImages}, got)
}

func TestNormalizeAnswer(t *testing.T) {
	storage := iphoneSpecs()[1]
	color := iphoneSpecs()[0]
	ram := Specification{ID: "ram", Name: "RAM", ValueType: ValueTypeNumber}
	notes := Specification{ID: "notes", Name: "Notes", ValueType: ValueTypeTextarea}

	v, err := NormalizeAnswer(storage, " 256GB ")
	require.NoError(t, err)
	assert.Equal(t, "256GB", v)

	_, err = NormalizeAnswer(storage, "1TB")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormalizeAnswer(storage, "")
	assert.ErrorIs(t, err, ErrInvalidInput, "required answers cannot be blank")

	v, err = NormalizeAnswer(color, "")
	require.NoError(t, err)
	assert.Empty(t, v, "blank optional answer clears the value")

	_, err = NormalizeAnswer(ram, "eight")
	assert.ErrorIs(t, err, ErrInvalidInput)
	v, err = NormalizeAnswer(ram, "8")
	require.NoError(t, err)
	assert.Equal(t, "8", v)

	v, err = NormalizeAnswer(notes, "  scratch on back\n")
	require.NoError(t, err)
	assert.Equal(t, "  scratch on back\n", v)
}

func TestNormalizeAnswer_SelectWithoutOptionsIsFreeText(t *testing.T) {
	spec := Specification{ID: "x", Name: "Model year", ValueType: ValueTypeSelect}
	v, err := NormalizeAnswer(spec, "2023")
	require.NoError(t, err)
	assert.Equal(t, "2023", v)
}

func TestPruneAnswers(t *testing.T) {
	got := PruneAnswers(map[string]string{"storage": "128GB", "stale": "x"}, iphoneSpecs())
	assert.Equal(t, map[string]string{"storage": "128GB"}, got)
}

func TestBuildPayload(t *testing.T) {
	d := completeDraft()
	d.Specs["color"] = "Blue"
	lat, lng := 43.24, 76.91
	d.Latitude, d.Longitude = &lat, &lng

	p := BuildPayload(d, iphoneSpecs())

	assert.Equal(t, "Apple iPhone 15", p.Title)
	assert.Equal(t, "apple", p.CompanyID)
	assert.Equal(t, "iphone-15", p.ItemID)
	assert.Zero(t, p.Price)
	assert.Equal(t, d.ID, p.IdempotencyKey)
	assert.Equal(t, []SpecificationAnswer{{"storage", "256GB"}, {"color", "Blue"}}, p.Specifications)
	assert.Equal(t, "Storage: 256GB\nColor: Blue", p.Description)
	require.NotNil(t, p.Latitude)
	assert.InDelta(t, 43.24, *p.Latitude, 1e-9)
}
