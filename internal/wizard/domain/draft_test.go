package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft_ClearFromBrandDropsDownstream(t *testing.T) {
	d := completeDraft()
	d.ClearFromBrand()

	assert.Equal(t, "phones", d.CategoryID)
	assert.Empty(t, d.BrandID)
	assert.Empty(t, d.ItemID)
	assert.Empty(t, d.Specs)
	assert.Empty(t, d.Location)
	assert.Empty(t, d.Images)
}

func TestDraft_CloneIsDeep(t *testing.T) {
	d := completeDraft()
	lat := 1.0
	d.Latitude = &lat

	c := d.Clone()
	c.Specs["storage"] = "128GB"
	c.Images[0] = "changed"
	*c.Latitude = 2

	assert.Equal(t, "256GB", d.Specs["storage"])
	assert.Equal(t, "data:image/jpeg;base64,/9j/", d.Images[0])
	assert.Equal(t, 1.0, *d.Latitude)
}

func TestDraftPatch_Apply(t *testing.T) {
	d := NewDraft()
	name := "Phones"
	step := 1
	lat := 10.5
	DraftPatch{CategoryName: &name, CurrentStep: &step, Coordinates: &Coordinates{Latitude: &lat}}.Apply(d)

	assert.Equal(t, "Phones", d.CategoryName)
	assert.Equal(t, 1, d.CurrentStep)
	require.NotNil(t, d.Latitude)
	assert.Nil(t, d.Longitude)

	lat = 99
	assert.Equal(t, 10.5, *d.Latitude, "patch values are copied")
}

func TestDraft_JSONRoundTrip(t *testing.T) {
	d := completeDraft()
	d.CurrentStep = 4
	d.Revision = 7

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	var back ListingDraft
	require.NoError(t, json.Unmarshal(raw, &back))

	assert.Equal(t, d.ID, back.ID)
	assert.Equal(t, d.Specs, back.Specs)
	assert.Equal(t, d.Images, back.Images)
	assert.Equal(t, 4, back.CurrentStep)
	assert.Contains(t, string(raw), `"categoryId":"phones"`)
}

func TestParseOptions(t *testing.T) {
	assert.Equal(t, []string{"128GB", "256GB"}, ParseOptions(`["128GB", " 256GB ", ""]`))
	assert.Nil(t, ParseOptions(""))
	assert.Nil(t, ParseOptions("not json"))
}
