package usecase

import (
	"context"
	"strings"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
)

// AutoAdvanceDelayMs is how long clients wait before showing the step the
// wizard advanced to on its own.
const AutoAdvanceDelayMs = 300

// Tile is one selectable card in a category, brand or device grid.
type Tile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Selected bool   `json:"selected"`
}

// SelectOption is one button of a select specification.
type SelectOption struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// SpecificationInput describes the input of a specification step.
type SpecificationInput struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	ValueType domain.ValueType `json:"valueType"`
	Required  bool             `json:"required"`
	Position  int              `json:"position"`
	Count     int              `json:"count"`
	Value     string           `json:"value"`
	// FreeText is set for every non-select input, including selects without options.
	FreeText bool           `json:"freeText"`
	Options  []SelectOption `json:"options,omitempty"`
}

// PhotosView is the state of the photos/location step.
type PhotosView struct {
	Images          []string `json:"images"`
	RemainingImages int      `json:"remainingImages"`
	MaxImages       int      `json:"maxImages"`
	MaxImageBytes   int      `json:"maxImageBytes"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// AnsweredSpecification is a line of the review summary.
type AnsweredSpecification struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReviewView is the read-only summary shown before submitting.
type ReviewView struct {
	Title          string                  `json:"title"`
	Category       string                  `json:"category"`
	Specifications []AnsweredSpecification `json:"specifications"`
	Location       string                  `json:"location"`
	ImageCount     int                     `json:"imageCount"`
	Missing        []string                `json:"missing"`
	Ready          bool                    `json:"ready"`
	AuthRequired   bool                    `json:"authRequired"`
}

// StepView is everything a client needs to draw the active step.
type StepView struct {
	Kind               domain.StepKind `json:"kind"`
	Index              int             `json:"index"`
	Total              int             `json:"total"`
	AutoAdvanceDelayMs int             `json:"autoAdvanceDelayMs"`
	Query              string          `json:"query,omitempty"`
	Loading            bool            `json:"loading"`
	Error              string          `json:"error,omitempty"`

	Categories    []Tile              `json:"categories,omitempty"`
	Brands        []Tile              `json:"brands,omitempty"`
	Items         []Tile              `json:"items,omitempty"`
	Specification *SpecificationInput `json:"specification,omitempty"`
	Photos        *PhotosView         `json:"photos,omitempty"`
	Review        *ReviewView         `json:"review,omitempty"`
}

// PassthroughFilter is the default ItemFilter; it keeps every item.
type PassthroughFilter struct{}

// FilterItems implements domain.ItemFilter.
func (PassthroughFilter) FilterItems(_ context.Context, items []domain.Item, _ map[string]string) []domain.Item {
	return items
}

// Renderer builds step views. It holds no state of its own.
type Renderer struct {
	filter domain.ItemFilter
}

// NewRenderer creates a Renderer. A nil filter keeps every item.
func NewRenderer(filter domain.ItemFilter) *Renderer {
	if filter == nil {
		filter = PassthroughFilter{}
	}
	return &Renderer{filter: filter}
}

func matches(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), query)
}

// specificationsOf returns the loaded specifications when they belong to the
// draft's item, otherwise none.
func specificationsOf(d *domain.ListingDraft, snap CatalogSnapshot) []domain.Specification {
	if d.ItemID == "" || snap.SpecificationsItemID != d.ItemID {
		return nil
	}
	return snap.Specifications
}

// Render builds the view of the draft's active step. query narrows the brand
// and device grids by case-insensitive substring.
func (r *Renderer) Render(ctx context.Context, d *domain.ListingDraft, snap CatalogSnapshot, query string, authRequired bool) StepView {
	specs := specificationsOf(d, snap)
	steps := domain.ResolveSteps(specs)
	step := domain.ActiveStep(steps, d.CurrentStep)
	query = strings.ToLower(strings.TrimSpace(query))

	view := StepView{
		Kind:               step.Kind,
		Index:              step.Index,
		Total:              len(steps),
		AutoAdvanceDelayMs: AutoAdvanceDelayMs,
		Query:              query,
	}

	switch step.Kind {
	case domain.StepCategory:
		view.Loading = snap.Loading[ListCategories]
		view.Error = snap.Errors[ListCategories]
		view.Categories = make([]Tile, 0, len(snap.Categories))
		for _, c := range snap.Categories {
			view.Categories = append(view.Categories, Tile{ID: c.ID, Name: c.Name, Icon: c.Icon, Selected: c.ID == d.CategoryID})
		}
	case domain.StepBrand:
		view.Loading = snap.Loading[ListBrands]
		view.Error = snap.Errors[ListBrands]
		view.Brands = make([]Tile, 0, len(snap.Brands))
		for _, b := range snap.Brands {
			if matches(b.Name, query) {
				view.Brands = append(view.Brands, Tile{ID: b.ID, Name: b.Name, Icon: b.Icon, Selected: b.ID == d.BrandID})
			}
		}
	case domain.StepDevice:
		view.Loading = snap.Loading[ListItems] || snap.Loading[ListSpecifications]
		view.Error = snap.Errors[ListItems]
		if view.Error == "" {
			view.Error = snap.Errors[ListSpecifications]
		}
		items := r.filter.FilterItems(ctx, snap.Items, d.Specs)
		view.Items = make([]Tile, 0, len(items))
		for _, it := range items {
			if matches(it.Name, query) {
				view.Items = append(view.Items, Tile{ID: it.ID, Name: it.Name, Selected: it.ID == d.ItemID})
			}
		}
	case domain.StepSpecification:
		view.Specification = specificationInput(*step.Specification, step.Index-domain.FirstSpecificationStep, len(specs), d.Specs)
	case domain.StepPhotosLocation:
		view.Photos = &PhotosView{
			Images:          append([]string{}, d.Images...),
			RemainingImages: domain.MaxImages - len(d.Images),
			MaxImages:       domain.MaxImages,
			MaxImageBytes:   domain.MaxImageBytes,
			Location:        d.Location,
			Latitude:        d.Latitude,
			Longitude:       d.Longitude,
		}
	case domain.StepReview:
		view.Review = reviewView(d, specs, authRequired)
	}
	return view
}

func specificationInput(spec domain.Specification, position, count int, answers map[string]string) *SpecificationInput {
	value := answers[spec.ID]
	in := &SpecificationInput{
		ID:        spec.ID,
		Name:      spec.Name,
		ValueType: spec.ValueType,
		Required:  spec.IsRequired,
		Position:  position,
		Count:     count,
		Value:     value,
		FreeText:  !spec.IsSelect(),
	}
	if spec.IsSelect() {
		in.Options = make([]SelectOption, 0, len(spec.Options))
		for _, o := range spec.Options {
			in.Options = append(in.Options, SelectOption{Value: o, Selected: o == value})
		}
	}
	return in
}

func reviewView(d *domain.ListingDraft, specs []domain.Specification, authRequired bool) *ReviewView {
	missing := domain.ValidateDraft(d, specs)
	if missing == nil {
		missing = []string{}
	}
	rv := &ReviewView{
		Title:          d.Title(),
		Category:       d.CategoryName,
		Specifications: []AnsweredSpecification{},
		Location:       d.Location,
		ImageCount:     len(d.Images),
		Missing:        missing,
		Ready:          len(missing) == 0,
		AuthRequired:   authRequired,
	}
	for _, s := range domain.SortSpecifications(specs) {
		if v, ok := d.Specs[s.ID]; ok && strings.TrimSpace(v) != "" {
			rv.Specifications = append(rv.Specifications, AnsweredSpecification{Name: s.Name, Value: v})
		}
	}
	return rv
}
