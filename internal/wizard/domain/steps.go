package domain

// StepKind names the semantic stage a cursor value points at.
type StepKind string

const (
	StepCategory       StepKind = "category"
	StepBrand          StepKind = "brand"
	StepDevice         StepKind = "device"
	StepSpecification  StepKind = "specification"
	StepPhotosLocation StepKind = "photos_location"
	StepReview         StepKind = "review"
)

// Fixed cursor positions ahead of the specification steps.
const (
	CategoryStep           = 0
	BrandStep              = 1
	DeviceStep             = 2
	FirstSpecificationStep = 3
)

// Step is a derived view of one wizard position. It is never persisted: the
// same cursor means different steps for items with different specification
// counts.
type Step struct {
	Index         int            `json:"index"`
	Kind          StepKind       `json:"kind"`
	Specification *Specification `json:"specification,omitempty"`
}

// PhotosStep is the cursor of the photos/location step for n specifications.
func PhotosStep(n int) int { return FirstSpecificationStep + n }

// ReviewStep is the cursor of the review step for n specifications.
func ReviewStep(n int) int { return PhotosStep(n) + 1 }

// ResolveSteps computes the ordered step list for the given specifications:
// category, brand, device, one step per specification in display order,
// photos/location and review.
func ResolveSteps(specs []Specification) []Step {
	ordered := SortSpecifications(specs)
	steps := make([]Step, 0, ReviewStep(len(ordered))+1)
	steps = append(steps,
		Step{Index: CategoryStep, Kind: StepCategory},
		Step{Index: BrandStep, Kind: StepBrand},
		Step{Index: DeviceStep, Kind: StepDevice},
	)
	for i := range ordered {
		spec := ordered[i]
		steps = append(steps, Step{Index: FirstSpecificationStep + i, Kind: StepSpecification, Specification: &spec})
	}
	steps = append(steps,
		Step{Index: PhotosStep(len(ordered)), Kind: StepPhotosLocation},
		Step{Index: ReviewStep(len(ordered)), Kind: StepReview},
	)
	return steps
}

// ClampCursor forces cursor into the valid range of steps.
func ClampCursor(steps []Step, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor >= len(steps) {
		return len(steps) - 1
	}
	return cursor
}

// ActiveStep maps a cursor onto the resolved steps, clamping out-of-range values.
func ActiveStep(steps []Step, cursor int) Step {
	return steps[ClampCursor(steps, cursor)]
}

// StepAfterSpecificationsLoaded decides where the wizard goes once an item's
// specifications arrive: the first specification step, or straight to
// photos/location when the item has none.
func StepAfterSpecificationsLoaded(n int) int {
	if n == 0 {
		return PhotosStep(0)
	}
	return FirstSpecificationStep
}

// StepAfterAnswer decides where the wizard goes after the specification at
// cursor was answered. Once every required specification has a value the
// wizard moves on to photos/location; otherwise it shows the next
// specification step, which after the last one is photos/location too.
func StepAfterAnswer(specs []Specification, answers map[string]string, cursor int) int {
	photos := PhotosStep(len(specs))
	if len(MissingRequired(specs, answers)) == 0 {
		return photos
	}
	next := cursor + 1
	if next > photos {
		return photos
	}
	return next
}

// MissingRequired lists required specifications without a non-blank answer,
// in display order.
func MissingRequired(specs []Specification, answers map[string]string) []Specification {
	var missing []Specification
	for _, s := range SortSpecifications(specs) {
		if s.IsRequired && isBlank(answers[s.ID]) {
			missing = append(missing, s)
		}
	}
	return missing
}

// MaxReachableStep is the furthest cursor the draft's data supports: a step
// can only be shown once every upstream selection has been made.
func MaxReachableStep(d *ListingDraft, specs []Specification) int {
	switch {
	case d.CategoryID == "":
		return CategoryStep
	case d.BrandID == "":
		return BrandStep
	case d.ItemID == "":
		return DeviceStep
	}
	if len(ValidateDraft(d, specs)) == 0 {
		return ReviewStep(len(specs))
	}
	return PhotosStep(len(specs))
}

// RewindTo resets d to the state it had before step n was entered and puts
// the cursor on n. specs must be the specifications of the selected item in
// display order.
func RewindTo(d *ListingDraft, n int, specs []Specification) {
	steps := ResolveSteps(specs)
	n = ClampCursor(steps, n)
	switch step := steps[n]; step.Kind {
	case StepCategory:
		d.ClearFromCategory()
	case StepBrand:
		d.ClearFromBrand()
	case StepDevice:
		d.ClearFromItem()
	case StepSpecification:
		position := n - FirstSpecificationStep
		ordered := SortSpecifications(specs)
		for _, s := range ordered[position:] {
			delete(d.Specs, s.ID)
		}
		d.ClearPhotosAndLocation()
	case StepPhotosLocation:
		d.ClearPhotosAndLocation()
	case StepReview:
	}
	d.CurrentStep = n
}
