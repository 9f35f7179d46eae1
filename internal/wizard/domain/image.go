package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MaxImageBytes is the largest accepted photo, measured on decoded bytes.
const MaxImageBytes = 1 << 20

// ImageFile is one uploaded photo before it is encoded into the draft.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURI encodes the file the way browsers' FileReader.readAsDataURL does.
func (f ImageFile) DataURI() string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// ParseDataURI decodes a base64 data URI into an ImageFile with the given name.
func ParseDataURI(name, uri string) (ImageFile, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ImageFile{}, fmt.Errorf("%w: %s is not a data URI", ErrInvalidInput, name)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ImageFile{}, fmt.Errorf("%w: %s has no data URI payload", ErrInvalidInput, name)
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return ImageFile{}, fmt.Errorf("%w: %s must be base64 encoded", ErrInvalidInput, name)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageFile{}, fmt.Errorf("%w: %s has a malformed payload", ErrInvalidInput, name)
	}
	return ImageFile{Name: name, ContentType: contentType, Data: data}, nil
}

// RejectedImage names a file that was not accepted and why.
type RejectedImage struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImageError reports images that were not added. When CapacityExceeded is set
// nothing from the batch was added.
type ImageError struct {
	Rejected         []RejectedImage
	CapacityExceeded bool
	Limit            int
}

func (e *ImageError) Error() string {
	if e.CapacityExceeded {
		return fmt.Sprintf("a listing can have at most %d images", e.Limit)
	}
	parts := make([]string, 0, len(e.Rejected))
	for _, r := range e.Rejected {
		parts = append(parts, r.Name+" ("+r.Reason+")")
	}
	return "images rejected: " + strings.Join(parts, ", ")
}

func (e *ImageError) Unwrap() error { return ErrInvalidInput }

// CheckImage validates one file against the type and size limits.
func CheckImage(f ImageFile) *RejectedImage {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return &RejectedImage{Name: f.Name, Reason: "not an image"}
	}
	if len(f.Data) == 0 {
		return &RejectedImage{Name: f.Name, Reason: "empty file"}
	}
	if len(f.Data) > MaxImageBytes {
		return &RejectedImage{Name: f.Name, Reason: "larger than 1MB"}
	}
	return nil
}
