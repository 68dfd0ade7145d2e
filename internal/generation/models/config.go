package models

import (
	"encoding/base64"
	"fmt"
	"strings"

	dErrors "atelier/pkg/domain-errors"
)

const (
	MinImageCount = 1
	MaxImageCount = 4

	// MaxReferenceImageBytes caps the decoded reference upload.
	MaxReferenceImageBytes = 8 << 20

	maxDescriptionLen = 1000
	maxShortFieldLen  = 200
	maxPoseLen        = 300
)

var allowedReferenceMimeTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

// ModelSpec describes the person wearing the outfit.
type ModelSpec struct {
	Gender    Gender   `json:"gender"`
	AgeRange  AgeRange `json:"age_range"`
	Ethnicity string   `json:"ethnicity,omitempty"`
	BodyType  BodyType `json:"body_type,omitempty"`
	Pose      string   `json:"pose,omitempty"`
}

// OutfitSpec describes the garment, optionally with a reference photo.
type OutfitSpec struct {
	Description       string `json:"description"`
	ReferenceImage    string `json:"reference_image,omitempty"`
	ReferenceMimeType string `json:"reference_mime_type,omitempty"`
}

type StyleSpec struct {
	Preset     StylePreset `json:"preset"`
	Background string      `json:"background,omitempty"`
	Lighting   string      `json:"lighting,omitempty"`
}

type PoseControl struct {
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

// Config is the full photoshoot request assembled by the client.
type Config struct {
	Model       ModelSpec   `json:"model"`
	Outfit      OutfitSpec  `json:"outfit"`
	Style       StyleSpec   `json:"style"`
	Resolution  Resolution  `json:"resolution"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Layout      Layout      `json:"layout"`
	PoseControl PoseControl `json:"pose_control"`
	ImageCount  int         `json:"image_count"`
}

// Normalize trims free text and lowercases enum-like fields. Resolution keeps
// its canonical upper-case form.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Model.Gender = Gender(lowerTrim(string(c.Model.Gender)))
	c.Model.AgeRange = AgeRange(strings.TrimSpace(string(c.Model.AgeRange)))
	c.Model.Ethnicity = strings.TrimSpace(c.Model.Ethnicity)
	c.Model.BodyType = BodyType(lowerTrim(string(c.Model.BodyType)))
	c.Model.Pose = strings.TrimSpace(c.Model.Pose)
	c.Outfit.Description = strings.TrimSpace(c.Outfit.Description)
	c.Outfit.ReferenceImage = stripDataURL(strings.TrimSpace(c.Outfit.ReferenceImage))
	c.Outfit.ReferenceMimeType = lowerTrim(c.Outfit.ReferenceMimeType)
	c.Style.Preset = StylePreset(lowerTrim(string(c.Style.Preset)))
	c.Style.Background = strings.TrimSpace(c.Style.Background)
	c.Style.Lighting = strings.TrimSpace(c.Style.Lighting)
	c.Resolution = Resolution(strings.ToUpper(strings.TrimSpace(string(c.Resolution))))
	c.AspectRatio = AspectRatio(strings.TrimSpace(string(c.AspectRatio)))
	c.Layout = Layout(lowerTrim(string(c.Layout)))
	c.PoseControl.Description = strings.TrimSpace(c.PoseControl.Description)
	if c.ImageCount == 0 {
		c.ImageCount = 1
	}
	if c.Layout == "" {
		c.Layout = LayoutSingle
	}
	if c.AspectRatio == "" {
		c.AspectRatio = AspectPortrait
	}
}

// Validate follows the order Size -> Required -> Syntax -> Semantic.
func (c *Config) Validate() error {
	if c == nil {
		return dErrors.New(dErrors.CodeBadRequest, "config is required")
	}

	if len(c.Outfit.Description) > maxDescriptionLen {
		return invalid("outfit.description must be %d characters or less", maxDescriptionLen)
	}
	for field, v := range map[string]string{
		"model.ethnicity":  c.Model.Ethnicity,
		"model.pose":       c.Model.Pose,
		"style.background": c.Style.Background,
		"style.lighting":   c.Style.Lighting,
	} {
		if len(v) > maxShortFieldLen {
			return invalid("%s must be %d characters or less", field, maxShortFieldLen)
		}
	}
	if len(c.PoseControl.Description) > maxPoseLen {
		return invalid("pose_control.description must be %d characters or less", maxPoseLen)
	}
	if base64.StdEncoding.DecodedLen(len(c.Outfit.ReferenceImage)) > MaxReferenceImageBytes+2 {
		return invalid("reference image exceeds %d MiB", MaxReferenceImageBytes>>20)
	}

	if c.Model.Gender == "" {
		return invalid("model.gender is required")
	}
	if c.Model.AgeRange == "" {
		return invalid("model.age_range is required")
	}
	if c.Outfit.Description == "" && c.Outfit.ReferenceImage == "" {
		return invalid("outfit.description or outfit.reference_image is required")
	}
	if c.Style.Preset == "" {
		return invalid("style.preset is required")
	}
	if c.Resolution == "" {
		return invalid("resolution is required")
	}

	if !c.Model.Gender.IsValid() {
		return invalid("model.gender must be one of female, male, non_binary")
	}
	if !c.Model.AgeRange.IsValid() {
		return invalid("model.age_range is not a supported range")
	}
	if !c.Model.BodyType.IsValid() {
		return invalid("model.body_type is not supported")
	}
	if !c.Style.Preset.IsValid() {
		return invalid("style.preset %q is not supported", c.Style.Preset)
	}
	if !c.Resolution.IsValid() {
		return invalid("resolution must be 1K, 2K or 4K")
	}
	if !c.AspectRatio.IsValid() {
		return invalid("aspect_ratio %q is not supported", c.AspectRatio)
	}
	if !c.Layout.IsValid() {
		return invalid("layout %q is not supported", c.Layout)
	}

	if c.ImageCount < MinImageCount || c.ImageCount > MaxImageCount {
		return invalid("image_count must be between %d and %d", MinImageCount, MaxImageCount)
	}
	if c.Outfit.ReferenceImage != "" {
		if _, ok := allowedReferenceMimeTypes[c.Outfit.ReferenceMimeType]; !ok {
			return invalid("reference_mime_type must be image/png, image/jpeg or image/webp")
		}
		decoded, err := base64.StdEncoding.DecodeString(c.Outfit.ReferenceImage)
		if err != nil {
			return invalid("reference_image is not valid base64")
		}
		if len(decoded) > MaxReferenceImageBytes {
			return invalid("reference image exceeds %d MiB", MaxReferenceImageBytes>>20)
		}
	}
	if c.PoseControl.Enabled && c.PoseControl.Description == "" && c.Model.Pose == "" {
		return invalid("pose_control requires a pose description")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf(format, args...))
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripDataURL drops a "data:image/png;base64," prefix some clients send.
func stripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}
