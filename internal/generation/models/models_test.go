package models

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "atelier/pkg/domain-errors"
)

func validConfig() Config {
	return Config{
		Model:       ModelSpec{Gender: GenderFemale, AgeRange: Age25to34},
		Outfit:      OutfitSpec{Description: "linen blazer and wide trousers"},
		Style:       StyleSpec{Preset: StyleStudio},
		Resolution:  Resolution1K,
		AspectRatio: AspectPortrait,
		Layout:      LayoutSingle,
		ImageCount:  1,
	}
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   int
	}{
		{"single 1K", func(*Config) {}, 1},
		{"2K", func(c *Config) { c.Resolution = Resolution2K }, 2},
		{"4K", func(c *Config) { c.Resolution = Resolution4K }, 4},
		{"pose control", func(c *Config) { c.PoseControl.Enabled = true }, 2},
		{"duo", func(c *Config) { c.Layout = LayoutDuo }, 2},
		{"grid", func(c *Config) { c.Layout = LayoutGrid }, 3},
		{"lookbook", func(c *Config) { c.Layout = LayoutLookbook }, 4},
		{"4K lookbook pose x4", func(c *Config) {
			c.Resolution = Resolution4K
			c.Layout = LayoutLookbook
			c.PoseControl.Enabled = true
			c.ImageCount = 4
		}, 4 * (4 + 3 + 1)},
		{"2K duo x3", func(c *Config) {
			c.Resolution = Resolution2K
			c.Layout = LayoutDuo
			c.ImageCount = 3
		}, 9},
		{"zero images", func(c *Config) { c.ImageCount = 0 }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			assert.Equal(t, tt.want, CalculateCost(c))
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	c := Config{
		Model:      ModelSpec{Gender: " Female ", AgeRange: "25-34"},
		Outfit:     OutfitSpec{Description: "  dress ", ReferenceImage: "data:image/png;base64,QUJD", ReferenceMimeType: "IMAGE/PNG"},
		Style:      StyleSpec{Preset: "Avant_Garde"},
		Resolution: "2k",
	}
	c.Normalize()

	assert.Equal(t, GenderFemale, c.Model.Gender)
	assert.Equal(t, "dress", c.Outfit.Description)
	assert.Equal(t, "QUJD", c.Outfit.ReferenceImage)
	assert.Equal(t, "image/png", c.Outfit.ReferenceMimeType)
	assert.Equal(t, StyleAvantGarde, c.Style.Preset)
	assert.Equal(t, Resolution2K, c.Resolution)
	assert.Equal(t, LayoutSingle, c.Layout)
	assert.Equal(t, AspectPortrait, c.AspectRatio)
	assert.Equal(t, 1, c.ImageCount)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing gender", func(c *Config) { c.Model.Gender = "" }, "model.gender is required"},
		{"bad gender", func(c *Config) { c.Model.Gender = "robot" }, "model.gender must be"},
		{"missing outfit", func(c *Config) { c.Outfit.Description = "" }, "outfit.description or outfit.reference_image is required"},
		{"reference only", func(c *Config) {
			c.Outfit.Description = ""
			c.Outfit.ReferenceImage = png
			c.Outfit.ReferenceMimeType = "image/png"
		}, ""},
		{"unknown preset", func(c *Config) { c.Style.Preset = "noir" }, "style.preset"},
		{"bad resolution", func(c *Config) { c.Resolution = "8K" }, "resolution must be"},
		{"bad aspect", func(c *Config) { c.AspectRatio = "2:1" }, "aspect_ratio"},
		{"bad layout", func(c *Config) { c.Layout = "collage" }, "layout"},
		{"too many images", func(c *Config) { c.ImageCount = 5 }, "image_count must be between 1 and 4"},
		{"no images", func(c *Config) { c.ImageCount = 0 }, "image_count must be between 1 and 4"},
		{"gif reference", func(c *Config) {
			c.Outfit.ReferenceImage = png
			c.Outfit.ReferenceMimeType = "image/gif"
		}, "reference_mime_type"},
		{"bad base64", func(c *Config) {
			c.Outfit.ReferenceImage = "!!!"
			c.Outfit.ReferenceMimeType = "image/png"
		}, "not valid base64"},
		{"oversized reference", func(c *Config) {
			c.Outfit.ReferenceImage = base64.StdEncoding.EncodeToString(make([]byte, MaxReferenceImageBytes+1))
			c.Outfit.ReferenceMimeType = "image/jpeg"
		}, "reference image exceeds 8 MiB"},
		{"pose control without pose", func(c *Config) { c.PoseControl.Enabled = true }, "pose_control requires"},
		{"long description", func(c *Config) { c.Outfit.Description = strings.Repeat("a", 1001) }, "1000 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			assert.Contains(t, dErrors.Message(err), tt.wantMsg)
		})
	}
}

func TestValidate_ExactlyMaxReferenceAccepted(t *testing.T) {
	c := validConfig()
	c.Outfit.ReferenceImage = base64.StdEncoding.EncodeToString(make([]byte, MaxReferenceImageBytes))
	c.Outfit.ReferenceMimeType = "image/webp"
	assert.NoError(t, c.Validate())
}

func TestBuildPrompt(t *testing.T) {
	c := validConfig()
	c.Model.Ethnicity = "East Asian"
	c.Model.BodyType = BodyPlusSize
	c.Style.Background = "sunlit loft"
	c.PoseControl = PoseControl{Enabled: true, Description: "hands in pockets"}
	c.Layout = LayoutDuo

	p := BuildPrompt(c)
	assert.Contains(t, p, "studio photoshoot")
	assert.Contains(t, p, "female, age 25-34, East Asian, plus-size build")
	assert.Contains(t, p, "Outfit: linen blazer and wide trousers.")
	assert.Contains(t, p, "Pose (follow exactly): hands in pockets.")
	assert.Contains(t, p, "Background: sunlit loft.")
	assert.Contains(t, p, "two models side by side")
	assert.Contains(t, p, "aspect ratio 3:4")
	assert.Equal(t, p, BuildPrompt(c), "prompt is deterministic")
	assert.NotContains(t, p, "reference image")
}
