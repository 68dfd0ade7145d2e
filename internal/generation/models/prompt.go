package models

import (
	"fmt"
	"strings"
)

var styleDirections = map[StylePreset]string{
	StyleStudio:     "clean professional studio photoshoot with seamless backdrop",
	StyleStreet:     "candid urban street-style photograph",
	StyleMinimal:    "minimalist composition with neutral tones and negative space",
	StyleEditorial:  "high-fashion magazine editorial photograph",
	StyleVintage:    "vintage film photograph with soft grain and warm tones",
	StyleRunway:     "runway show photograph mid-stride under catwalk lighting",
	StyleAvantGarde: "avant-garde conceptual fashion photograph with bold art direction",
	StyleCampaign:   "luxury brand advertising campaign photograph",
}

var layoutDirections = map[Layout]string{
	LayoutSingle:   "a single model in frame",
	LayoutDuo:      "two models side by side wearing coordinated looks",
	LayoutGrid:     "a 2x2 grid of the same model in four distinct poses",
	LayoutLookbook: "a lookbook spread of the model in multiple full-body poses",
}

var resolutionDirections = map[Resolution]string{
	Resolution1K: "standard definition",
	Resolution2K: "high definition",
	Resolution4K: "ultra high definition, fine fabric detail",
}

// BuildPrompt renders the instruction text sent to the image model. Output is
// deterministic for a given config.
func BuildPrompt(c Config) string {
	var b strings.Builder

	b.WriteString("Create a photorealistic fashion photograph: ")
	b.WriteString(styleDirections[c.Style.Preset])
	b.WriteString(".\n")

	fmt.Fprintf(&b, "Model: %s, age %s", humanize(string(c.Model.Gender)), c.Model.AgeRange)
	if c.Model.Ethnicity != "" {
		fmt.Fprintf(&b, ", %s", c.Model.Ethnicity)
	}
	if c.Model.BodyType != "" {
		fmt.Fprintf(&b, ", %s build", humanize(string(c.Model.BodyType)))
	}
	b.WriteString(".\n")

	if c.Outfit.Description != "" {
		fmt.Fprintf(&b, "Outfit: %s.\n", c.Outfit.Description)
	}
	if c.Outfit.ReferenceImage != "" {
		b.WriteString("Reproduce the garment in the attached reference image faithfully, keeping its cut, color and texture.\n")
	}

	pose := c.Model.Pose
	if c.PoseControl.Enabled && c.PoseControl.Description != "" {
		pose = c.PoseControl.Description
	}
	if pose != "" {
		if c.PoseControl.Enabled {
			fmt.Fprintf(&b, "Pose (follow exactly): %s.\n", pose)
		} else {
			fmt.Fprintf(&b, "Pose: %s.\n", pose)
		}
	}

	if c.Style.Background != "" {
		fmt.Fprintf(&b, "Background: %s.\n", c.Style.Background)
	}
	if c.Style.Lighting != "" {
		fmt.Fprintf(&b, "Lighting: %s.\n", c.Style.Lighting)
	}

	fmt.Fprintf(&b, "Composition: %s, aspect ratio %s, %s.", layoutDirections[c.Layout], c.AspectRatio, resolutionDirections[c.Resolution])
	return b.String()
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}
