package models

// Resolution is the requested output size.
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

func (r Resolution) IsValid() bool {
	return r.Rank() >= 0
}

// Rank orders resolutions so entitlement checks can compare against a cap.
func (r Resolution) Rank() int {
	switch r {
	case Resolution1K:
		return 0
	case Resolution2K:
		return 1
	case Resolution4K:
		return 2
	}
	return -1
}

type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectStory     AspectRatio = "9:16"
	AspectWide      AspectRatio = "16:9"
)

func (a AspectRatio) IsValid() bool {
	switch a {
	case AspectSquare, AspectPortrait, AspectLandscape, AspectStory, AspectWide:
		return true
	}
	return false
}

// Layout controls how many model figures appear in one frame.
type Layout string

const (
	LayoutSingle   Layout = "single"
	LayoutDuo      Layout = "duo"
	LayoutGrid     Layout = "grid"
	LayoutLookbook Layout = "lookbook"
)

func (l Layout) IsValid() bool {
	switch l {
	case LayoutSingle, LayoutDuo, LayoutGrid, LayoutLookbook:
		return true
	}
	return false
}

type StylePreset string

const (
	StyleStudio     StylePreset = "studio"
	StyleStreet     StylePreset = "street"
	StyleMinimal    StylePreset = "minimal"
	StyleEditorial  StylePreset = "editorial"
	StyleVintage    StylePreset = "vintage"
	StyleRunway     StylePreset = "runway"
	StyleAvantGarde StylePreset = "avant_garde"
	StyleCampaign   StylePreset = "campaign"
)

func (s StylePreset) IsValid() bool {
	switch s {
	case StyleStudio, StyleStreet, StyleMinimal, StyleEditorial,
		StyleVintage, StyleRunway, StyleAvantGarde, StyleCampaign:
		return true
	}
	return false
}

type Gender string

const (
	GenderFemale    Gender = "female"
	GenderMale      Gender = "male"
	GenderNonBinary Gender = "non_binary"
)

func (g Gender) IsValid() bool {
	return g == GenderFemale || g == GenderMale || g == GenderNonBinary
}

type AgeRange string

const (
	Age18to24 AgeRange = "18-24"
	Age25to34 AgeRange = "25-34"
	Age35to44 AgeRange = "35-44"
	Age45to54 AgeRange = "45-54"
	Age55Plus AgeRange = "55+"
)

func (a AgeRange) IsValid() bool {
	switch a {
	case Age18to24, Age25to34, Age35to44, Age45to54, Age55Plus:
		return true
	}
	return false
}

type BodyType string

const (
	BodySlim     BodyType = "slim"
	BodyAthletic BodyType = "athletic"
	BodyAverage  BodyType = "average"
	BodyCurvy    BodyType = "curvy"
	BodyPlusSize BodyType = "plus_size"
)

// IsValid accepts the empty value; body type is optional.
func (b BodyType) IsValid() bool {
	switch b {
	case "", BodySlim, BodyAthletic, BodyAverage, BodyCurvy, BodyPlusSize:
		return true
	}
	return false
}
