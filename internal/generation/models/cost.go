package models

var resolutionBase = map[Resolution]int{
	Resolution1K: 1,
	Resolution2K: 2,
	Resolution4K: 4,
}

var layoutSurcharge = map[Layout]int{
	LayoutSingle:   0,
	LayoutDuo:      1,
	LayoutGrid:     2,
	LayoutLookbook: 3,
}

const poseControlSurcharge = 1

// PerImageCost is the credit price of one image for the given config.
func PerImageCost(c Config) int {
	cost := resolutionBase[c.Resolution] + layoutSurcharge[c.Layout]
	if c.PoseControl.Enabled {
		cost += poseControlSurcharge
	}
	return cost
}

// CalculateCost returns the total credits for the request. Unknown enum
// values contribute nothing; callers validate first.
func CalculateCost(c Config) int {
	if c.ImageCount <= 0 {
		return 0
	}
	return c.ImageCount * PerImageCost(c)
}
