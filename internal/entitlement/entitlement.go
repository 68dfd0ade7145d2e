// Package entitlement maps subscription tiers to the generation features they
// unlock.
package entitlement

import (
	"fmt"
	"slices"

	"atelier/internal/generation/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

// Unlimited marks an uncapped archive.
const Unlimited = -1

// GuestMaxImages is the per-request image cap for anonymous callers.
const GuestMaxImages = 1

// Limits is what one tier may request.
type Limits struct {
	Tier           id.Tier              `json:"tier"`
	MaxResolution  models.Resolution    `json:"max_resolution"`
	Styles         []models.StylePreset `json:"styles"`
	PoseControl    bool                 `json:"pose_control"`
	Layouts        []models.Layout      `json:"layouts"`
	MonthlyCredits int                  `json:"monthly_credits"`
	ArchiveLimit   int                  `json:"archive_limit"`
}

func (l Limits) AllowsStyle(s models.StylePreset) bool {
	return slices.Contains(l.Styles, s)
}

func (l Limits) AllowsLayout(layout models.Layout) bool {
	return slices.Contains(l.Layouts, layout)
}

func (l Limits) AllowsResolution(r models.Resolution) bool {
	return r.Rank() >= 0 && r.Rank() <= l.MaxResolution.Rank()
}

// ArchiveFull reports whether count saved images already meet the cap.
func (l Limits) ArchiveFull(count int) bool {
	return l.ArchiveLimit != Unlimited && count >= l.ArchiveLimit
}

var (
	freeStyles    = []models.StylePreset{models.StyleStudio, models.StyleStreet, models.StyleMinimal}
	starterStyles = append(slices.Clone(freeStyles), models.StyleEditorial, models.StyleVintage)
	creatorStyles = append(slices.Clone(starterStyles), models.StyleRunway, models.StyleAvantGarde)
	studioStyles  = append(slices.Clone(creatorStyles), models.StyleCampaign)
)

var catalog = map[id.Tier]Limits{
	id.TierFree: {
		Tier:           id.TierFree,
		MaxResolution:  models.Resolution1K,
		Styles:         freeStyles,
		PoseControl:    false,
		Layouts:        []models.Layout{models.LayoutSingle},
		MonthlyCredits: 10,
		ArchiveLimit:   20,
	},
	id.TierStarter: {
		Tier:           id.TierStarter,
		MaxResolution:  models.Resolution2K,
		Styles:         starterStyles,
		PoseControl:    false,
		Layouts:        []models.Layout{models.LayoutSingle, models.LayoutDuo},
		MonthlyCredits: 100,
		ArchiveLimit:   200,
	},
	id.TierCreator: {
		Tier:           id.TierCreator,
		MaxResolution:  models.Resolution4K,
		Styles:         creatorStyles,
		PoseControl:    true,
		Layouts:        []models.Layout{models.LayoutSingle, models.LayoutDuo, models.LayoutGrid},
		MonthlyCredits: 300,
		ArchiveLimit:   1000,
	},
	id.TierStudio: {
		Tier:           id.TierStudio,
		MaxResolution:  models.Resolution4K,
		Styles:         studioStyles,
		PoseControl:    true,
		Layouts:        []models.Layout{models.LayoutSingle, models.LayoutDuo, models.LayoutGrid, models.LayoutLookbook},
		MonthlyCredits: 1000,
		ArchiveLimit:   Unlimited,
	},
}

// For returns the limits of tier. Unknown tiers fall back to free.
func For(tier id.Tier) Limits {
	if l, ok := catalog[tier]; ok {
		return l
	}
	return catalog[id.TierFree]
}

// Catalog lists every tier, cheapest first.
func Catalog() []Limits {
	out := make([]Limits, 0, len(catalog))
	for _, t := range id.AllTiers() {
		out = append(out, catalog[t])
	}
	return out
}

// MinimumTierFor returns the cheapest tier that would accept cfg.
func MinimumTierFor(cfg models.Config) (id.Tier, bool) {
	for _, t := range id.AllTiers() {
		if Authorize(t, cfg) == nil {
			return t, true
		}
	}
	return "", false
}

// Authorize returns a forbidden error naming the first feature of cfg that
// tier does not include.
func Authorize(tier id.Tier, cfg models.Config) error {
	l := For(tier)
	if !l.AllowsResolution(cfg.Resolution) {
		return forbidden("resolution %s requires a higher tier (max %s)", cfg.Resolution, l.MaxResolution)
	}
	if !l.AllowsStyle(cfg.Style.Preset) {
		return forbidden("style %q is not included in the %s tier", cfg.Style.Preset, tier)
	}
	if cfg.PoseControl.Enabled && !l.PoseControl {
		return forbidden("pose control is not included in the %s tier", tier)
	}
	if !l.AllowsLayout(cfg.Layout) {
		return forbidden("layout %q is not included in the %s tier", cfg.Layout, tier)
	}
	return nil
}

// AuthorizeGuest applies the free tier plus the single-image guest cap.
func AuthorizeGuest(cfg models.Config) error {
	if err := Authorize(id.TierFree, cfg); err != nil {
		return err
	}
	if cfg.ImageCount > GuestMaxImages {
		return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("guests may generate %d image per request; sign in for more", GuestMaxImages))
	}
	return nil
}

func forbidden(format string, args ...any) error {
	return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf(format, args...))
}
