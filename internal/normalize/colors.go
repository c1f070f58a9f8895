package normalize

import (
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

// EnforcePalette guarantees a complete palette whose buttons color is not a
// generic default. When the buttons slot is missing or forbidden the palette
// is rebuilt from the industry default and every other generated value that
// is set and not itself forbidden is laid back on top. Otherwise only missing
// slots are filled.
func EnforcePalette(cfg *dashboard.Configuration, businessType string, t *policy.Tables, r *Report) {
	colors := cfg.Colors
	buttons := colors[dashboard.SlotButtons]
	base := t.PaletteFor(businessType)

	if len(colors) == 0 || buttons == "" || t.IsForbiddenButton(buttons) {
		for slot, v := range colors {
			if v == "" || slot == dashboard.SlotButtons || t.IsForbiddenButton(v) {
				continue
			}
			base[slot] = v
		}
		cfg.Colors = base
		r.add(Correction{Kind: KindPaletteReplaced, Detail: "buttons " + orNone(buttons)})
		return
	}

	for _, slot := range dashboard.PaletteSlots {
		if colors[slot] != "" {
			continue
		}
		colors[slot] = base[slot]
		r.add(Correction{Kind: KindPaletteFilled, Detail: slot})
	}
}

func orNone(s string) string {
	if s == "" {
		return "missing"
	}
	return s
}
