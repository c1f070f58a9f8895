package templates

import (
	"fmt"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
)

const (
	clientsComponentID = "clients"
	staffComponentID   = "staff"
	staffTabLabel      = "Staff"
	servicesTabLabel   = "Services"
	galleryTabLabel    = "Gallery"
)

type family struct {
	name    string
	aliases []Alias
	base    []dashboard.Tab
	extras  map[string]dashboard.Component
	tweaks  map[string]Tweak
}

func (f *family) build(businessType string) (*Template, bool) {
	tweak, ok := f.tweaks[businessType]
	if !ok {
		return nil, false
	}
	cfg := &dashboard.Configuration{
		BusinessType: businessType,
		Tabs:         make([]dashboard.Tab, len(f.base)),
		Colors:       dashboard.Palette{},
	}
	for i := range f.base {
		cfg.Tabs[i] = f.base[i].Clone()
	}
	f.applyTweak(cfg, tweak)
	return &Template{
		BusinessType: businessType,
		Family:       f.name,
		Config:       cfg,
		LockedIDs:    lockedIDs(cfg),
	}, true
}

func (f *family) applyTweak(cfg *dashboard.Configuration, tw Tweak) {
	if len(tw.Stages) > 0 {
		stages := make([]dashboard.RawStage, len(tw.Stages))
		for i, name := range tw.Stages {
			stages[i] = dashboard.RawStage{Name: name}
		}
		eachComponent(cfg, func(_ *dashboard.Tab, c *dashboard.Component) {
			if c.ID == clientsComponentID && c.View == dashboard.ViewPipeline {
				c.Stages = append([]dashboard.RawStage(nil), stages...)
			}
		})
	}
	if tw.ClientsLabel != "" {
		eachComponent(cfg, func(_ *dashboard.Tab, c *dashboard.Component) {
			if c.ID == clientsComponentID {
				c.Label = tw.ClientsLabel
			}
		})
	}
	if tw.StaffLabel != "" {
		eachComponent(cfg, func(t *dashboard.Tab, c *dashboard.Component) {
			if t.Label == staffTabLabel && c.ID == staffComponentID {
				c.Label = tw.StaffLabel
			}
		})
	}
	if tw.RemoveStaff {
		kept := cfg.Tabs[:0]
		for _, t := range cfg.Tabs {
			if t.Label != staffTabLabel {
				kept = append(kept, t)
			}
		}
		cfg.Tabs = kept
		for i := range cfg.Tabs {
			cfg.Tabs[i].ID = fmt.Sprintf("tab_%d", i+1)
		}
	}
	if tw.AddWaivers {
		if i := cfg.TabByLabel(servicesTabLabel); i >= 0 {
			cfg.Tabs[i].Components = append(cfg.Tabs[i].Components, f.extra("waivers"))
		}
	}
	if tw.AddTreatments {
		if i := cfg.TabByLabel(servicesTabLabel); i >= 0 {
			cfg.Tabs[i].Components = append([]dashboard.Component{f.extra("treatments")}, cfg.Tabs[i].Components...)
		}
	}
	if tw.AddPortfolios {
		if i := cfg.TabByLabel(galleryTabLabel); i >= 0 {
			cfg.Tabs[i].Components = append(cfg.Tabs[i].Components, f.extra("portfolios"))
		}
	}
}

func (f *family) extra(key string) dashboard.Component {
	return f.extras[key].Clone()
}

func eachComponent(cfg *dashboard.Configuration, fn func(*dashboard.Tab, *dashboard.Component)) {
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		for j := range tab.Components {
			fn(tab, &tab.Components[j])
		}
	}
}

func lockedIDs(cfg *dashboard.Configuration) []string {
	seen := make(map[string]struct{})
	var ids []string
	eachComponent(cfg, func(_ *dashboard.Tab, c *dashboard.Component) {
		if !c.Locked {
			return
		}
		if _, ok := seen[c.ID]; ok {
			return
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	})
	return ids
}
