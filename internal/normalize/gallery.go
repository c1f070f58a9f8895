package normalize

import (
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

// EnsureGallery adds a gallery component for visually driven industries that
// have none. The component goes into the first tab whose label suggests
// visual work; failing that, a new Gallery tab is inserted before a trailing
// Settings tab or appended. A full tab list is never grown: the component
// then joins the last ordinary tab instead.
func EnsureGallery(cfg *dashboard.Configuration, businessType string, t *policy.Tables, r *Report) {
	if !t.RequiresGallery(businessType) {
		return
	}
	for _, tab := range cfg.Tabs {
		for _, comp := range tab.Components {
			if t.IsGalleryComponent(comp.ID) {
				return
			}
		}
	}

	spec := t.Gallery.Component
	comp := dashboard.Component{ID: spec.ID, Label: spec.Label, View: spec.View}

	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		if t.IsDashboard(*tab) || !t.GalleryLabelMatch(tab.Label) {
			continue
		}
		tab.Components = append(tab.Components, comp)
		r.add(Correction{Kind: KindGalleryInjected, Tab: tab.ID, Component: comp.ID})
		return
	}

	if len(cfg.Tabs) >= t.MaxTabs {
		i := fallbackGalleryTab(cfg.Tabs, t)
		cfg.Tabs[i].Components = append(cfg.Tabs[i].Components, comp)
		r.add(Correction{Kind: KindGalleryInjected, Tab: cfg.Tabs[i].ID, Component: comp.ID, Detail: "tab limit reached"})
		return
	}

	tab := dashboard.Tab{
		ID:         nextTabID(cfg.Tabs),
		Label:      t.Gallery.Tab.Label,
		Icon:       t.Gallery.Tab.Icon,
		Components: []dashboard.Component{comp},
	}
	at := len(cfg.Tabs)
	if at > 0 && t.IsSettings(cfg.Tabs[at-1]) {
		at--
	}
	cfg.Tabs = insertTab(cfg.Tabs, at, tab)
	r.add(Correction{Kind: KindGalleryInjected, Tab: tab.ID, Component: comp.ID, Detail: "new tab"})
}

// fallbackGalleryTab picks the last tab that is neither the Dashboard nor a
// trailing Settings tab, or the last tab when every tab is one of those.
func fallbackGalleryTab(tabs []dashboard.Tab, t *policy.Tables) int {
	for i := len(tabs) - 1; i >= 0; i-- {
		if t.IsDashboard(tabs[i]) || (i == len(tabs)-1 && t.IsSettings(tabs[i])) {
			continue
		}
		return i
	}
	return len(tabs) - 1
}
