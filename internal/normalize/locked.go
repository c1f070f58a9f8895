package normalize

import (
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

// ReconcileLocked puts back every locked component the generator dropped.
// The definition is copied from the template: into the generated tab with the
// same label when there is one, otherwise into a new tab inserted before the
// last tab. Template Dashboard contents are ignored since the Dashboard is
// always emptied later.
func ReconcileLocked(cfg *dashboard.Configuration, tmpl *dashboard.Configuration, lockedIDs []string, t *policy.Tables, r *Report) {
	if tmpl == nil || len(lockedIDs) == 0 {
		return
	}
	present := cfg.ComponentIDs()
	for _, id := range lockedIDs {
		if _, ok := present[id]; ok {
			continue
		}
		srcTab, srcComp, ok := findLocked(tmpl, id, t)
		if !ok {
			continue
		}
		comp := srcComp.Clone()
		if i := labelledTab(cfg, srcTab.Label, t); i >= 0 {
			cfg.Tabs[i].Components = append(cfg.Tabs[i].Components, comp)
			r.add(Correction{Kind: KindLockedRestored, Tab: cfg.Tabs[i].ID, Component: id})
		} else {
			label, icon := srcTab.Label, srcTab.Icon
			if label == "" {
				label = "Restored"
			}
			if icon == "" {
				icon = "box"
			}
			tab := dashboard.Tab{
				ID:         nextTabID(cfg.Tabs),
				Label:      label,
				Icon:       icon,
				Components: []dashboard.Component{comp},
			}
			at := len(cfg.Tabs)
			if at > 0 {
				at--
			}
			cfg.Tabs = insertTab(cfg.Tabs, at, tab)
			r.add(Correction{Kind: KindLockedRestored, Tab: tab.ID, Component: id, Detail: "new tab " + label})
		}
		present[id] = struct{}{}
	}
}

// findLocked returns the first template tab and component defining id,
// preferring tabs other than the Dashboard.
func findLocked(tmpl *dashboard.Configuration, id string, t *policy.Tables) (dashboard.Tab, dashboard.Component, bool) {
	var (
		dashTab  dashboard.Tab
		dashComp dashboard.Component
		inDash   bool
	)
	for _, tab := range tmpl.Tabs {
		for _, comp := range tab.Components {
			if comp.ID != id {
				continue
			}
			if !t.IsDashboard(tab) {
				return tab, comp, true
			}
			if !inDash {
				dashTab, dashComp, inDash = tab, comp, true
			}
		}
	}
	if inDash {
		// Only the Dashboard holds it; restore it into a tab of its own.
		dashTab.Label = dashComp.Label
		dashTab.ID = ""
		return dashTab, dashComp, true
	}
	return dashboard.Tab{}, dashboard.Component{}, false
}

func labelledTab(cfg *dashboard.Configuration, label string, t *policy.Tables) int {
	for i := range cfg.Tabs {
		if cfg.Tabs[i].Label == label && !t.IsDashboard(cfg.Tabs[i]) {
			return i
		}
	}
	return -1
}
