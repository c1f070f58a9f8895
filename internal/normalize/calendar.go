package normalize

import (
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

// ConsolidateCalendars leaves at most one calendar view outside the
// Dashboard. The Dashboard is emptied first since its content belongs to the
// platform. The first calendar-like component in tab order becomes the
// calendar; later ones are shown as tables. Tabs holding the calendar then
// lose siblings the calendar's own filters already cover.
func ConsolidateCalendars(cfg *dashboard.Configuration, t *policy.Tables, r *Report) {
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		if !t.IsDashboard(*tab) {
			continue
		}
		if len(tab.Components) > 0 {
			r.add(Correction{Kind: KindDashboardCleared, Tab: tab.ID})
		}
		tab.Components = []dashboard.Component{}
	}

	seen := false
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		if t.IsDashboard(*tab) {
			continue
		}
		for j := range tab.Components {
			comp := &tab.Components[j]
			if !isCalendarLike(*comp, t) {
				continue
			}
			if !seen {
				seen = true
				comp.View = dashboard.ViewCalendar
				continue
			}
			comp.View = dashboard.ViewTable
			r.add(Correction{Kind: KindCalendarDemoted, Tab: tab.ID, Component: comp.ID})
		}
	}

	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		if len(tab.Components) < 2 || !hasCalendarView(tab.Components) {
			continue
		}
		kept := tab.Components[:0]
		for _, comp := range tab.Components {
			if comp.View != dashboard.ViewCalendar && t.IsRedundantWithCalendar(comp.ID) {
				r.add(Correction{Kind: KindRedundantRemoved, Tab: tab.ID, Component: comp.ID})
				continue
			}
			kept = append(kept, comp)
		}
		tab.Components = kept
	}
}

func isCalendarLike(c dashboard.Component, t *policy.Tables) bool {
	if c.View == dashboard.ViewCalendar {
		return true
	}
	return c.View == "" && t.IsCalendarID(c.ID)
}

func hasCalendarView(comps []dashboard.Component) bool {
	for _, c := range comps {
		if c.View == dashboard.ViewCalendar {
			return true
		}
	}
	return false
}
