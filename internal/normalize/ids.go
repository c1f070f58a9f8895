package normalize

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
)

// AssignIDs gives every tab and component without an id a usable one. Tabs
// take the next free tab_<n>. Components take a slug of their label, or
// component_<n> when the label is empty, suffixed until unique.
func AssignIDs(cfg *dashboard.Configuration, r *Report) {
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		if strings.TrimSpace(tab.ID) != "" {
			continue
		}
		tab.ID = nextTabID(cfg.Tabs)
		r.add(Correction{Kind: KindIDAssigned, Tab: tab.ID, Detail: orNone(tab.Label)})
	}

	seen := make(map[string]bool)
	for _, tab := range cfg.Tabs {
		for _, comp := range tab.Components {
			seen[comp.ID] = true
		}
	}
	n := 0
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		for j := range tab.Components {
			comp := &tab.Components[j]
			if strings.TrimSpace(comp.ID) != "" {
				continue
			}
			n++
			base := slug(comp.Label)
			if base == "" {
				base = fmt.Sprintf("component_%d", n)
			}
			id := base
			for k := 2; seen[id]; k++ {
				id = fmt.Sprintf("%s_%d", base, k)
			}
			seen[id] = true
			comp.ID = id
			r.add(Correction{Kind: KindIDAssigned, Tab: tab.ID, Component: id})
		}
	}
}

// slug lowercases s and joins its letter and digit runs with underscores.
func slug(s string) string {
	var b strings.Builder
	pending := false
	for _, c := range strings.ToLower(s) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(c)
			continue
		}
		pending = true
	}
	return b.String()
}
