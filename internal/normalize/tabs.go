package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

// CapTabs keeps the first MaxTabs tabs. Tab order is priority order.
func CapTabs(cfg *dashboard.Configuration, t *policy.Tables, r *Report) {
	if len(cfg.Tabs) <= t.MaxTabs {
		return
	}
	for _, dropped := range cfg.Tabs[t.MaxTabs:] {
		r.add(Correction{Kind: KindTabsTruncated, Tab: dropped.ID, Detail: dropped.Label})
	}
	cfg.Tabs = cfg.Tabs[:t.MaxTabs:t.MaxTabs]
}

// nextTabID returns tab_<n+1> where n is the largest numeric suffix among
// existing tab_<n> ids. Existing ids are never rewritten, and tab_1 stays
// reserved for the Dashboard.
func nextTabID(tabs []dashboard.Tab) string {
	highest := 1
	for _, tab := range tabs {
		suffix, ok := strings.CutPrefix(tab.ID, "tab_")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	if len(tabs) > highest {
		highest = len(tabs)
	}
	return fmt.Sprintf("tab_%d", highest+1)
}

func insertTab(tabs []dashboard.Tab, at int, tab dashboard.Tab) []dashboard.Tab {
	tabs = append(tabs, dashboard.Tab{})
	copy(tabs[at+1:], tabs[at:])
	tabs[at] = tab
	return tabs
}
