package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
)

func TestAssignIDs(t *testing.T) {
	cfg := &dashboard.Configuration{Tabs: []dashboard.Tab{
		{ID: "tab_1", Label: "Dashboard"},
		{Label: "Orders", Components: []dashboard.Component{
			{Label: "Open Orders"},
			{ID: "open_orders"},
			{Label: "  "},
		}},
		{ID: "tab_3", Label: "Clients", Components: []dashboard.Component{{Label: "Open Orders"}}},
		{Label: "Extra"},
	}}
	r := &Report{}
	AssignIDs(cfg, r)

	var tabIDs []string
	for _, tab := range cfg.Tabs {
		tabIDs = append(tabIDs, tab.ID)
	}
	if diff := cmp.Diff([]string{"tab_1", "tab_5", "tab_3", "tab_6"}, tabIDs); diff != "" {
		t.Fatalf("tab ids mismatch (-want +got):\n%s", diff)
	}
	got := []string{
		cfg.Tabs[1].Components[0].ID,
		cfg.Tabs[1].Components[1].ID,
		cfg.Tabs[1].Components[2].ID,
		cfg.Tabs[2].Components[0].ID,
	}
	if diff := cmp.Diff([]string{"open_orders_2", "open_orders", "component_2", "open_orders_3"}, got); diff != "" {
		t.Fatalf("component ids mismatch (-want +got):\n%s", diff)
	}
	if r.Count(KindIDAssigned) != 5 {
		t.Fatalf("expected 5 id corrections, got %d", r.Count(KindIDAssigned))
	}
}

func TestNormalizeOutputValidatesWithMissingIDs(t *testing.T) {
	doc := `{"tabs": [
	  {"label": "Orders", "components": [{"label": "Orders", "view": "table"}, {"view": "pipeline", "stages": [{"name": "Lead", "color": "teal-ish"}]}]},
	  {"id": "tab_2", "components": [{"pipeline": {"stages": [{"name": "Won", "color": "green-ish"}]}}]}
	]}`
	cfg, err := dashboard.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, _ := New(nil, nil).Normalize(cfg, "bakery", nil)
	if err := dashboard.Validate(out); err != nil {
		t.Fatalf("normalized output does not validate: %v", err)
	}
}
