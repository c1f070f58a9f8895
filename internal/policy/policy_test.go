package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
)

func TestDefaultTablesAreConsistent(t *testing.T) {
	tables := Default()
	if tables.MaxTabs != 8 {
		t.Fatalf("expected MAX_TABS 8, got %d", tables.MaxTabs)
	}
	if len(tables.StagePalette) != 6 {
		t.Fatalf("expected 6 rotating stage colors, got %d", len(tables.StagePalette))
	}
	for industry, p := range tables.IndustryPalettes {
		if tables.IsForbiddenButton(p[dashboard.SlotButtons]) {
			t.Fatalf("industry %s ships a forbidden buttons color", industry)
		}
	}
	if Default() != tables {
		t.Fatalf("expected default tables to be loaded once")
	}
}

func TestIsForbiddenButtonIgnoresCase(t *testing.T) {
	tables := Default()
	for _, c := range []string{"#EF4444", "#ef4444", "#3b82f6", "#CE0707"} {
		if !tables.IsForbiddenButton(c) {
			t.Fatalf("expected %s to be forbidden", c)
		}
	}
	if tables.IsForbiddenButton("#16A34A") {
		t.Fatalf("did not expect green to be forbidden")
	}
	if tables.IsForbiddenButton("") {
		t.Fatalf("empty color is absent, not forbidden")
	}
}

func TestPaletteForReturnsCopy(t *testing.T) {
	tables := Default()
	p := tables.PaletteFor("landscaping")
	if p[dashboard.SlotButtons] != "#16A34A" {
		t.Fatalf("unexpected landscaping buttons: %s", p[dashboard.SlotButtons])
	}
	p[dashboard.SlotButtons] = "#000000"
	if tables.IndustryPalettes["landscaping"][dashboard.SlotButtons] != "#16A34A" {
		t.Fatalf("palette lookup leaked the shared table")
	}
	if got := tables.PaletteFor("underwater basket weaving"); got[dashboard.SlotSidebarBg] != tables.FallbackPalette[dashboard.SlotSidebarBg] {
		t.Fatalf("expected fallback palette for unknown type")
	}
}

func TestIsDashboard(t *testing.T) {
	tables := Default()
	cases := []struct {
		tab  dashboard.Tab
		want bool
	}{
		{dashboard.Tab{ID: "tab_9", Label: "Dashboard"}, true},
		{dashboard.Tab{ID: "tab_9", Label: "DASHBOARD"}, true},
		{dashboard.Tab{ID: "tab_1", Label: "Home"}, true},
		{dashboard.Tab{ID: "tab_2", Label: "Dashboards"}, false},
	}
	for _, tc := range cases {
		if got := tables.IsDashboard(tc.tab); got != tc.want {
			t.Fatalf("IsDashboard(%+v) = %v, want %v", tc.tab, got, tc.want)
		}
	}
}

func TestRequiresGallery(t *testing.T) {
	tables := Default()
	cases := map[string]bool{
		"landscaping":    true,
		"Hair Salon":     true,
		"auto detailing": true,
		"pet_grooming":   true,
		"legal":          false,
		"accounting":     false,
		"":               false,
	}
	for btype, want := range cases {
		if got := tables.RequiresGallery(btype); got != want {
			t.Fatalf("RequiresGallery(%q) = %v, want %v", btype, got, want)
		}
	}
}

func TestGalleryLabelMatch(t *testing.T) {
	tables := Default()
	if !tables.GalleryLabelMatch("Our Services") {
		t.Fatalf("expected services label to match")
	}
	if !tables.GalleryLabelMatch("Photo Wall") {
		t.Fatalf("expected photo label to match")
	}
	if tables.GalleryLabelMatch("Jobs") {
		t.Fatalf("did not expect Jobs to match")
	}
}

func TestInferStageColors(t *testing.T) {
	tables := Default()
	cases := []struct {
		name            string
		primary, second string
	}{
		{"White Stripe", "#E5E7EB", "#1A1A1A"},
		{"Black Belt", "#1A1A1A", ""},
		{"Poom Belt", "#EF4444", "#1A1A1A"},
		{"Camo", "#22C55E", "#92400E"},
		{"Gold Member", "#FFD700", ""},
		{"Grey", "#6B7280", ""},
		{"New Lead", "", ""},
	}
	for _, tc := range cases {
		p, s := tables.InferStageColors(tc.name)
		if p != tc.primary || s != tc.second {
			t.Fatalf("InferStageColors(%q) = (%q, %q), want (%q, %q)", tc.name, p, s, tc.primary, tc.second)
		}
	}
}

func TestStageColorRotates(t *testing.T) {
	tables := Default()
	if tables.StageColor(0) != tables.StageColor(len(tables.StagePalette)) {
		t.Fatalf("expected stage palette to wrap around")
	}
}

func TestWithMaxTabs(t *testing.T) {
	tables := Default()
	small := tables.WithMaxTabs(3)
	if small.MaxTabs != 3 || tables.MaxTabs != 8 {
		t.Fatalf("WithMaxTabs must not mutate the shared tables")
	}
	if tables.WithMaxTabs(0) != tables {
		t.Fatalf("expected non-positive override to be ignored")
	}
}

func TestParseRejectsForbiddenDefault(t *testing.T) {
	doc := strings.Replace(string(defaultTablesYAML),
		`fallback_palette: {sidebar_bg: "#0F172A", sidebar_text: "#F1F5F9", sidebar_icons: "#94A3B8", sidebar_buttons: "#2563EB", background: "#F8FAFC", buttons: "#2563EB"`,
		`fallback_palette: {sidebar_bg: "#0F172A", sidebar_text: "#F1F5F9", sidebar_icons: "#94A3B8", sidebar_buttons: "#2563EB", background: "#F8FAFC", buttons: "#EF4444"`, 1)
	if doc == string(defaultTablesYAML) {
		t.Fatalf("fixture replacement did not apply")
	}
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Fatalf("expected forbidden buttons error, got %v", err)
	}
}

func TestParseRejectsMissingMaxTabs(t *testing.T) {
	if _, err := Parse([]byte("stage_palette: ['#000000']\n")); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Parse([]byte("max_tabs: [")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	doc := strings.Replace(string(defaultTablesYAML), "max_tabs: 8", "max_tabs: 6", 1)
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tables, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tables.MaxTabs != 6 {
		t.Fatalf("expected override max_tabs 6, got %d", tables.MaxTabs)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("", 0)
	if err != nil || got != Default() {
		t.Fatalf("expected built-in tables, got %v", err)
	}
	got, err = Resolve("", 4)
	if err != nil || got.MaxTabs != 4 || Default().MaxTabs == 4 {
		t.Fatalf("expected override without touching defaults, got %+v %v", got.MaxTabs, err)
	}
	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml"), 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
