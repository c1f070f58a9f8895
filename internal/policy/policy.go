package policy

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	_ "embed"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// Tables is the lexical policy the normalization pipeline enforces. A loaded
// Tables value is shared by every request and must not be mutated.
type Tables struct {
	MaxTabs               int                          `yaml:"max_tabs"`
	Dashboard             DashboardRule                `yaml:"dashboard"`
	SettingsLabel         string                       `yaml:"settings_label"`
	ForbiddenButtonColors []string                     `yaml:"forbidden_button_colors"`
	FallbackPalette       dashboard.Palette            `yaml:"fallback_palette"`
	IndustryPalettes      map[string]dashboard.Palette `yaml:"industry_palettes"`
	CalendarComponentIDs  []string                     `yaml:"calendar_component_ids"`
	RedundantWithCalendar []string                     `yaml:"redundant_with_calendar"`
	Gallery               GalleryRule                  `yaml:"gallery"`
	StagePalette          []string                     `yaml:"stage_palette"`
	StageColorWords       []ColorWord                  `yaml:"stage_color_words"`
	DualColorPatterns     []DualColor                  `yaml:"dual_color_patterns"`
}

// DashboardRule identifies the platform-owned Dashboard tab.
type DashboardRule struct {
	Label string `yaml:"label"`
	TabID string `yaml:"tab_id"`
}

// GalleryRule describes which industries need a gallery and how one is added.
type GalleryRule struct {
	Industries    []string          `yaml:"industries"`
	ComponentIDs  []string          `yaml:"component_ids"`
	LabelKeywords []string          `yaml:"label_keywords"`
	Component     GalleryComponent  `yaml:"component"`
	Tab           GalleryTabDefault `yaml:"tab"`
}

// GalleryComponent is the component injected for visual industries.
type GalleryComponent struct {
	ID    string         `yaml:"id"`
	Label string         `yaml:"label"`
	View  dashboard.View `yaml:"view"`
}

// GalleryTabDefault is used when no existing tab can hold the gallery.
type GalleryTabDefault struct {
	Label string `yaml:"label"`
	Icon  string `yaml:"icon"`
}

// ColorWord maps a word found in a stage name to a color.
type ColorWord struct {
	Word string `yaml:"word"`
	Hex  string `yaml:"hex"`
}

// DualColor maps a stage-name pattern to a primary/secondary pair.
type DualColor struct {
	Pattern   string `yaml:"pattern"`
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the built-in tables. It panics if the embedded document is
// invalid, which is a build defect.
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Parse(defaultTablesYAML)
	})
	if defaultErr != nil {
		panic(fmt.Errorf("embedded policy tables: %w", defaultErr))
	}
	return defaultTables
}

// Load reads tables from a YAML file with the same layout as the built-in
// document.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy tables: %w", err)
	}
	return Parse(data)
}

// Resolve returns the tables an operator configured: the file at path when
// set, the built-in tables otherwise, with maxTabs applied when positive.
func Resolve(path string, maxTabs int) (*Tables, error) {
	t := Default()
	if strings.TrimSpace(path) != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		t = loaded
	}
	return t.WithMaxTabs(maxTabs), nil
}

// Parse decodes and validates a tables document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode policy tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the tables can support every pipeline stage.
func (t *Tables) Validate() error {
	if t.MaxTabs <= 0 {
		return fmt.Errorf("policy.max_tabs must be > 0")
	}
	if len(t.StagePalette) == 0 {
		return fmt.Errorf("policy.stage_palette must not be empty")
	}
	if !t.FallbackPalette.Complete() {
		return fmt.Errorf("policy.fallback_palette must define every slot")
	}
	if t.IsForbiddenButton(t.FallbackPalette[dashboard.SlotButtons]) {
		return fmt.Errorf("policy.fallback_palette uses a forbidden buttons color")
	}
	for industry, p := range t.IndustryPalettes {
		if !p.Complete() {
			return fmt.Errorf("policy.industry_palettes.%s must define every slot", industry)
		}
		if t.IsForbiddenButton(p[dashboard.SlotButtons]) {
			return fmt.Errorf("policy.industry_palettes.%s uses a forbidden buttons color", industry)
		}
	}
	if strings.TrimSpace(t.Gallery.Component.ID) == "" {
		return fmt.Errorf("policy.gallery.component.id is required")
	}
	if !t.Gallery.Component.View.Valid() {
		return fmt.Errorf("policy.gallery.component.view %q is not a known view", t.Gallery.Component.View)
	}
	return nil
}

// WithMaxTabs returns a copy of the tables with a different tab ceiling.
func (t *Tables) WithMaxTabs(n int) *Tables {
	if n <= 0 || n == t.MaxTabs {
		return t
	}
	cp := *t
	cp.MaxTabs = n
	return &cp
}

// IsForbiddenButton reports whether hex is one of the generic defaults the
// generator tends to fall back to. The comparison ignores case.
func (t *Tables) IsForbiddenButton(hex string) bool {
	for _, c := range t.ForbiddenButtonColors {
		if strings.EqualFold(c, hex) {
			return true
		}
	}
	return false
}

// PaletteFor returns a copy of the industry palette for businessType, or of
// the fallback palette when the type is unknown.
func (t *Tables) PaletteFor(businessType string) dashboard.Palette {
	if p, ok := t.IndustryPalettes[businessType]; ok {
		return p.Clone()
	}
	return t.FallbackPalette.Clone()
}

// IsDashboard reports whether a tab is the platform-owned Dashboard.
func (t *Tables) IsDashboard(tab dashboard.Tab) bool {
	if t.Dashboard.Label != "" && strings.EqualFold(tab.Label, t.Dashboard.Label) {
		return true
	}
	return t.Dashboard.TabID != "" && tab.ID == t.Dashboard.TabID
}

// IsSettings reports whether a tab is the trailing settings tab.
func (t *Tables) IsSettings(tab dashboard.Tab) bool {
	return t.SettingsLabel != "" && strings.EqualFold(tab.Label, t.SettingsLabel)
}

func (t *Tables) IsCalendarID(id string) bool {
	return slices.Contains(t.CalendarComponentIDs, id)
}

func (t *Tables) IsRedundantWithCalendar(id string) bool {
	return slices.Contains(t.RedundantWithCalendar, id)
}

// RequiresGallery reports whether businessType names a visually driven
// industry. The type is lowercased with spaces turned into underscores and
// matched by substring, so "hair_salon" and "auto detailing" both qualify.
func (t *Tables) RequiresGallery(businessType string) bool {
	btype := strings.ReplaceAll(strings.ToLower(businessType), " ", "_")
	if btype == "" {
		return false
	}
	for _, industry := range t.Gallery.Industries {
		if strings.Contains(btype, industry) {
			return true
		}
	}
	return false
}

func (t *Tables) IsGalleryComponent(id string) bool {
	return slices.Contains(t.Gallery.ComponentIDs, id)
}

// GalleryLabelMatch reports whether a tab label suggests visual content.
func (t *Tables) GalleryLabelMatch(label string) bool {
	label = strings.ToLower(label)
	for _, kw := range t.Gallery.LabelKeywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// StageColor returns the rotating default color for a stage position.
func (t *Tables) StageColor(position int) string {
	if position < 0 {
		position = -position
	}
	return t.StagePalette[position%len(t.StagePalette)]
}

// InferStageColors derives display colors from a stage name. Dual patterns
// are checked first so "White Stripe" keeps its stripe. Both results are
// empty when nothing matches.
func (t *Tables) InferStageColors(name string) (primary, secondary string) {
	lower := strings.ToLower(name)
	for _, d := range t.DualColorPatterns {
		if strings.Contains(lower, d.Pattern) {
			return d.Primary, d.Secondary
		}
	}
	for _, w := range t.StageColorWords {
		if strings.Contains(lower, w.Word) {
			return w.Hex, ""
		}
	}
	return "", ""
}
