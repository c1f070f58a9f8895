package dashboard

import "regexp"

// View is the rendering mode a component asks the dashboard for.
type View string

const (
	ViewPipeline View = "pipeline"
	ViewCalendar View = "calendar"
	ViewCards    View = "cards"
	ViewList     View = "list"
	ViewTable    View = "table"
	ViewRoute    View = "route"
)

var validViews = map[View]struct{}{
	ViewPipeline: {},
	ViewCalendar: {},
	ViewCards:    {},
	ViewList:     {},
	ViewTable:    {},
	ViewRoute:    {},
}

// Valid reports whether the view is one the dashboard can render.
func (v View) Valid() bool {
	_, ok := validViews[v]
	return ok
}

// Palette slot names.
const (
	SlotSidebarBg      = "sidebar_bg"
	SlotSidebarText    = "sidebar_text"
	SlotSidebarIcons   = "sidebar_icons"
	SlotSidebarButtons = "sidebar_buttons"
	SlotBackground     = "background"
	SlotButtons        = "buttons"
	SlotCards          = "cards"
	SlotText           = "text"
	SlotHeadings       = "headings"
	SlotBorders        = "borders"
)

// PaletteSlots lists the ten slots every normalized palette carries.
var PaletteSlots = []string{
	SlotSidebarBg,
	SlotSidebarText,
	SlotSidebarIcons,
	SlotSidebarButtons,
	SlotBackground,
	SlotButtons,
	SlotCards,
	SlotText,
	SlotHeadings,
	SlotBorders,
}

// PlatformTabs are appended by the dashboard itself and never generated.
var PlatformTabs = []string{"site", "analytics", "settings"}

// Palette maps slot names to hex colors. Keys outside PaletteSlots are kept
// as supplied so the dashboard can pick up extra brand colors.
type Palette map[string]string

// Complete reports whether every slot in PaletteSlots has a value.
func (p Palette) Complete() bool {
	for _, slot := range PaletteSlots {
		if p[slot] == "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the palette.
func (p Palette) Clone() Palette {
	if p == nil {
		return nil
	}
	out := make(Palette, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Configuration is the dashboard document produced for one business.
type Configuration struct {
	BusinessName string  `json:"business_name"`
	BusinessType string  `json:"business_type"`
	Tabs         []Tab   `json:"tabs"`
	Colors       Palette `json:"colors"`
	Summary      string  `json:"summary,omitempty"`
}

// Tab is one sidebar navigation entry.
type Tab struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Icon       string      `json:"icon"`
	Removable  bool        `json:"_removable,omitempty"`
	Components []Component `json:"components"`

	// Extra holds keys the pipeline does not interpret.
	Extra map[string]any `json:"-"`
}

// Component is a typed view inside a tab. ID is a key into the dashboard's
// component registry (clients, calendar, galleries, ...).
type Component struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	View     View          `json:"view,omitempty"`
	Locked   bool          `json:"_locked,omitempty"`
	Stages   []RawStage    `json:"stages,omitempty"`
	Pipeline *PipelineSpec `json:"pipeline,omitempty"`

	// Extra holds keys the pipeline does not interpret (dataSource,
	// availableViews, ...).
	Extra map[string]any `json:"-"`
}

// HasRawStages reports whether the generator supplied a flat stage list,
// including an empty one.
func (c *Component) HasRawStages() bool {
	return c.Stages != nil
}

// PipelineSpec is the canonical progression attached to a pipeline view.
type PipelineSpec struct {
	Stages         []Stage `json:"stages"`
	DefaultStageID string  `json:"default_stage_id"`
}

// Stage is one column of a pipeline view.
type Stage struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	ColorSecondary string `json:"color_secondary,omitempty"`
	Order          int    `json:"order"`

	Extra map[string]any `json:"-"`
}

// RawStage is a stage entry as generated: either a bare name or a partial
// object.
type RawStage struct {
	Name           string
	Color          string
	ColorSecondary string
	// Object is true when the entry was an object rather than a bare name.
	Object bool
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{3,8}$`)

// IsHexColor reports whether s is a CSS hex color such as #fff or #1E3A8A.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}
