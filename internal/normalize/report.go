package normalize

// Kind names one class of correction the pipeline applied.
type Kind string

const (
	KindLockedRestored    Kind = "locked_restored"
	KindPaletteReplaced   Kind = "palette_replaced"
	KindPaletteFilled     Kind = "palette_filled"
	KindDashboardCleared  Kind = "dashboard_cleared"
	KindCalendarDemoted   Kind = "calendar_demoted"
	KindRedundantRemoved  Kind = "calendar_redundant_removed"
	KindTabsTruncated     Kind = "tabs_truncated"
	KindGalleryInjected   Kind = "gallery_injected"
	KindStagesBuilt       Kind = "stages_built"
	KindStageRecolored    Kind = "stage_recolored"
	KindViewDefaulted     Kind = "view_defaulted"
	KindBusinessTypeGiven Kind = "business_type_filled"
	KindIDAssigned        Kind = "id_assigned"
)

// Correction records one change made to a generated configuration.
type Correction struct {
	Kind      Kind   `json:"kind"`
	Tab       string `json:"tab,omitempty"`
	Component string `json:"component,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Report lists the corrections of one Normalize call in the order applied.
// A nil *Report discards everything, which lets stages run standalone.
type Report struct {
	Corrections []Correction `json:"corrections"`
}

func (r *Report) add(c Correction) {
	if r == nil {
		return
	}
	r.Corrections = append(r.Corrections, c)
}

// Empty reports whether nothing had to be corrected.
func (r *Report) Empty() bool {
	return r == nil || len(r.Corrections) == 0
}

// Count returns how many corrections of kind were applied.
func (r *Report) Count(kind Kind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, c := range r.Corrections {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Counts groups corrections by kind.
func (r *Report) Counts() map[Kind]int {
	out := make(map[Kind]int)
	if r == nil {
		return out
	}
	for _, c := range r.Corrections {
		out[c.Kind]++
	}
	return out
}
