// Package normalize turns a generated dashboard configuration into one that
// satisfies the platform's structural policy. Every stage is a deterministic
// function of the configuration and the static policy tables; stages mutate
// the configuration they are given and keep no references to it.
package normalize

import (
	"strings"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
	"go.uber.org/zap"
)

// Template is the seed a configuration was generated from.
type Template struct {
	Config    *dashboard.Configuration
	LockedIDs []string
}

// Normalizer runs the stages in their fixed order. It is safe for concurrent
// use because it only reads its tables.
type Normalizer struct {
	tables *policy.Tables
	logger *zap.Logger
}

// New builds a Normalizer. A nil tables value selects the built-in tables and
// a nil logger discards output.
func New(tables *policy.Tables, logger *zap.Logger) *Normalizer {
	if tables == nil {
		tables = policy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{tables: tables, logger: logger.Named("normalize")}
}

// Tables exposes the policy the normalizer enforces.
func (n *Normalizer) Tables() *policy.Tables {
	return n.tables
}

// Normalize takes ownership of cfg and returns it corrected together with a
// report of what changed. businessType overrides the configuration's own
// type for industry lookups when set. tmpl may be nil when the configuration
// was built from scratch. Normalize never fails.
func (n *Normalizer) Normalize(cfg *dashboard.Configuration, businessType string, tmpl *Template) (*dashboard.Configuration, *Report) {
	report := &Report{}
	if cfg == nil {
		cfg = &dashboard.Configuration{}
	}
	if cfg.Tabs == nil {
		cfg.Tabs = []dashboard.Tab{}
	}
	if cfg.Colors == nil {
		cfg.Colors = dashboard.Palette{}
	}

	btype := strings.TrimSpace(businessType)
	if btype == "" {
		btype = cfg.BusinessType
	} else if cfg.BusinessType == "" {
		cfg.BusinessType = btype
		report.add(Correction{Kind: KindBusinessTypeGiven, Detail: btype})
	}

	if tmpl != nil {
		ReconcileLocked(cfg, tmpl.Config, tmpl.LockedIDs, n.tables, report)
	}
	cfg.StripFlags()

	EnforcePalette(cfg, btype, n.tables, report)
	ConsolidateCalendars(cfg, n.tables, report)
	CapTabs(cfg, n.tables, report)
	EnsureGallery(cfg, btype, n.tables, report)
	NormalizeStages(cfg, n.tables, report)
	AssignIDs(cfg, report)
	DefaultViews(cfg, report)

	if !report.Empty() {
		n.logger.Debug("configuration corrected",
			zap.String("business_type", btype),
			zap.Int("corrections", len(report.Corrections)),
			zap.Any("by_kind", report.Counts()),
		)
	}
	return cfg, report
}

// DefaultViews shows components with a missing or unknown view as tables.
func DefaultViews(cfg *dashboard.Configuration, r *Report) {
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		for j := range tab.Components {
			comp := &tab.Components[j]
			if comp.View.Valid() {
				continue
			}
			r.add(Correction{Kind: KindViewDefaulted, Tab: tab.ID, Component: comp.ID, Detail: orNone(string(comp.View))})
			comp.View = dashboard.ViewTable
		}
	}
}
