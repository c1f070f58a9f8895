package templates

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"gopkg.in/yaml.v3"
)

//go:embed families/*.yaml
var familyFS embed.FS

// Alias maps a phrase found in a business description to a business type.
type Alias struct {
	Phrase string `yaml:"phrase"`
	Type   string `yaml:"type"`
}

// Tweak customizes a family's base layout for one business type.
type Tweak struct {
	Stages        []string `yaml:"stages"`
	ClientsLabel  string   `yaml:"clients_label"`
	StaffLabel    string   `yaml:"staff_label"`
	RemoveStaff   bool     `yaml:"remove_staff"`
	AddWaivers    bool     `yaml:"add_waivers"`
	AddTreatments bool     `yaml:"add_treatments"`
	AddPortfolios bool     `yaml:"add_portfolios"`
}

// Template is a deep copy of a pre-authored layout for one business type.
type Template struct {
	BusinessType string
	Family       string
	Config       *dashboard.Configuration
	// LockedIDs lists locked component ids in first-seen tab order.
	LockedIDs []string
}

// PromptJSON renders the template tabs, lock markers included, for a
// customization prompt.
func (t *Template) PromptJSON() (string, error) {
	out, err := json.MarshalIndent(struct {
		Tabs []dashboard.Tab `json:"tabs"`
	}{Tabs: t.Config.Tabs}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	return string(out), nil
}

// Registry resolves descriptions to template families and loads templates.
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	families map[string]*family
	aliases  []resolvedAlias
}

type resolvedAlias struct {
	Alias
	family string
}

type familyDoc struct {
	Family  string                    `yaml:"family"`
	Aliases []Alias                   `yaml:"aliases"`
	Tabs    []map[string]any          `yaml:"tabs"`
	Extras  map[string]map[string]any `yaml:"extras"`
	Tweaks  map[string]Tweak          `yaml:"tweaks"`
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded family documents.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewRegistry(familyFS)
	})
	if defaultErr != nil {
		panic(fmt.Errorf("embedded templates: %w", defaultErr))
	}
	return defaultRegistry
}

// NewRegistry parses every families/*.yaml document found in fsys.
func NewRegistry(fsys fs.FS) (*Registry, error) {
	files, err := fs.Glob(fsys, "families/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	slices.Sort(files)
	r := &Registry{families: make(map[string]*family, len(files))}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		f, err := parseFamily(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		if _, dup := r.families[f.name]; dup {
			return nil, fmt.Errorf("%s: duplicate family %q", path.Base(name), f.name)
		}
		r.families[f.name] = f
		for _, a := range f.aliases {
			r.aliases = append(r.aliases, resolvedAlias{Alias: a, family: f.name})
		}
	}
	// Longest phrase first; stable so equal lengths keep document order.
	slices.SortStableFunc(r.aliases, func(a, b resolvedAlias) int {
		return len(b.Phrase) - len(a.Phrase)
	})
	return r, nil
}

// Resolve finds the business type and family whose alias occurs in the
// description. ok is false when no alias matches.
func (r *Registry) Resolve(description string) (businessType, family string, ok bool) {
	text := strings.ToLower(description)
	for _, a := range r.aliases {
		if strings.Contains(text, a.Phrase) {
			return a.Type, a.family, true
		}
	}
	return "", "", false
}

// Load returns a fresh copy of the template for businessType within family.
// Callers own the returned value.
func (r *Registry) Load(businessType, family string) (*Template, bool) {
	f, ok := r.families[family]
	if !ok {
		return nil, false
	}
	return f.build(businessType)
}

// Families lists the known family names in sorted order.
func (r *Registry) Families() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Types lists the business types supported by family in sorted order.
func (r *Registry) Types(family string) []string {
	f, ok := r.families[family]
	if !ok {
		return nil
	}
	types := make([]string, 0, len(f.tweaks))
	for t := range f.tweaks {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func parseFamily(data []byte) (*family, error) {
	var doc familyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode family: %w", err)
	}
	if strings.TrimSpace(doc.Family) == "" {
		return nil, fmt.Errorf("family name is required")
	}
	if len(doc.Tweaks) == 0 {
		return nil, fmt.Errorf("family %s declares no business types", doc.Family)
	}
	base, err := decodeTabs(doc.Tabs)
	if err != nil {
		return nil, err
	}
	f := &family{
		name:    doc.Family,
		aliases: make([]Alias, 0, len(doc.Aliases)),
		base:    base,
		extras:  make(map[string]dashboard.Component, len(doc.Extras)),
		tweaks:  doc.Tweaks,
	}
	for _, a := range doc.Aliases {
		phrase := strings.ToLower(strings.TrimSpace(a.Phrase))
		if phrase == "" {
			continue
		}
		if _, ok := doc.Tweaks[a.Type]; !ok {
			return nil, fmt.Errorf("alias %q points at unknown type %q", a.Phrase, a.Type)
		}
		f.aliases = append(f.aliases, Alias{Phrase: phrase, Type: a.Type})
	}
	for key, raw := range doc.Extras {
		comp, err := decodeComponent(raw)
		if err != nil {
			return nil, fmt.Errorf("extra %s: %w", key, err)
		}
		f.extras[key] = comp
	}
	for bt, tw := range doc.Tweaks {
		for key, wanted := range map[string]bool{"waivers": tw.AddWaivers, "treatments": tw.AddTreatments, "portfolios": tw.AddPortfolios} {
			if _, ok := f.extras[key]; wanted && !ok {
				return nil, fmt.Errorf("type %s needs extra %q", bt, key)
			}
		}
	}
	return f, nil
}

// decodeTabs routes YAML through JSON so templates share the generated
// document decoder.
func decodeTabs(tabs []map[string]any) ([]dashboard.Tab, error) {
	data, err := json.Marshal(map[string]any{"tabs": tabs})
	if err != nil {
		return nil, fmt.Errorf("encode tabs: %w", err)
	}
	cfg, err := dashboard.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode tabs: %w", err)
	}
	return cfg.Tabs, nil
}

func decodeComponent(raw map[string]any) (dashboard.Component, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return dashboard.Component{}, err
	}
	var comp dashboard.Component
	if err := json.Unmarshal(data, &comp); err != nil {
		return dashboard.Component{}, err
	}
	return comp, nil
}
