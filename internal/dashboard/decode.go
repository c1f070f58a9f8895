package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Decode parses a generated configuration. Only a payload that is not a JSON
// object is rejected; missing or mistyped fields fall back to zero values.
func Decode(data []byte) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromMap builds a configuration from an already parsed JSON object.
func FromMap(raw map[string]any) *Configuration {
	cfg := configurationFromMap(raw)
	return &cfg
}

func (c *Configuration) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("configuration is not a JSON object: %w", err)
	}
	*c = configurationFromMap(raw)
	return nil
}

func (t *Tab) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tab is not a JSON object: %w", err)
	}
	*t = tabFromMap(raw)
	return nil
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("component is not a JSON object: %w", err)
	}
	*c = componentFromMap(raw)
	return nil
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("stage is not a JSON object: %w", err)
	}
	*s = stageFromMap(raw)
	return nil
}

func (r *RawStage) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = rawStageFromValue(raw)
	return nil
}

func (c Configuration) MarshalJSON() ([]byte, error) {
	type plain Configuration
	p := plain(c)
	if p.Tabs == nil {
		p.Tabs = []Tab{}
	}
	if p.Colors == nil {
		p.Colors = Palette{}
	}
	return json.Marshal(p)
}

func (t Tab) MarshalJSON() ([]byte, error) {
	type plain Tab
	p := plain(t)
	if p.Components == nil {
		p.Components = []Component{}
	}
	return marshalWithExtra(p, t.Extra)
}

func (c Component) MarshalJSON() ([]byte, error) {
	type plain Component
	return marshalWithExtra(plain(c), c.Extra)
}

func (s Stage) MarshalJSON() ([]byte, error) {
	type plain Stage
	return marshalWithExtra(plain(s), s.Extra)
}

func (r RawStage) MarshalJSON() ([]byte, error) {
	if !r.Object {
		return json.Marshal(r.Name)
	}
	obj := map[string]string{"name": r.Name}
	if r.Color != "" {
		obj["color"] = r.Color
	}
	if r.ColorSecondary != "" {
		obj["color_secondary"] = r.ColorSecondary
	}
	return json.Marshal(obj)
}

// marshalWithExtra encodes v and merges extra keys that v does not already
// define.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return base, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, taken := fields[k]; taken {
			continue
		}
		enc, err := json.Marshal(extra[k])
		if err != nil {
			return nil, fmt.Errorf("marshal extra field %q: %w", k, err)
		}
		fields[k] = enc
	}
	return json.Marshal(fields)
}

var (
	tabKeys       = keySet("id", "label", "icon", "_removable", "components")
	componentKeys = keySet("id", "label", "view", "_locked", "stages", "pipeline")
	stageKeys     = keySet("id", "name", "color", "color_secondary", "order")
)

func configurationFromMap(raw map[string]any) Configuration {
	cfg := Configuration{
		BusinessName: stringOf(raw["business_name"]),
		BusinessType: stringOf(raw["business_type"]),
		Summary:      stringOf(raw["summary"]),
		Colors:       paletteOf(raw["colors"]),
		Tabs:         []Tab{},
	}
	for _, item := range listOf(raw["tabs"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cfg.Tabs = append(cfg.Tabs, tabFromMap(m))
	}
	return cfg
}

func tabFromMap(raw map[string]any) Tab {
	tab := Tab{
		ID:         stringOf(raw["id"]),
		Label:      stringOf(raw["label"]),
		Icon:       stringOf(raw["icon"]),
		Removable:  boolOf(raw["_removable"]),
		Components: []Component{},
		Extra:      extraOf(raw, tabKeys),
	}
	for _, item := range listOf(raw["components"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tab.Components = append(tab.Components, componentFromMap(m))
	}
	return tab
}

func componentFromMap(raw map[string]any) Component {
	comp := Component{
		ID:     stringOf(raw["id"]),
		Label:  stringOf(raw["label"]),
		View:   View(stringOf(raw["view"])),
		Locked: boolOf(raw["_locked"]),
		Extra:  extraOf(raw, componentKeys),
	}
	if v, present := raw["stages"]; present {
		items := listOf(v)
		comp.Stages = make([]RawStage, 0, len(items))
		for _, item := range items {
			comp.Stages = append(comp.Stages, rawStageFromValue(item))
		}
	}
	if m, ok := raw["pipeline"].(map[string]any); ok {
		spec := &PipelineSpec{
			Stages:         []Stage{},
			DefaultStageID: stringOf(m["default_stage_id"]),
		}
		for _, item := range listOf(m["stages"]) {
			sm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			spec.Stages = append(spec.Stages, stageFromMap(sm))
		}
		comp.Pipeline = spec
	}
	return comp
}

func stageFromMap(raw map[string]any) Stage {
	return Stage{
		ID:             stringOf(raw["id"]),
		Name:           stringOf(raw["name"]),
		Color:          stringOf(raw["color"]),
		ColorSecondary: stringOf(raw["color_secondary"]),
		Order:          intOf(raw["order"]),
		Extra:          extraOf(raw, stageKeys),
	}
}

func rawStageFromValue(v any) RawStage {
	switch t := v.(type) {
	case map[string]any:
		return RawStage{
			Name:           stringOf(t["name"]),
			Color:          stringOf(t["color"]),
			ColorSecondary: stringOf(t["color_secondary"]),
			Object:         true,
		}
	default:
		return RawStage{Name: stringOf(t)}
	}
}

func paletteOf(v any) Palette {
	m, ok := v.(map[string]any)
	if !ok {
		return Palette{}
	}
	p := make(Palette, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			p[k] = s
		}
	}
	return p
}

func extraOf(raw map[string]any, known map[string]struct{}) map[string]any {
	var extra map[string]any
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func boolOf(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

func intOf(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

func listOf(v any) []any {
	items, _ := v.([]any)
	return items
}

func keySet(keys ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
