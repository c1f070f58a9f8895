package dashboard

// Clone returns a deep copy of the configuration.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := &Configuration{
		BusinessName: c.BusinessName,
		BusinessType: c.BusinessType,
		Colors:       c.Colors.Clone(),
		Summary:      c.Summary,
	}
	if c.Tabs != nil {
		out.Tabs = make([]Tab, len(c.Tabs))
		for i := range c.Tabs {
			out.Tabs[i] = c.Tabs[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the tab and its components.
func (t Tab) Clone() Tab {
	out := t
	out.Extra = cloneExtra(t.Extra)
	if t.Components != nil {
		out.Components = make([]Component, len(t.Components))
		for i := range t.Components {
			out.Components[i] = t.Components[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the component.
func (c Component) Clone() Component {
	out := c
	out.Extra = cloneExtra(c.Extra)
	if c.Stages != nil {
		out.Stages = append([]RawStage{}, c.Stages...)
	}
	if c.Pipeline != nil {
		spec := PipelineSpec{DefaultStageID: c.Pipeline.DefaultStageID}
		if c.Pipeline.Stages != nil {
			spec.Stages = make([]Stage, len(c.Pipeline.Stages))
			for i, st := range c.Pipeline.Stages {
				st.Extra = cloneExtra(st.Extra)
				spec.Stages[i] = st
			}
		}
		out.Pipeline = &spec
	}
	return out
}

// ComponentIDs returns the set of component ids present in any tab.
func (c *Configuration) ComponentIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, tab := range c.Tabs {
		for _, comp := range tab.Components {
			ids[comp.ID] = struct{}{}
		}
	}
	return ids
}

// TabByLabel returns the index of the first tab with exactly this label, or -1.
func (c *Configuration) TabByLabel(label string) int {
	for i := range c.Tabs {
		if c.Tabs[i].Label == label {
			return i
		}
	}
	return -1
}

func cloneExtra(extra map[string]any) map[string]any {
	if extra == nil {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneExtra(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// StripFlags clears the internal lock and removable markers so they never
// leave the service. Nested values are not touched.
func (c *Configuration) StripFlags() {
	for i := range c.Tabs {
		c.Tabs[i].Removable = false
		for j := range c.Tabs[i].Components {
			c.Tabs[i].Components[j].Locked = false
		}
	}
}
