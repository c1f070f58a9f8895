package normalize

import (
	"fmt"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

// NormalizeStages gives every pipeline view one canonical stage list with
// colors. Flat generated stage lists are converted to stage objects; stages
// already in a pipeline spec are recolored whenever the name implies a color
// or the supplied color is not a hex value.
func NormalizeStages(cfg *dashboard.Configuration, t *policy.Tables, r *Report) {
	for i := range cfg.Tabs {
		tab := &cfg.Tabs[i]
		for j := range tab.Components {
			comp := &tab.Components[j]
			switch {
			case comp.View == dashboard.ViewPipeline && comp.HasRawStages():
				raw := comp.Stages
				comp.Stages = nil
				if len(raw) == 0 {
					if comp.Pipeline != nil {
						recolorStages(tab.ID, comp, t, r)
					}
					continue
				}
				comp.Pipeline = buildPipeline(raw, t)
				r.add(Correction{Kind: KindStagesBuilt, Tab: tab.ID, Component: comp.ID, Detail: fmt.Sprintf("%d stages", len(raw))})
			case comp.Pipeline != nil:
				recolorStages(tab.ID, comp, t, r)
			}
		}
	}
}

func buildPipeline(raw []dashboard.RawStage, t *policy.Tables) *dashboard.PipelineSpec {
	stages := make([]dashboard.Stage, len(raw))
	for i, item := range raw {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Stage %d", i+1)
		}
		primary, secondary := t.InferStageColors(name)
		st := dashboard.Stage{
			ID:    stageID(i),
			Name:  name,
			Order: i,
		}
		switch {
		case primary != "":
			st.Color = primary
		case dashboard.IsHexColor(item.Color):
			st.Color = item.Color
		default:
			st.Color = t.StageColor(i)
		}
		switch {
		case secondary != "":
			st.ColorSecondary = secondary
		case dashboard.IsHexColor(item.ColorSecondary):
			st.ColorSecondary = item.ColorSecondary
		}
		stages[i] = st
	}
	return &dashboard.PipelineSpec{Stages: stages, DefaultStageID: stageID(0)}
}

func recolorStages(tabID string, comp *dashboard.Component, t *policy.Tables, r *Report) {
	spec := comp.Pipeline
	for i := range spec.Stages {
		st := &spec.Stages[i]
		if st.ID == "" {
			st.ID = stageID(i)
		}
		primary, secondary := t.InferStageColors(st.Name)
		before, beforeSecondary := st.Color, st.ColorSecondary
		if primary != "" {
			st.Color = primary
		}
		if secondary != "" {
			st.ColorSecondary = secondary
		}
		if !dashboard.IsHexColor(st.Color) {
			st.Color = t.StageColor(i)
		}
		if st.ColorSecondary != "" && !dashboard.IsHexColor(st.ColorSecondary) {
			st.ColorSecondary = ""
		}
		if st.Order < 0 {
			st.Order = i
		}
		if st.Color != before || st.ColorSecondary != beforeSecondary {
			r.add(Correction{Kind: KindStageRecolored, Tab: tabID, Component: comp.ID, Detail: st.Name})
		}
	}
	if spec.DefaultStageID == "" && len(spec.Stages) > 0 {
		spec.DefaultStageID = spec.Stages[0].ID
	}
}

func stageID(position int) string {
	return fmt.Sprintf("stage_%d", position+1)
}
