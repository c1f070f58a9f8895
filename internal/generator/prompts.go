package generator

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(promptFS, "prompts/*.tmpl"))

// CustomizePrompt asks the service to tailor a template to a description.
func CustomizePrompt(description, businessType, templateJSON string) (string, error) {
	return render("customize.tmpl", map[string]any{
		"Description":  description,
		"BusinessType": businessType,
		"TemplateJSON": templateJSON,
	})
}

// ScratchPrompt asks the service to design a configuration with no template.
// The policy tables supply the limits the reply will later be held to.
func ScratchPrompt(description string, tables *policy.Tables) (string, error) {
	if tables == nil {
		tables = policy.Default()
	}
	types := make([]string, 0, len(tables.IndustryPalettes))
	for bt := range tables.IndustryPalettes {
		types = append(types, bt)
	}
	sort.Strings(types)
	return render("scratch.tmpl", map[string]any{
		"Description":       description,
		"BusinessTypes":     types,
		"ColorSlots":        dashboard.PaletteSlots,
		"ForbiddenButtons":  tables.ForbiddenButtonColors,
		"MaxTabs":           tables.MaxTabs,
		"GalleryIndustries": tables.Gallery.Industries,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
