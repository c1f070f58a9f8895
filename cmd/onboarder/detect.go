package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/mohammad-safakhou/onboarder/internal/templates"
	"github.com/spf13/cobra"
)

type detection struct {
	BusinessType string `json:"business_type"`
	Family       string `json:"family"`
	Matched      bool   `json:"matched"`
}

func detectCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <description>",
		Short: "Show which industry template a description resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(templates.Default(), strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
}

func runDetect(reg *templates.Registry, description string, w io.Writer) error {
	var d detection
	d.BusinessType, d.Family, d.Matched = reg.Resolve(description)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
