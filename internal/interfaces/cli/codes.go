package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/intelligence/regulation"
)

// CodesOutput is printed by the codes command.
type CodesOutput struct {
	Substance string            `json:"substance"`
	Links     []regulation.Link `json:"links"`
}

func (o *CodesOutput) TableHeaders() []string {
	return []string{"CFR Code", "URL"}
}

func (o *CodesOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Links))
	for _, l := range o.Links {
		rows = append(rows, []string{l.Code, l.URL})
	}
	return rows
}

func (o *CodesOutput) WriteText(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	if len(o.Links) == 0 {
		fmt.Fprintf(out, "No CFR sections listed for %s\n", o.Substance)
		return
	}
	fmt.Fprintf(out, "%s\n", color.New(color.Bold).Sprint(o.Substance))
	for _, l := range o.Links {
		fmt.Fprintf(out, "  21 CFR %-10s %s\n", l.Code, color.CyanString(l.URL))
	}
}

// NewCodesCmd prints the regulation sections for a catalog substance.
func NewCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes SUBSTANCE",
		Short: "List the CFR sections that regulate a substance",
		Long: "Codes looks the substance up in the regulation index, first by exact name and then\n" +
			"by word overlap, and prints each section with its eCFR link.",
		Example: `  additivelens codes "SODIUM BENZOATE"
  additivelens codes -o json "citric acid"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			substance := strings.Join(args, " ")
			return withService(cmd, func(ctx context.Context, _ *CLIContext, svc lookup.Service) error {
				links, err := svc.Links(ctx, substance)
				if err != nil {
					return err
				}
				return PrintResult(cmd, &CodesOutput{Substance: substance, Links: links})
			})
		},
	}
}
