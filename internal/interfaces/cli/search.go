package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
)

// AdditiveList is printed by search and scan.
type AdditiveList struct {
	Requested int                `json:"requested"`
	Additives []*lookup.Additive `json:"additives"`
}

func (l *AdditiveList) TableHeaders() []string {
	return []string{"Query", "Substance", "Effect", "Method", "CFR Codes"}
}

func (l *AdditiveList) TableRows() [][]string {
	return additiveRows(l.Additives)
}

func additiveRows(additives []*lookup.Additive) [][]string {
	rows := make([][]string, 0, len(additives))
	for _, a := range additives {
		rows = append(rows, []string{
			a.Query,
			truncateString(a.Substance, 40),
			truncateString(a.TechnicalEffect, 40),
			string(a.Method),
			strings.Join(a.CFRCodes, ", "),
		})
	}
	return rows
}

func (l *AdditiveList) WriteText(cmd *cobra.Command) {
	if len(l.Additives) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("No additives found."))
		return
	}
	for i, a := range l.Additives {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		writeAdditive(cmd, a)
	}
}

func writeAdditive(cmd *cobra.Command, a *lookup.Additive) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  (%s)\n", color.New(color.Bold).Sprint(a.Substance), a.Query)
	if a.OtherNames != "" {
		fmt.Fprintf(out, "  Also known as: %s\n", a.OtherNames)
	}
	if a.TechnicalEffect != "" {
		fmt.Fprintf(out, "  Used as:       %s\n", a.TechnicalEffect)
	}
	if a.Confidence != "" {
		fmt.Fprintf(out, "  Match:         %s %.3f (%s)\n", a.Method, a.Score, a.Confidence)
	}
	if len(a.Links) == 0 {
		fmt.Fprintln(out, "  Regulations:   none listed")
		return
	}
	fmt.Fprintln(out, "  Regulations:")
	for _, link := range a.Links {
		fmt.Fprintf(out, "    21 CFR %-10s %s\n", link.Code, color.CyanString(link.URL))
	}
}

// NewSearchCmd looks additives up for display: names are formatted and the
// regulation sections are attached.
func NewSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search NAME [NAME...]",
		Short: "Look up additives with their descriptions and CFR sections",
		Long: "Search de-duplicates the names, resolves each one and prints the catalog record\n" +
			"with its technical effect, other names and links into Title 21 of the eCFR.\n" +
			"Names that do not resolve are left out.",
		Example: `  additivelens search "sodium benzoate" "yellow 5"
  additivelens search -o table xanthan "citric acid"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, cliCtx *CLIContext, svc lookup.Service) error {
				additives, err := svc.Lookup(ctx, args)
				if err != nil {
					return err
				}
				cliCtx.Logger.Debug("Search completed",
					logging.Int("requested", len(args)),
					logging.Int("found", len(additives)))
				return PrintResult(cmd, &AdditiveList{Requested: len(args), Additives: additives})
			})
		},
	}
}
