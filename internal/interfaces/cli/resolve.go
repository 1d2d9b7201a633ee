package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// resolveEntry is the outcome for one query on the command line.
type resolveEntry struct {
	Query       string                `json:"query"`
	Found       bool                  `json:"found"`
	Result      *additive.MatchResult `json:"result,omitempty"`
	Suggestions []additive.Suggestion `json:"suggestions,omitempty"`
}

// ResolveOutput is printed by the resolve command.
type ResolveOutput struct {
	Entries []resolveEntry `json:"entries"`
}

func (o *ResolveOutput) TableHeaders() []string {
	return []string{"Query", "Substance", "Method", "Score", "Confidence"}
}

func (o *ResolveOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Entries))
	for _, e := range o.Entries {
		if !e.Found {
			rows = append(rows, []string{e.Query, "-", "none", "", ""})
			continue
		}
		rows = append(rows, []string{
			e.Query,
			truncateString(e.Result.Substance, 48),
			string(e.Result.Method),
			formatScore(e.Result),
			string(e.Result.Confidence),
		})
	}
	return rows
}

func (o *ResolveOutput) WriteText(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	for _, e := range o.Entries {
		if !e.Found {
			fmt.Fprintf(out, "%s %s\n", color.YellowString("✗"), e.Query)
			for _, s := range e.Suggestions {
				fmt.Fprintf(out, "    did you mean %s? (%.0f%%)\n", s.Substance, s.Similarity*100)
			}
			continue
		}
		line := fmt.Sprintf("%s %s → %s [%s", color.GreenString("✓"), e.Query, e.Result.Substance, e.Result.Method)
		if e.Result.Method == additive.MethodSearch {
			line += fmt.Sprintf(" %s, %s", formatScore(e.Result), confidenceColor(e.Result.Confidence))
		}
		fmt.Fprintln(out, line+"]")
	}
}

func formatScore(r *additive.MatchResult) string {
	if r == nil || r.Method != additive.MethodSearch {
		return ""
	}
	return fmt.Sprintf("%.3f", r.Score)
}

func confidenceColor(c additive.Confidence) string {
	switch c {
	case additive.ConfidenceHigh:
		return color.GreenString(string(c))
	case additive.ConfidenceMedium:
		return color.YellowString(string(c))
	default:
		return color.RedString(string(c))
	}
}

// NewResolveCmd resolves each argument through the direct path and then the
// embedding search.
func NewResolveCmd() *cobra.Command {
	var suggest int

	cmd := &cobra.Command{
		Use:   "resolve QUERY [QUERY...]",
		Short: "Resolve additive names to catalog substances",
		Long: "Resolve each query against the substance catalog. Direct matches (exact names,\n" +
			"aliases, E-numbers, color and flavor phrases) win; otherwise the closest catalog\n" +
			"embedding above the similarity threshold is returned.",
		Example: `  additivelens resolve "red 40" e211 "vitamin c"
  additivelens resolve --suggest 3 "sodum benzoat"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if suggest < 0 || suggest > 50 {
				return errors.Newf(errors.CodeInvalidParam, "suggest must be between 0 and 50, got %d", suggest)
			}
			return withService(cmd, func(ctx context.Context, cliCtx *CLIContext, svc lookup.Service) error {
				out, err := runResolve(ctx, svc, args, suggest)
				if err != nil {
					return err
				}
				cliCtx.Logger.Debug("Resolve completed", logging.Int("queries", len(args)))
				return PrintResult(cmd, out)
			})
		},
	}
	cmd.Flags().IntVar(&suggest, "suggest", 3, "spelling suggestions to show for unresolved queries (0 disables)")
	return cmd
}

func runResolve(ctx context.Context, svc lookup.Service, queries []string, suggest int) (*ResolveOutput, error) {
	out := &ResolveOutput{Entries: make([]resolveEntry, 0, len(queries))}
	for _, q := range queries {
		q = strings.TrimSpace(q)
		res, found, err := svc.Resolve(ctx, q)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetCode(err), "resolve %q", q)
		}
		entry := resolveEntry{Query: q, Found: found, Result: res}
		if !found && suggest > 0 {
			if entry.Suggestions, err = svc.Suggest(ctx, q, suggest); err != nil {
				return nil, err
			}
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}
