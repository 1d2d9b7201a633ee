package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// ScanOutput is printed by the scan command.
type ScanOutput struct {
	*lookup.ScanReport
}

func (o *ScanOutput) TableHeaders() []string {
	return (&AdditiveList{}).TableHeaders()
}

func (o *ScanOutput) TableRows() [][]string {
	return additiveRows(o.Additives)
}

func (o *ScanOutput) WriteText(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	if len(o.Ingredients) > 0 {
		fmt.Fprintf(out, "Ingredients (%d): %s\n", len(o.Ingredients), strings.Join(o.Ingredients, ", "))
	}
	if len(o.Basic) > 0 {
		fmt.Fprintf(out, "Basic ingredients skipped: %s\n", strings.Join(o.Basic, ", "))
	}
	fmt.Fprintln(out)
	(&AdditiveList{Additives: o.Additives}).WriteText(cmd)
	if len(o.Unresolved) > 0 {
		fmt.Fprintf(out, "\n%s %s\n", color.YellowString("Not in catalog:"), strings.Join(o.Unresolved, ", "))
	}
}

// NewScanCmd reads a label transcript and reports the additives on it.
func NewScanCmd() *cobra.Command {
	var (
		text           string
		candidatesPath string
	)

	cmd := &cobra.Command{
		Use:   "scan [FILE|-]",
		Short: "Find the additives in an ingredient label",
		Long: "Scan cleans the label text, splits it into ingredients, skips staples such as\n" +
			"water or sugar and looks up everything else. An optional candidate list (one name\n" +
			"per line, as produced by an external extractor) is merged in. The label is read\n" +
			"from FILE, from stdin when FILE is \"-\", or from --text.",
		Example: `  additivelens scan label.txt
  echo "Ingredients: water, sugar, citric acid, sodium benzoate" | additivelens scan -
  additivelens scan --text "INGREDIENTS: corn syrup, red 40" --candidates extracted.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildScanRequest(cmd, args, text, candidatesPath)
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, _ *CLIContext, svc lookup.Service) error {
				report, err := svc.Scan(ctx, req)
				if err != nil {
					return err
				}
				return PrintResult(cmd, &ScanOutput{ScanReport: report})
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "label text (instead of FILE)")
	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "file with one candidate additive name per line")
	return cmd
}

func buildScanRequest(cmd *cobra.Command, args []string, text, candidatesPath string) (*lookup.ScanRequest, error) {
	if text != "" && len(args) > 0 {
		return nil, errors.New(errors.CodeInvalidParam, "--text and FILE are mutually exclusive")
	}
	req := &lookup.ScanRequest{Text: text}
	if len(args) == 1 {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return nil, err
		}
		req.Text = string(data)
	}
	if candidatesPath != "" {
		data, err := readInput(cmd, candidatesPath)
		if err != nil {
			return nil, err
		}
		req.Candidates = string(data)
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.Candidates) == "" {
		return nil, errors.New(errors.CodeInvalidParam, "nothing to scan: pass FILE, - or --text")
	}
	return req, nil
}

// readInput reads path, or stdin for "-", up to the scan size limit.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidParam, "open %s", path)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, lookup.MaxScanTextLength+1))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidParam, "read %s", path)
	}
	if len(data) > lookup.MaxScanTextLength {
		return nil, errors.Newf(errors.CodeInvalidParam, "%s exceeds %d bytes", path, lookup.MaxScanTextLength)
	}
	return data, nil
}
