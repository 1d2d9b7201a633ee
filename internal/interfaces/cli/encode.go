package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// DefaultEncodeDim matches the dimension of the published catalog.
const DefaultEncodeDim = 384

// EncodeOutput is printed by the encode command.
type EncodeOutput struct {
	Text       string    `json:"text"`
	Dimension  int       `json:"dimension"`
	NonZero    int       `json:"non_zero"`
	Vector     []float32 `json:"vector"`
	Compare    string    `json:"compare,omitempty"`
	Similarity *float32  `json:"similarity,omitempty"`
}

func (o *EncodeOutput) TableHeaders() []string {
	return []string{"Index", "Value"}
}

// TableRows lists the non-zero components only.
func (o *EncodeOutput) TableRows() [][]string {
	var rows [][]string
	for i, v := range o.Vector {
		if v != 0 {
			rows = append(rows, []string{strconv.Itoa(i), strconv.FormatFloat(float64(v), 'f', 6, 32)})
		}
	}
	return rows
}

func (o *EncodeOutput) WriteText(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%q  dim=%d non-zero=%d\n", o.Text, o.Dimension, o.NonZero)
	parts := make([]string, len(o.Vector))
	for i, v := range o.Vector {
		parts[i] = strconv.FormatFloat(float64(v), 'g', 7, 32)
	}
	fmt.Fprintf(out, "[%s]\n", strings.Join(parts, " "))
	if o.Similarity != nil {
		fmt.Fprintf(out, "cosine(%q) = %.6f (threshold %.3f)\n", o.Compare, *o.Similarity, additive.DefaultThreshold)
	}
}

// NewEncodeCmd prints the lexical fingerprint of a text. It needs no assets.
func NewEncodeCmd() *cobra.Command {
	var (
		dim     int
		compare string
	)

	cmd := &cobra.Command{
		Use:   "encode TEXT",
		Short: "Print the lexical fingerprint the search path compares",
		Example: `  additivelens encode "sodium benzoate"
  additivelens encode --dim 64 --compare "benzoate of soda" "sodium benzoate"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dim < 1 || dim > 4096 {
				return errors.Newf(errors.CodeInvalidParam, "dim must be between 1 and 4096, got %d", dim)
			}
			return PrintResult(cmd, runEncode(strings.Join(args, " "), compare, dim))
		},
	}
	cmd.Flags().IntVar(&dim, "dim", DefaultEncodeDim, "vector dimension")
	cmd.Flags().StringVar(&compare, "compare", "", "second text; prints the cosine similarity of the two vectors")
	return cmd
}

func runEncode(text, compare string, dim int) *EncodeOutput {
	enc := additive.NewEncoder(dim)
	vec := enc.Encode(text)
	out := &EncodeOutput{Text: text, Dimension: dim, Vector: vec}
	for _, v := range vec {
		if v != 0 {
			out.NonZero++
		}
	}
	if compare != "" {
		sim := additive.CosineSimilarity(vec, enc.Encode(compare))
		out.Compare = compare
		out.Similarity = &sim
	}
	return out
}
