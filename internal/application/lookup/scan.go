package lookup

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// MaxScanTextLength bounds the label text accepted by Scan.
const MaxScanTextLength = 64 * 1024

// ScanRequest carries the text read off a package. Text is the raw label;
// Candidates is an optional line-per-item list of additive names produced by
// an external extractor.
type ScanRequest struct {
	Text       string `json:"text"`
	Candidates string `json:"candidates,omitempty"`
}

// ScanReport lists what was found on a label.
type ScanReport struct {
	Ingredients []string    `json:"ingredients"`
	Basic       []string    `json:"basic_ingredients"`
	Additives   []*Additive `json:"additives"`
	Unresolved  []string    `json:"unresolved"`
}

// Scan finds the additives on a label. Ingredients split from the text are
// kept when they resolve directly; extractor candidates are kept after
// expanding composite entries. Staples such as sugar or water are never
// looked up. The merged names are looked up in sorted order.
func (s *service) Scan(ctx context.Context, req *ScanRequest) (*ScanReport, error) {
	if req == nil || (strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.Candidates) == "") {
		return nil, errors.New(errors.CodeInvalidParam, "scan needs label text or candidates")
	}
	if len(req.Text)+len(req.Candidates) > MaxScanTextLength {
		return nil, errors.Newf(errors.CodeInvalidParam, "scan input exceeds %d bytes", MaxScanTextLength)
	}
	assets, err := s.assets()
	if err != nil {
		return nil, err
	}

	report := &ScanReport{}
	names := make(map[string]struct{})

	if text := strings.TrimSpace(req.Text); text != "" {
		for _, item := range additive.SplitIngredients(additive.CleanLabelText(text)) {
			report.Ingredients = append(report.Ingredients, item)
			if additive.IsBasicIngredient(item) {
				report.Basic = append(report.Basic, item)
				continue
			}
			if res, ok := assets.Resolver.ResolveDirect(item); ok {
				names[strings.ToUpper(res.OriginalQuery)] = struct{}{}
			}
		}
	}

	for _, candidate := range additive.ParseCandidateList(req.Candidates) {
		if additive.IsBasicIngredient(candidate) {
			continue
		}
		parts := []string{candidate}
		if strings.Contains(candidate, "(") {
			parts = additive.ExpandParenthetical(candidate)
		}
		for _, p := range parts {
			if !additive.IsBasicIngredient(p) {
				names[strings.ToUpper(p)] = struct{}{}
			}
		}
	}

	merged := make([]string, 0, len(names))
	for n := range names {
		merged = append(merged, n)
	}
	sort.Strings(merged)

	// A label within MaxScanTextLength may list more than MaxBatchQueries
	// names, so the batch limit does not apply here.
	found, err := s.lookup(ctx, assets, "scan", merged)
	if err != nil {
		return nil, err
	}
	report.Additives = found

	resolved := make(map[string]struct{}, len(found))
	for _, a := range found {
		resolved[strings.ToUpper(a.Query)] = struct{}{}
	}
	for _, n := range merged {
		if _, ok := resolved[n]; !ok {
			report.Unresolved = append(report.Unresolved, n)
		}
	}

	s.logger.Info("Label scanned",
		logging.Int("ingredients", len(report.Ingredients)),
		logging.Int("additives", len(report.Additives)),
		logging.Int("unresolved", len(report.Unresolved)))
	return report, nil
}
