package regulation

import (
	"strconv"
	"strings"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/pkg/errors"
)

const (
	ecfrBase        = "https://www.ecfr.gov/current/title-21/chapter-I/subchapter-B"
	generalPartCode = "170"
)

// Link is a CFR code with its eCFR address.
type Link struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

var codeDecorations = strings.NewReplacer("=T(", "", ")", "", "=", "", "T(", "")

// CleanCode strips the spreadsheet formula residue ("=T(...)") that some
// exported cells carry.
func CleanCode(raw string) string {
	return codeDecorations.Replace(strings.TrimSpace(raw))
}

// ParseCode turns one raw code into a link. 170.3 links to the whole of part
// 170; any other code needs a numeric part and a section, e.g. "172.515".
func ParseCode(raw string) (Link, error) {
	code := CleanCode(raw)
	if code == GeneralProvisionsCode {
		return Link{Code: generalPartCode, URL: ecfrBase + "/part-" + generalPartCode}, nil
	}

	parts := strings.Split(code, ".")
	if len(parts) < 2 || parts[0] == "" {
		return Link{}, errors.Newf(errors.CodeInvalidCode, "code %q has no part and section", raw)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return Link{}, errors.Wrapf(err, errors.CodeInvalidCode, "code %q has a non-numeric part", raw)
	}
	return Link{
		Code: code,
		URL:  ecfrBase + "/part-" + parts[0] + "/subpart-C/section-" + code,
	}, nil
}

// URLs converts codes to links in order. Codes that cannot be parsed are
// logged and left out.
func URLs(codes []string) []Link {
	out := make([]Link, 0, len(codes))
	for _, raw := range codes {
		link, err := ParseCode(raw)
		if err != nil {
			logging.Default().Debug("skipping regulation code",
				logging.String("code", raw),
				logging.Err(err))
			continue
		}
		out = append(out, link)
	}
	return out
}
