package trends

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pubtrend/pubtrend/internal/eutils"
)

// ExtractAffiliations returns every distinct author affiliation in articles,
// in first-seen order. Authors without affiliation info are skipped, as are
// affiliation entries without usable text, which are logged at warn level.
// The result is never nil.
func ExtractAffiliations(log *zap.Logger, articles []eutils.Article) []string {
	if log == nil {
		log = zap.NewNop()
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, a := range articles {
		for _, au := range a.Authors {
			for _, info := range au.AffiliationInfo {
				aff := strings.TrimSpace(info.Affiliation)
				if aff == "" {
					log.Warn("unrecognized affiliation info, skipping",
						zap.String("pmid", a.PMID),
						zap.String("author", au.FullName()),
						zap.Strings("identifiers", info.Identifiers),
					)
					continue
				}
				if _, ok := seen[aff]; ok {
					continue
				}
				seen[aff] = struct{}{}
				out = append(out, aff)
			}
		}
	}
	return out
}
