package evidence

import (
	"fmt"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

const anchoringID = "evidence_anchoring"

// minQuoteLen is the shortest source quote that can meaningfully anchor a
// value. Anything shorter is treated as unanchored.
const minQuoteLen = 10

// mustAnchorFields are the claims that may not enter synthesis without a
// supporting quote. Each entry lists the accepted path aliases.
var mustAnchorFields = []struct {
	label   string
	aliases []string
}{
	{"age statistics", []string{"population.age.mean", "population.age.median", "population.meanAge", "population.age"}},
	{"surgical technique", []string{"intervention.procedure", "intervention.technique"}},
	{"adjunct procedures", []string{"intervention.adjuncts", "intervention.evd"}},
	{"mortality", []string{"outcomes.mortality", "mortality"}},
	{"primary functional outcome", []string{"outcomes.mRS", "outcomes.GOS", "outcomes.favorableOutcome"}},
	{"length of stay", []string{"outcomes.lengthOfStay", "outcomes.los"}},
	{"complications", []string{"outcomes.complications"}},
}

// maxUnanchored is how many must-anchor fields may lack evidence before the
// record as a whole counts as unanchored.
const maxUnanchored = 2

// checkAnchoring verifies that every must-anchor claim carries a usable
// source quote. A claim the record does not report at all still counts as
// missing: the maxUnanchored tolerance is the allowance for legitimately
// unreported data, so a record reporting nothing cannot pass as anchored.
func checkAnchoring(r record.Record) (anchored bool, missing []string, issues []critique.Issue) {
	for _, mf := range mustAnchorFields {
		path, present := firstPresent(r, mf.aliases)
		msg := fmt.Sprintf("%s (%s) is reported without a supporting source quote", mf.label, path)
		if !present {
			path = mf.aliases[0]
			msg = fmt.Sprintf("%s (%s) is not reported; nothing anchors this claim", mf.label, path)
		} else if field, isField := r.GetField(path); isField && len(strings.TrimSpace(field.SourceText)) >= minQuoteLen {
			continue
		}
		missing = append(missing, path)
		issues = append(issues, critique.Issue{
			CriticID: anchoringID,
			Field:    path,
			Severity: critique.SeverityWarning,
			Message:  msg,
		})
	}
	return len(missing) <= maxUnanchored, missing, issues
}

func firstPresent(r record.Record, aliases []string) (string, bool) {
	for _, a := range aliases {
		if r.Has(a) {
			return a, true
		}
	}
	return "", false
}
