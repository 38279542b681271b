package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatRecordOrg renders a Record as an Org-mode block suitable for
// pasting into a trading journal. Facts go in a PROPERTIES drawer; the
// Notes and Review headings are left for the trader.
func FormatRecordOrg(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Analysis: %s %s (%s)\n", r.Pair, r.Recommendation, shortID(r.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", r.ID)
	fmt.Fprintf(&b, ":PAIR: %s\n", r.Pair)
	fmt.Fprintf(&b, ":TIME: %s\n", r.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":RECOMMENDATION: %s\n", r.Recommendation)
	fmt.Fprintf(&b, ":CONFIDENCE: %d\n", r.Confidence)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %s\n", f(r.Entry))
	fmt.Fprintf(&b, ":TARGET_PRICE: %s\n", f(r.Target))
	fmt.Fprintf(&b, ":STOP_LOSS: %s\n", f(r.Stop))
	fmt.Fprintf(&b, ":RISK_REWARD: 1:%s\n", f(r.RiskReward))
	fmt.Fprintf(&b, ":STATUS: %s\n", r.Status)
	fmt.Fprintf(&b, ":OUTCOME: %s\n", r.Outcome)
	fmt.Fprintf(&b, ":PROFIT: %s\n", r.Profit.StringFixed(2))
	if r.Depth != "" {
		fmt.Fprintf(&b, ":DEPTH: %s\n", r.Depth)
	}
	b.WriteString(":END:\n\n")
	b.WriteString("*** Patterns\n")
	for _, p := range r.Patterns {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\n*** Notes\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatRecordsOrg renders multiple records separated by blank lines.
func FormatRecordsOrg(recs []Record) string {
	var b strings.Builder
	for i, r := range recs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatRecordOrg(r))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
