package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"id", "pair", "time", "recommendation", "confidence",
	"entry_price", "target_price", "stop_loss", "status", "outcome",
	"profit", "risk_reward", "patterns",
}

// WriteCSV writes recs to w with a header row.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		err := cw.Write([]string{
			r.ID,
			r.Pair,
			r.Time.UTC().Format(time.RFC3339),
			r.Recommendation,
			strconv.Itoa(r.Confidence),
			f(r.Entry),
			f(r.Target),
			f(r.Stop),
			string(r.Status),
			string(r.Outcome),
			r.Profit.String(),
			strconv.FormatFloat(r.RiskReward, 'f', 1, 64),
			strings.Join(r.Patterns, "; "),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
