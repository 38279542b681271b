package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type SortKey string

const (
	SortDate       SortKey = "date"
	SortConfidence SortKey = "confidence"
	SortProfit     SortKey = "profit"
)

// Query filters the history. An empty UID matches every owner; otherwise
// the owner's analyses are listed together with the shared demo history.
type Query struct {
	UID    string
	Search string
	Status string // "all" or empty means no filter
	Sort   SortKey
	Limit  int
}

func ParseSort(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortDate:
		return SortDate, nil
	case SortConfidence, SortProfit:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("unknown sort %q (want date|confidence|profit)", s)
}

func ParseStatus(s string) (string, error) {
	switch s {
	case "", "all":
		return "all", nil
	case string(StatusCompleted), string(StatusActive), string(StatusStopped):
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q (want all|completed|active|stopped)", s)
}

func (q Query) build() (string, []any) {
	var (
		where []string
		args  []any
	)
	if q.UID != "" {
		where = append(where, "(uid = ? OR uid = '')")
		args = append(args, q.UID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		where = append(where, `(LOWER(pair) LIKE ? ESCAPE '\' OR LOWER(recommendation) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if q.Status != "" && q.Status != "all" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}

	stmt := `SELECT ` + columns + ` FROM analyses`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}

	switch q.Sort {
	case SortConfidence:
		stmt += " ORDER BY confidence DESC, created_at DESC"
	case SortProfit:
		stmt += " ORDER BY CAST(profit AS REAL) DESC, created_at DESC"
	default:
		stmt += " ORDER BY created_at DESC"
	}
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}
	return stmt, args
}

// List returns the records matching q in the requested order.
func (j *SQLite) List(ctx context.Context, q Query) ([]Record, error) {
	stmt, args := q.build()
	rows, err := j.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the n newest analyses visible to uid.
func (j *SQLite) Recent(ctx context.Context, uid string, n int) ([]Record, error) {
	return j.List(ctx, Query{UID: uid, Sort: SortDate, Limit: n})
}

func (j *SQLite) Stats(ctx context.Context, uid string) (Stats, error) {
	recs, err := j.List(ctx, Query{UID: uid})
	if err != nil {
		return Stats{}, err
	}
	return Summarize(recs), nil
}

// Summarize computes the history header numbers. Total profit sums
// completed analyses only; the win rate is profitable outcomes over
// completed analyses, rounded to a whole percent.
func Summarize(recs []Record) Stats {
	st := Stats{Total: len(recs), TotalProfit: decimal.Zero}
	wins := 0
	for _, r := range recs {
		switch r.Status {
		case StatusCompleted:
			st.Completed++
			st.TotalProfit = st.TotalProfit.Add(r.Profit)
		case StatusActive:
			st.Active++
		}
		if r.Outcome == OutcomeProfit {
			wins++
		}
	}
	if st.Completed > 0 {
		st.WinRate = int(decimal.NewFromInt(int64(wins)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(st.Completed))).
			Round(0).IntPart())
	}
	return st
}
