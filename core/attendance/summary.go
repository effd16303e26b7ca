package attendance

import (
	"sort"
	"time"

	"github.com/trezcool/rollcall/core"
)

// RecentLimit is the number of records kept in a MonthSummary.
const RecentLimit = 7

// Percent returns round-half-up(100*present/total), or nil when total is 0.
func Percent(present, total int) *int {
	if total <= 0 {
		return nil
	}
	p := (200*present + total) / (2 * total)
	return &p
}

// SummarizeRecords computes the MonthSummary of records already restricted to the month.
func SummarizeRecords(records []Record) MonthSummary {
	var present int
	for _, rec := range records {
		if rec.Status == StatusPresent {
			present++
		}
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })
	if len(sorted) > RecentLimit {
		sorted = sorted[:RecentLimit]
	}

	return MonthSummary{
		Percent: Percent(present, len(records)),
		Recent:  sorted,
	}
}

// SummarizeAggregate counts the entries of agg by status and lists the absentees in entry order.
// Entries with an unknown status are not counted.
func SummarizeAggregate(agg DailyAggregate) DailySummary {
	ds := DailySummary{Absentees: []Entry{}}
	for _, e := range agg.Entries {
		switch e.Status {
		case StatusPresent:
			ds.Summary.Present++
		case StatusAbsent:
			ds.Summary.Absent++
			ds.Absentees = append(ds.Absentees, e)
		case StatusLate:
			ds.Summary.Late++
		}
	}
	return ds
}

// monthStartDate is the ISO date of the first day of ref's month, in ref's location.
func monthStartDate(ref time.Time) string {
	return core.FormatDate(core.MonthStart(ref))
}

// monthDates lists every ISO date of month (YYYY-MM).
func monthDates(month time.Time) []string {
	start := core.MonthStart(month)
	end := core.MonthEnd(month)
	dates := make([]string, 0, end.Day())
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, core.FormatDate(d))
	}
	return dates
}
