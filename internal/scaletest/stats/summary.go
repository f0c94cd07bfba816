package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// PrintEntries writes one row per unit.
func PrintEntries(out io.Writer, entries []Entry) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Scenario", "Status", "Target", "Observed", "Deploy time", "Reason"})
	table.SetAutoWrapText(false)
	for _, e := range entries {
		table.Append([]string{
			e.Name,
			e.Status,
			strconv.Itoa(e.Magnitude),
			strconv.Itoa(e.Observed),
			e.DeployTime.String(),
			e.Reason,
		})
	}
	table.Render()
}

// PrintStatistics writes deploy time statistics for every series.
func PrintStatistics(out io.Writer, report *Report) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Marathon", "Shape", "Passed", "Max observed", "Min", "Max", "Avg", "Median", "Std dev"})
	for _, series := range report.Series {
		row := []string{series.Instance, series.Shape, "0", strconv.Itoa(series.MaxObserved()), "-", "-", "-", "-", "-"}
		if s := series.Statistics(); s != nil {
			row[2] = strconv.Itoa(s.Count)
			row[4] = formatSeconds(s.Min)
			row[5] = formatSeconds(s.Max)
			row[6] = formatSeconds(s.Average)
			row[7] = formatSeconds(s.Median)
			row[8] = formatSeconds(s.StandardDeviation)
		}
		table.Append(row)
	}
	table.Render()
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.2fs", s)
}
