package revisionstats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

var DefaultPercentiles = []int{20, 50, 90}

// Row is the revision at one percentile of the ordered revisions.
type Row struct {
	Percentile int
	ID         string
	Title      string
	Created    time.Time
	Age        time.Duration
}

// Percentile returns the p-th percentile of revisions, which are expected to be sorted.
func Percentile(p int, revisions []*Revision) (*Revision, error) {
	if len(revisions) == 0 {
		return nil, errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "revisions",
			Value:   "[]",
			Message: "no revisions to take a percentile of",
		})
	}
	if p < 0 || p > 100 {
		return nil, errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "percentile",
			Value:   strconv.Itoa(p),
			Message: "must be between 0 and 100",
		})
	}
	i := int(float64(len(revisions)) / 100 * float64(p))
	if i >= len(revisions) {
		i = len(revisions) - 1
	}
	return revisions[i], nil
}

// Stats returns one row per percentile with the age of the revision at that percentile as of now.
func Stats(revisions []*Revision, percentiles []int, now time.Time) ([]Row, error) {
	rows := make([]Row, 0, len(percentiles))
	for _, p := range percentiles {
		revision, err := Percentile(p, revisions)
		if err != nil {
			return nil, err
		}
		created := revision.Created()
		rows = append(rows, Row{
			Percentile: p,
			ID:         fmt.Sprintf("D%d", revision.ID),
			Title:      revision.Fields.Title,
			Created:    created,
			Age:        now.Sub(created),
		})
	}
	return rows, nil
}

// Show prints rows as a table.
func Show(out io.Writer, rows []Row) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Percentile", "ID", "Title", "Created", "Age"})
	table.SetAutoWrapText(false)
	for _, row := range rows {
		table.Append([]string{
			strconv.Itoa(row.Percentile),
			row.ID,
			row.Title,
			row.Created.Format("2006-01-02 15:04:05"),
			row.Age.Round(time.Second).String(),
		})
	}
	table.Render()
}
