package ecmwf

import (
	"fmt"
	"hstin/reanalysis/common"
	"strings"
	"time"
)

const dayLayout = "20060102"

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func monthToken(year, month int) string {
	return fmt.Sprintf("%04d%02d00", year, month)
}

func (d DateRange) encode(stream Stream) (string, error) {
	if d.Start.IsZero() || d.End.IsZero() {
		return "", fmt.Errorf("%w: both boundaries are required", common.ErrInvalidDateRange)
	}
	start, end := civilDate(d.Start), civilDate(d.End)
	if end.Before(start) {
		return "", fmt.Errorf("%w: %s is before %s", common.ErrInvalidDateRange, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	// MARS expands a from/to interval into calendar days server side
	if stream.Daily() {
		return start.Format(dayLayout) + "/to/" + end.Format(dayLayout), nil
	}

	y0, m0 := start.Year(), int(start.Month())
	y1, m1 := end.Year(), int(end.Month())
	n := (y1-y0)*12 + (m1 - m0) + 1

	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		m := m0 - 1 + i
		tokens[i] = monthToken(y0+m/12, m%12+1)
	}
	return strings.Join(tokens, "/"), nil
}

func (ym YearMonths) encode(stream Stream) (string, error) {
	if ym.Years == nil {
		return "", common.ErrMissingDateSelection
	}
	years, err := common.ExpandInts("year", ym.Years, 1, 9999)
	if err != nil {
		return "", err
	}

	months := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if ym.Months != nil {
		if months, err = common.ExpandInts("month", ym.Months, 1, 12); err != nil {
			return "", err
		}
	}

	var tokens []string
	for _, y := range years {
		for _, m := range months {
			if !stream.Daily() {
				tokens = append(tokens, monthToken(y, m))
				continue
			}
			for day := 1; day <= daysIn(y, time.Month(m)); day++ {
				tokens = append(tokens, fmt.Sprintf("%04d%02d%02d", y, m, day))
			}
		}
	}
	return strings.Join(tokens, "/"), nil
}
