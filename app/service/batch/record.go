package batch

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/lo"
)

// Record is the finalized summary of a completed batch, written once
// to the spreadsheet and never read back.
type Record struct {
	Info
	Weights []float64
	Count   int
	Average float64
	Min     float64
	Max     float64
}

// Summarize parses the batch number and computes the statistics over
// the recorded weights. Weights must be non-empty.
func Summarize(number string, weights []float64) (Record, error) {
	info, err := Parse(number)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Info:    info,
		Weights: weights,
		Count:   len(weights),
		Average: math.Round(pie.Average(weights)*100) / 100,
		Min:     pie.Min(weights),
		Max:     pie.Max(weights),
	}, nil
}

// Row lays the record out as a spreadsheet row: number, ISO date,
// soap type, count, weight list, average, min, max.
func (r Record) Row() []any {
	return []any{
		r.Number,
		r.Date.Format(time.DateOnly),
		r.SoapType,
		r.Count,
		strings.Join(lo.Map(r.Weights, func(w float64, _ int) string {
			return formatWeight(w)
		}), ", "),
		r.Average,
		r.Min,
		r.Max,
	}
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
