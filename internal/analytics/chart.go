package analytics

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hongminglow/rideledger/internal/models"
)

// RenderBreakdown draws the breakdown as a PNG pie chart, one slice per
// category in the category's own color. It reports false when there is nothing
// to draw.
func RenderBreakdown(w io.Writer, rows []models.CategoryTotal) (bool, error) {
	total := 0.0
	for _, row := range rows {
		total += row.Sum.InexactFloat64()
	}
	if total <= 0 {
		return false, nil
	}

	values := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		amount := row.Sum.InexactFloat64()
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", row.Name, row.Sum.StringFixed(2), amount/total*100),
			Value: amount,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(row.Color, "#")),
				StrokeColor: chart.ColorWhite,
			},
		})
	}

	pie := chart.PieChart{
		Width:  1024,
		Height: 640,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   40,
				Right:  40,
				Bottom: 40,
			},
			FillColor: chart.ColorWhite,
		},
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return false, fmt.Errorf("render category breakdown: %w", err)
	}
	return true, nil
}
