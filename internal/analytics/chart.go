package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// ChartType selects the validation and sort rules for a chart.
type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
)

// DataPoint is one chartable value. X and Y are loosely typed on purpose:
// callers feed numbers, dates and category strings through the same shape and
// the validator decides what a given chart type tolerates.
type DataPoint struct {
	X     any    `json:"x"`
	Y     any    `json:"y"`
	Label string `json:"label,omitempty"`
}

// DataSeries is a named ordered sequence of points.
type DataSeries struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Points []DataPoint `json:"points"`
}

// ChartData is the normalized unit handed to the presentation layer.
type ChartData struct {
	Series []DataSeries `json:"series"`
}

// YDomain is an explicitly configured value range. Its presence switches bar
// charts to descending-by-value order.
type YDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ChartConfig drives ProcessChartData.
type ChartConfig struct {
	Type    ChartType `json:"type"`
	YDomain *YDomain  `json:"y_domain,omitempty"`
}

// ValidateChartData reports whether data is structurally fit for the given
// chart type. It returns false instead of panicking on any violation so a
// chart can degrade to "no data" rather than crash the page.
func ValidateChartData(data ChartData, chartType ChartType) bool {
	if len(data.Series) == 0 {
		return false
	}
	for _, s := range data.Series {
		if s.ID == "" || s.Name == "" || len(s.Points) == 0 {
			return false
		}
		for _, p := range s.Points {
			if p.X == nil || p.Y == nil {
				return false
			}
			switch chartType {
			case ChartLine, ChartBar:
				if _, ok := numeric(p.Y); !ok {
					return false
				}
			case ChartPie:
				y, ok := numeric(p.Y)
				if !ok || y < 0 {
					return false
				}
			case ChartScatter:
				if _, ok := numeric(p.X); !ok {
					return false
				}
				if _, ok := numeric(p.Y); !ok {
					return false
				}
			}
		}
	}
	return true
}

// ProcessChartData sorts, formats and (eventually) aggregates each series for
// rendering. Per series the fixed order is: sort, format, aggregate. Line
// sorts ascending by x preferring numeric over date over lexicographic
// comparison; bar sorts descending by y only when an explicit y-domain is
// configured; pie always sorts descending by y; other types keep input order.
func ProcessChartData(data ChartData, cfg ChartConfig) ChartData {
	out := ChartData{Series: make([]DataSeries, len(data.Series))}
	for i, s := range data.Series {
		series := DataSeries{ID: s.ID, Name: s.Name, Points: make([]DataPoint, len(s.Points))}
		copy(series.Points, s.Points)

		switch cfg.Type {
		case ChartLine:
			sortAscendingByX(series.Points)
		case ChartBar:
			if cfg.YDomain != nil {
				sortDescendingByY(series.Points)
			}
		case ChartPie:
			sortDescendingByY(series.Points)
		}

		for j := range series.Points {
			series.Points[j] = formatPoint(series.Points[j])
		}

		series = aggregateSeries(series)
		out.Series[i] = series
	}
	return out
}

// SanitizeChartData drops points whose x or y is missing or whose y is not a
// finite number. Series identity is never touched and applying it twice is a
// no-op.
func SanitizeChartData(data ChartData) ChartData {
	out := ChartData{Series: make([]DataSeries, len(data.Series))}
	for i, s := range data.Series {
		kept := make([]DataPoint, 0, len(s.Points))
		for _, p := range s.Points {
			if p.X == nil || p.Y == nil {
				continue
			}
			if y, ok := numeric(p.Y); !ok || math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			kept = append(kept, p)
		}
		out.Series[i] = DataSeries{ID: s.ID, Name: s.Name, Points: kept}
	}
	return out
}

// aggregateSeries is a reserved bucketing hook. It must stay an identity
// transform until a real aggregation mode is added.
func aggregateSeries(s DataSeries) DataSeries {
	return s
}

func formatPoint(p DataPoint) DataPoint {
	if y, ok := numeric(p.Y); ok {
		p.Y = round2(y)
	}
	if p.Label == "" {
		if t, ok := asTime(p.X); ok {
			p.Label = t.Format("Jan 2")
		} else {
			p.Label = fmt.Sprint(p.X)
		}
	}
	return p
}

func sortAscendingByX(points []DataPoint) {
	allNumeric := true
	allTime := true
	for _, p := range points {
		if _, ok := numeric(p.X); !ok {
			allNumeric = false
		}
		if _, ok := asTime(p.X); !ok {
			allTime = false
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		switch {
		case allNumeric:
			a, _ := numeric(points[i].X)
			b, _ := numeric(points[j].X)
			return a < b
		case allTime:
			a, _ := asTime(points[i].X)
			b, _ := asTime(points[j].X)
			return a.Before(b)
		default:
			return fmt.Sprint(points[i].X) < fmt.Sprint(points[j].X)
		}
	})
}

func sortDescendingByY(points []DataPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, aok := numeric(points[i].Y)
		b, bok := numeric(points[j].Y)
		if aok != bok {
			return aok
		}
		return a > b
	})
}

// numeric converts the number representations that survive JSON decoding and
// plain Go construction. Booleans and strings are not numbers here — a
// numeric-looking category label must stay a category.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(dayFormat, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
