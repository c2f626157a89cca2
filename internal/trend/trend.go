// Package trend derives the daily series and the moving-average and
// recent-versus-earlier figures built on top of it.
package trend

import (
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultWindow is the moving-average and comparison window, in points.
const DefaultWindow = 7

var hundred = decimal.NewFromInt(100)

// DailyTrend groups both datasets by calendar day, ascending. Rows without
// a parseable date are left out.
func DailyTrend(revenue, refund []types.NormalizedRow) []types.TrendPoint {
	groups := aggregate.AggregateBy(revenue, refund, aggregate.CalendarDate)
	out := make([]types.TrendPoint, 0, len(groups))
	for _, g := range groups {
		out = append(out, types.TrendPoint{
			DateKey: g.Key,
			Revenue: g.Revenue,
			Refund:  g.Refund,
			Net:     g.Net,
			Count:   g.Count,
		})
	}
	return out
}

// MAPoint is one moving-average value; Index is the position in the trend
// of the last point in the window.
type MAPoint struct {
	Index   int
	DateKey string
	Value   decimal.Decimal
}

// MovingAverage averages revenue over a sliding window. The result is empty
// when the series is shorter than the window or window <= 0.
func MovingAverage(trend []types.TrendPoint, window int) []MAPoint {
	if window <= 0 || len(trend) < window {
		return nil
	}
	w := decimal.NewFromInt(int64(window))
	sum := decimal.Zero
	out := make([]MAPoint, 0, len(trend)-window+1)
	for i, p := range trend {
		sum = sum.Add(p.Revenue)
		if i >= window {
			sum = sum.Sub(trend[i-window].Revenue)
		}
		if i >= window-1 {
			out = append(out, MAPoint{
				Index:   i,
				DateKey: p.DateKey,
				Value:   aggregate.Round2(sum.Div(w)),
			})
		}
	}
	return out
}

// Comparison contrasts the most recent window with the start of the series.
type Comparison struct {
	RecentAvg  decimal.Decimal
	EarlierAvg decimal.Decimal
	Delta      decimal.Decimal
	Percent    decimal.Decimal

	// PercentDefined is false when the earlier average is zero; Percent is
	// then reported as 0.
	PercentDefined bool
	RecentPoints   int
	EarlierPoints  int
}

// CompareRecent averages revenue over the last min(7, n) points and the
// first min(7, n-7) points. With no earlier points the earlier average is
// taken to equal the recent one.
func CompareRecent(trend []types.TrendPoint) Comparison {
	return compare(trend, DefaultWindow)
}

func compare(trend []types.TrendPoint, window int) Comparison {
	n := len(trend)
	var c Comparison
	if n == 0 {
		return c
	}

	recentN := min(window, n)
	earlierN := max(0, min(window, n-window))
	c.RecentPoints = recentN
	c.EarlierPoints = earlierN

	c.RecentAvg = average(trend[n-recentN:])
	if earlierN == 0 {
		c.EarlierAvg = c.RecentAvg
	} else {
		c.EarlierAvg = average(trend[:earlierN])
	}
	c.Delta = aggregate.Round2(c.RecentAvg.Sub(c.EarlierAvg))
	if !c.EarlierAvg.IsZero() {
		c.Percent = c.RecentAvg.Sub(c.EarlierAvg).Div(c.EarlierAvg).Mul(hundred).Round(2)
		c.PercentDefined = true
	}
	return c
}

func average(points []types.TrendPoint) decimal.Decimal {
	if len(points) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Revenue)
	}
	return aggregate.Round2(sum.Div(decimal.NewFromInt(int64(len(points)))))
}

// Extremes holds the highest and lowest revenue days and the spread
// between them, also as a percentage of the low.
type Extremes struct {
	High, Low     types.TrendPoint
	Spread        decimal.Decimal
	SpreadPercent decimal.Decimal
}

// FindExtremes scans the series for its revenue peak and trough; ok is
// false for an empty series.
func FindExtremes(trend []types.TrendPoint) (Extremes, bool) {
	if len(trend) == 0 {
		return Extremes{}, false
	}
	e := Extremes{High: trend[0], Low: trend[0]}
	for _, p := range trend[1:] {
		if p.Revenue.GreaterThan(e.High.Revenue) {
			e.High = p
		}
		if p.Revenue.LessThan(e.Low.Revenue) {
			e.Low = p
		}
	}
	e.Spread = e.High.Revenue.Sub(e.Low.Revenue)
	if e.Low.Revenue.IsPositive() {
		e.SpreadPercent = e.Spread.Div(e.Low.Revenue).Mul(hundred).Round(1)
	}
	return e, true
}
