// =============================================================================
// Revenue/Refund Analyzer - Report State
// =============================================================================
//
// The report is a pure function of (data, filters). State holds both plus
// the views derived from them; Update is the single reducer that applies a
// message and recomputes the views. Nothing here touches the outside world,
// so the same state and message always give the same next state.
//
// RECOMPUTATION ORDER:
//   1. date range        -> rows outside [start, end] dropped
//   2. chart filters     -> quarter / subject / class type / student type
//   3. aggregation       -> every dimension, summary, shares, matrix
//   4. trend             -> daily series, moving average, comparison
//   5. selection         -> salesperson view narrowed last
//
// =============================================================================

package report

import (
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/trend"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Views are the computed report tables.
type Views struct {
	Summary     aggregate.Summary
	Salesperson []types.AggregatedGroup
	// SelectedSales is Salesperson narrowed to Filters.Salespeople.
	SelectedSales []types.AggregatedGroup
	Quarter       []types.AggregatedGroup
	Subject       []types.AggregatedGroup
	ClassType     []types.AggregatedGroup
	StudentType   []types.AggregatedGroup
	SubjectShares []aggregate.Share
	Matrix        aggregate.PeriodMatrix

	Trend         []types.TrendPoint
	MovingAverage []trend.MAPoint
	Comparison    trend.Comparison
}

// Dimension returns the group view for dim.
func (v Views) Dimension(dim aggregate.Dimension) []types.AggregatedGroup {
	switch dim {
	case aggregate.Salesperson:
		return v.SelectedSales
	case aggregate.Quarter:
		return v.Quarter
	case aggregate.Subject:
		return v.Subject
	case aggregate.ClassType:
		return v.ClassType
	case aggregate.StudentType:
		return v.StudentType
	case aggregate.CalendarDate:
		out := make([]types.AggregatedGroup, 0, len(v.Trend))
		for _, p := range v.Trend {
			out = append(out, types.AggregatedGroup{
				Key: p.DateKey, Revenue: p.Revenue, Refund: p.Refund, Net: p.Net, Count: p.Count,
			})
		}
		return out
	}
	return nil
}

// State is the whole report state.
type State struct {
	Source  Data
	Filters Filters
	// Window is the moving-average window.
	Window int
	// Filtered is the data after date and chart filters.
	Filtered Data
	Views    Views
	// Version increments on every Update.
	Version int
}

// NewState computes the initial views.
func NewState(d Data, window int) State {
	if window <= 0 {
		window = trend.DefaultWindow
	}
	s := State{Source: d, Window: window}
	s.recompute()
	return s
}

// Compute derives views from data and filters.
func Compute(d Data, f Filters, window int) (Data, Views) {
	filtered := FilterByChart(FilterByDateRange(d, f.Start, f.End), f)

	var v Views
	v.Summary = aggregate.Summarize(filtered.Revenue, filtered.Refund)
	v.Salesperson = aggregate.AggregateBy(filtered.Revenue, filtered.Refund, aggregate.Salesperson)
	v.SelectedSales = SelectSalespeople(v.Salesperson, f.Salespeople)
	v.Quarter = aggregate.AggregateBy(filtered.Revenue, filtered.Refund, aggregate.Quarter)
	v.Subject = aggregate.AggregateBy(filtered.Revenue, filtered.Refund, aggregate.Subject)
	v.ClassType = aggregate.AggregateBy(filtered.Revenue, filtered.Refund, aggregate.ClassType)
	v.StudentType = aggregate.AggregateBy(filtered.Revenue, filtered.Refund, aggregate.StudentType)
	v.SubjectShares = aggregate.Shares(v.Subject)
	v.Matrix = aggregate.SubjectByPeriod(filtered.Revenue)

	v.Trend = trend.DailyTrend(filtered.Revenue, filtered.Refund)
	v.MovingAverage = trend.MovingAverage(v.Trend, window)
	v.Comparison = trend.CompareRecent(v.Trend)
	return filtered, v
}

func (s *State) recompute() {
	s.Filtered, s.Views = Compute(s.Source, s.Filters, s.Window)
}

// =============================================================================
// MESSAGES
// =============================================================================

// Msg is anything Update understands.
type Msg interface {
	isMsg()
}

// DataLoaded replaces the source datasets and keeps the filters.
type DataLoaded struct{ Data Data }

// FiltersChanged replaces every filter at once.
type FiltersChanged struct{ Filters Filters }

// DateRangeChanged sets only the date range.
type DateRangeChanged struct{ Start, End string }

// SelectionChanged sets the salesperson selection.
type SelectionChanged struct{ Salespeople Set }

// FiltersCleared drops every filter.
type FiltersCleared struct{}

func (DataLoaded) isMsg()       {}
func (FiltersChanged) isMsg()   {}
func (DateRangeChanged) isMsg() {}
func (SelectionChanged) isMsg() {}
func (FiltersCleared) isMsg()   {}

// Update applies msg and returns the next state. s is not modified.
func Update(s State, msg Msg) State {
	next := s
	switch m := msg.(type) {
	case DataLoaded:
		next.Source = m.Data
	case FiltersChanged:
		next.Filters = m.Filters
	case DateRangeChanged:
		next.Filters.Start, next.Filters.End = m.Start, m.End
	case SelectionChanged:
		next.Filters.Salespeople = m.Salespeople
		// Only the salesperson view depends on the selection.
		next.Views.SelectedSales = SelectSalespeople(next.Views.Salesperson, m.Salespeople)
		next.Version++
		return next
	case FiltersCleared:
		next.Filters = Filters{}
	default:
		return s
	}
	next.recompute()
	next.Version++
	return next
}
