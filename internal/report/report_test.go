package report

import (
	"sync"
	"testing"
	"time"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/schedule"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(kv ...string) types.NormalizedRow {
	r := types.NormalizedRow{ID: types.NewRowID(), Values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func sample() Data {
	return Data{
		Revenue: []types.NormalizedRow{
			row("创建人姓名", "李雷", "季度", "Q1", "学科", "数学", "班型", "常规班", "学生类型", "新生",
				"收款日期", "2024-01-05", "课程拆分金额", "1000"),
			row("创建人姓名", "韩梅梅", "季度", "Q2", "学科", "英语", "班型", "VIP", "学生类型", "老生",
				"收款日期", "2024-04-02", "课程拆分金额", "2000"),
			row("创建人姓名", "李雷", "季度", "Q2", "学科", "数学", "班型", "常规班", "学生类型", "老生",
				"课程拆分金额", "500"),
		},
		Refund: []types.NormalizedRow{
			row("课程老师", "李雷", "学期", "Q1", "科目", "数学", "是否新生", "是",
				"申请退款日期", "2024-01-20", "退费金额", "200"),
			row("课程老师", "韩梅梅", "季度", "Q2", "科目", "英语", "是否新生", "否",
				"收款日期", "2024-05-01", "退费金额", "100"),
		},
	}
}

func TestFilterByDateRangeKeepsUndated(t *testing.T) {
	got := FilterByDateRange(sample(), "2024-01-01", "2024-01-31")
	// the undated 500 row survives
	assert.Len(t, got.Revenue, 2)
	require.Len(t, got.Refund, 1)
	assert.Equal(t, "200", got.Refund[0].Get("退费金额"))

	assert.Equal(t, sample().Revenue[0].Values, FilterByDateRange(sample(), "", "").Revenue[0].Values)
}

func TestFilterByChart(t *testing.T) {
	d := sample()

	q1 := FilterByChart(d, Filters{Quarters: NewSet("Q1")})
	assert.Len(t, q1.Revenue, 1)
	require.Len(t, q1.Refund, 1)
	assert.Equal(t, "Q1", q1.Refund[0].Get("学期"))

	vip := FilterByChart(d, Filters{ClassTypes: NewSet("VIP")})
	assert.Len(t, vip.Revenue, 1)
	// class type never filters refunds
	assert.Len(t, vip.Refund, 2)

	returning := FilterByChart(d, Filters{StudentTypes: NewSet("老生")})
	assert.Len(t, returning.Revenue, 2)
	require.Len(t, returning.Refund, 1)
	assert.Equal(t, "否", returning.Refund[0].Get("是否新生"))
}

func TestFilterByChartDropsRowsWithoutValue(t *testing.T) {
	d := Data{
		Revenue: []types.NormalizedRow{row("季度", "Q1", "课程拆分金额", "100"), row("课程拆分金额", "50")},
		Refund:  []types.NormalizedRow{row("科目", "数学", "退费金额", "20"), row("是否新生", "不详", "退费金额", "10")},
	}

	unknown := FilterByChart(d, Filters{Quarters: NewSet(aggregate.UnknownQuarter)})
	assert.Empty(t, unknown.Revenue)
	assert.Empty(t, unknown.Refund)

	// the unknown bucket still shows up in the views
	s := NewState(d, 7)
	_, ok := aggregate.Lookup(s.Views.Dimension(aggregate.Quarter), aggregate.UnknownQuarter)
	assert.True(t, ok)

	students := FilterByChart(d, Filters{StudentTypes: NewSet(aggregate.UnknownStudentType)})
	assert.Empty(t, students.Revenue)
	assert.Empty(t, students.Refund)
}

func TestNewStateComputesViews(t *testing.T) {
	s := NewState(sample(), 0)
	assert.Equal(t, 7, s.Window)

	lei, ok := aggregate.Lookup(s.Views.Salesperson, "李雷")
	require.True(t, ok)
	assert.Equal(t, "1500", lei.Revenue.String())
	assert.Equal(t, "1300", lei.Net.String())

	assert.Equal(t, "3500", s.Views.Summary.TotalRevenue.String())
	assert.Len(t, s.Views.Trend, 4)
	assert.Empty(t, s.Views.MovingAverage)
	assert.Len(t, s.Views.Dimension(aggregate.CalendarDate), 4)
	assert.NotEmpty(t, s.Views.Matrix.Rows)
}

func TestUpdateIsPure(t *testing.T) {
	s := NewState(sample(), 7)
	next := Update(s, FiltersChanged{Filters: Filters{Subjects: NewSet("英语")}})

	assert.Equal(t, 0, s.Version)
	assert.Equal(t, 1, next.Version)
	assert.Len(t, s.Filtered.Revenue, 3)
	assert.Len(t, next.Filtered.Revenue, 1)
	assert.Equal(t, "2000", next.Views.Summary.TotalRevenue.String())

	again := Update(s, FiltersChanged{Filters: Filters{Subjects: NewSet("英语")}})
	assert.Equal(t, next.Views, again.Views)
}

func TestUpdateSelectionOnlyNarrowsSales(t *testing.T) {
	s := NewState(sample(), 7)
	next := Update(s, SelectionChanged{Salespeople: NewSet("韩梅梅")})

	require.Len(t, next.Views.SelectedSales, 1)
	assert.Equal(t, "韩梅梅", next.Views.SelectedSales[0].Key)
	assert.Len(t, next.Views.Salesperson, 2)
	assert.Equal(t, s.Views.Summary, next.Views.Summary)
}

func TestUpdateDateRangeAndClear(t *testing.T) {
	s := NewState(sample(), 7)
	s = Update(s, DateRangeChanged{Start: "2024-04-01", End: "2024-12-31"})
	assert.Equal(t, "2024-04-01", s.Filters.Start)
	assert.Len(t, s.Filtered.Revenue, 2)

	s = Update(s, FiltersCleared{})
	assert.True(t, s.Filters.Empty())
	assert.Len(t, s.Filtered.Revenue, 3)
}

func TestFilterOptions(t *testing.T) {
	o := FilterOptions(sample())
	assert.Equal(t, []string{"Q1", "Q2"}, o.Quarters)
	assert.Contains(t, o.Salespeople, "李雷")
	assert.Contains(t, o.StudentTypes, "新生")
}

func TestControllerDebouncesAndRenders(t *testing.T) {
	var mu sync.Mutex
	var rendered []State
	c := NewController(NewState(sample(), 7), ControllerOptions{
		Debounce: time.Hour,
		Frame:    5 * time.Millisecond,
	}, func(s State) {
		mu.Lock()
		rendered = append(rendered, s)
		mu.Unlock()
	})
	defer c.Close()

	c.Dispatch(FiltersChanged{Filters: Filters{Quarters: NewSet("Q1")}})
	c.Dispatch(FiltersChanged{Filters: Filters{Quarters: NewSet("Q2")}})
	assert.Equal(t, 0, c.State().Version)

	c.Flush()
	st := c.State()
	assert.Equal(t, 1, st.Version)
	assert.True(t, st.Filters.Quarters.Has("Q2"))

	c.Dispatch(SelectionChanged{Salespeople: NewSet("李雷")})
	assert.Equal(t, 2, c.State().Version)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(rendered) > 0 && rendered[len(rendered)-1].Version == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestControllerClearDropsPendingFilter(t *testing.T) {
	c := NewController(NewState(sample(), 7), ControllerOptions{Debounce: time.Hour}, nil)
	defer c.Close()

	c.Dispatch(DateRangeChanged{Start: "2024-04-01"})
	c.Dispatch(FiltersCleared{})
	c.Flush()

	st := c.State()
	assert.Equal(t, 1, st.Version)
	assert.Equal(t, "", st.Filters.Start)
}

func TestControllerSubmitDuringCommit(t *testing.T) {
	c := NewController(NewState(sample(), 7), ControllerOptions{}, nil)
	defer c.Close()

	// The first commit races a second submit: the message lands in the
	// inbox before the trim and signals the guard after it.
	first := true
	c.guard = schedule.NewGuard(c.compute, func(p pass) {
		if !first {
			c.commit(p)
			return
		}
		first = false
		c.mu.Lock()
		c.inbox = append(c.inbox, SelectionChanged{Salespeople: NewSet("韩梅梅")})
		c.mu.Unlock()
		c.commit(p)
		assert.False(t, c.guard.Submit(struct{}{}))
	})

	require.NotPanics(t, func() {
		c.submit(SelectionChanged{Salespeople: NewSet("李雷")})
	})

	st := c.State()
	assert.Equal(t, 2, st.Version)
	assert.Equal(t, []string{"韩梅梅"}, st.Filters.Salespeople.Values())
	c.mu.Lock()
	assert.Empty(t, c.inbox)
	c.mu.Unlock()
}

func TestControllerConcurrentDispatch(t *testing.T) {
	c := NewController(NewState(sample(), 7), ControllerOptions{Frame: time.Millisecond}, func(State) {})
	defer c.Close()

	const workers, each = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if i%10 == 9 {
					c.Dispatch(FiltersCleared{})
					continue
				}
				c.Dispatch(SelectionChanged{Salespeople: NewSet("李雷")})
			}
		}(w)
	}
	wg.Wait()

	// Every message is folded exactly once.
	assert.Equal(t, workers*each, c.State().Version)
	c.mu.Lock()
	assert.Empty(t, c.inbox)
	c.mu.Unlock()
}
