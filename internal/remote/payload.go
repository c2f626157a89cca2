package remote

import (
	"bytes"
	"encoding/json"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Payload is the only data that leaves the machine: totals and group sums.
// No row-level values (names, phone numbers, order ids) are included.
type Payload struct {
	Summary       SummaryFigures  `json:"summary"`
	ByQuarter     []GroupFigures  `json:"byQuarter"`
	BySubject     []GroupFigures  `json:"bySubject"`
	ByClassType   []ClassFigures  `json:"byClassType"`
	ByStudentType []StudentFigure `json:"byStudentType"`
}

// SummaryFigures are the headline totals of the filtered data.
type SummaryFigures struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalRefund  float64 `json:"totalRefund"`
	RevenueCount int     `json:"revenueCount"`
	RefundCount  int     `json:"refundCount"`
}

// GroupFigures is used for both the quarter and the subject breakdowns;
// Key is serialized under the dimension's own label.
type GroupFigures struct {
	Key     string  `json:"-"`
	Revenue float64 `json:"营收"`
	Refund  float64 `json:"退费"`
	Net     float64 `json:"净营收"`

	label string
}

// ClassFigures is revenue and order count for one class type.
type ClassFigures struct {
	ClassType string  `json:"班型"`
	Revenue   float64 `json:"营收"`
	Orders    int     `json:"订单数"`
}

// StudentFigure is revenue and refund rate for one student type.
type StudentFigure struct {
	StudentType string  `json:"学生类型"`
	Revenue     float64 `json:"营收"`
	RefundRate  float64 `json:"退费率"`
}

// Sanitize reduces two validated datasets to a Payload.
func Sanitize(revenue, refund []types.NormalizedRow) Payload {
	s := aggregate.Summarize(revenue, refund)
	p := Payload{
		Summary: SummaryFigures{
			TotalRevenue: s.TotalRevenue.InexactFloat64(),
			TotalRefund:  s.TotalRefund.InexactFloat64(),
			RevenueCount: s.RevenueCount,
			RefundCount:  s.RefundCount,
		},
		ByQuarter: groupFigures("季度", aggregate.AggregateBy(revenue, refund, aggregate.Quarter)),
		BySubject: groupFigures("学科", aggregate.AggregateBy(revenue, refund, aggregate.Subject)),
	}
	for _, g := range aggregate.AggregateBy(revenue, refund, aggregate.ClassType) {
		p.ByClassType = append(p.ByClassType, ClassFigures{
			ClassType: g.Key,
			Revenue:   g.Revenue.InexactFloat64(),
			Orders:    g.Count,
		})
	}
	for _, g := range aggregate.AggregateBy(revenue, refund, aggregate.StudentType) {
		p.ByStudentType = append(p.ByStudentType, StudentFigure{
			StudentType: g.Key,
			Revenue:     g.Revenue.InexactFloat64(),
			RefundRate:  g.RefundRate().InexactFloat64(),
		})
	}
	return p
}

func groupFigures(label string, groups []types.AggregatedGroup) []GroupFigures {
	out := make([]GroupFigures, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupFigures{
			Key:     g.Key,
			Revenue: g.Revenue.InexactFloat64(),
			Refund:  g.Refund.InexactFloat64(),
			Net:     g.Net.InexactFloat64(),
			label:   label,
		})
	}
	return out
}

// MarshalJSON writes the key under its dimension label first, so a quarter
// group reads {"季度":"Q1","营收":...}.
func (g GroupFigures) MarshalJSON() ([]byte, error) {
	label := g.label
	if label == "" {
		label = "key"
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range []struct {
		k string
		v any
	}{{label, g.Key}, {"营收", g.Revenue}, {"退费", g.Refund}, {"净营收", g.Net}} {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(kv.k)
		v, err := json.Marshal(kv.v)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
