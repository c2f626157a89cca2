package aggregate

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/normalize"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Dimension names a grouping axis.
type Dimension string

const (
	Salesperson  Dimension = "salesperson"
	Quarter      Dimension = "quarter"
	Subject      Dimension = "subject"
	ClassType    Dimension = "class-type"
	StudentType  Dimension = "student-type"
	CalendarDate Dimension = "calendar-date"
)

// Dimensions lists every dimension in report order.
func Dimensions() []Dimension {
	return []Dimension{Salesperson, Quarter, Subject, ClassType, StudentType, CalendarDate}
}

// ParseDimension accepts the dimension names above.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Field names used by the dimension registry.
const (
	FieldRevenueAmount = "课程拆分金额"
	FieldRefundAmount  = "退费金额"

	FieldCreator       = "创建人姓名"
	FieldCourseTeacher = "课程老师"
	FieldQuarter       = "季度"
	FieldTerm          = "学期"
	FieldSubject       = "学科"
	FieldRefundSubject = "科目"
	FieldClassType     = "班型"
	FieldClassPeriod   = "班期"
	FieldStudentType   = "学生类型"
	FieldIsNewStudent  = "是否新生"
	FieldPaymentDate   = "收款日期"
	FieldOrderCreated  = "订单创建时间"
	FieldRefundApplied = "申请退款日期"
)

// Unknown-bucket labels.
const (
	UnknownQuarter     = "未知季度"
	UnknownSubject     = "未知学科"
	UnknownClassType   = "未知班型"
	UnknownStudentType = "未知类型"
	UnknownPeriod      = "未知周期"
)

// keyFunc extracts the group key of a row; ok=false drops the row.
type keyFunc func(row types.NormalizedRow) (key string, ok bool)

type ordering int

const (
	byKey ordering = iota
	byLocaleKey
	byRevenueDesc
)

// dimensionSpec is one entry of the registry.
type dimensionSpec struct {
	revenue keyFunc
	refund  keyFunc
	order   ordering
	// unknown is the bucket for rows without a value.
	unknown string
}

func fieldOr(unknown string, fields ...string) keyFunc {
	return func(row types.NormalizedRow) (string, bool) {
		if v := row.First(fields...); v != "" {
			return v, true
		}
		return unknown, true
	}
}

func required(fields ...string) keyFunc {
	return func(row types.NormalizedRow) (string, bool) {
		v := row.First(fields...)
		return v, v != ""
	}
}

func dateOf(fields ...string) keyFunc {
	return func(row types.NormalizedRow) (string, bool) {
		return normalize.DateKey(row.First(fields...))
	}
}

func skip(types.NormalizedRow) (string, bool) { return "", false }

// refundStudentType maps the refund table's 是否新生 flag onto student labels.
func refundStudentType(row types.NormalizedRow) (string, bool) {
	switch strings.TrimSpace(row.Get(FieldIsNewStudent)) {
	case "是":
		return "新生", true
	case "否":
		return "老生", true
	}
	return UnknownStudentType, true
}

var registry = map[Dimension]dimensionSpec{
	Salesperson: {
		revenue: required(FieldCreator),
		refund:  required(FieldCourseTeacher),
		order:   byLocaleKey,
	},
	Quarter: {
		revenue: fieldOr(UnknownQuarter, FieldQuarter),
		refund:  fieldOr(UnknownQuarter, FieldQuarter, FieldTerm),
		order:   byLocaleKey,
		unknown: UnknownQuarter,
	},
	Subject: {
		revenue: fieldOr(UnknownSubject, FieldSubject),
		refund:  fieldOr(UnknownSubject, FieldRefundSubject),
		order:   byRevenueDesc,
		unknown: UnknownSubject,
	},
	ClassType: {
		revenue: fieldOr(UnknownClassType, FieldClassType),
		refund:  skip,
		order:   byRevenueDesc,
		unknown: UnknownClassType,
	},
	StudentType: {
		revenue: fieldOr(UnknownStudentType, FieldStudentType),
		refund:  refundStudentType,
		order:   byRevenueDesc,
		unknown: UnknownStudentType,
	},
	CalendarDate: {
		revenue: dateOf(FieldPaymentDate, FieldOrderCreated),
		refund:  dateOf(FieldPaymentDate, FieldRefundApplied),
		order:   byKey,
	},
}

// KeyOf returns the group key a row would land in for the given dimension.
func KeyOf(dim Dimension, kind types.Kind, row types.NormalizedRow) (string, bool) {
	spec, ok := registry[dim]
	if !ok {
		return "", false
	}
	if kind == types.Refund {
		return spec.refund(row)
	}
	return spec.revenue(row)
}

// FilterKeyOf is KeyOf for chart filters. A row that would land in the
// unknown bucket has no value to select on, so it matches nothing.
func FilterKeyOf(dim Dimension, kind types.Kind, row types.NormalizedRow) (string, bool) {
	key, ok := KeyOf(dim, kind, row)
	if !ok || key == registry[dim].unknown {
		return "", false
	}
	return key, true
}
