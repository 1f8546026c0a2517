package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Action is the kind of change recorded in the task history.
type Action string

const (
	ActionProgressUpdate Action = "progress_update"
	ActionStatusChange   Action = "status_change"
	ActionDateChange     Action = "date_change"
	ActionRiskChange     Action = "risk_change"
)

// History field names.
const (
	FieldProgress    = "progress"
	FieldStatus      = "status"
	FieldDates       = "dates"
	FieldRiskFlagged = "risk_flagged"
)

// ValueKind tags which member of Value is populated.
type ValueKind string

const (
	ValueKindNumber    ValueKind = "number"
	ValueKindDateRange ValueKind = "date_range"
	ValueKindBool      ValueKind = "bool"
	ValueKindString    ValueKind = "string"
)

// Value is a typed old/new value of a history entry. Only the member
// selected by Kind is meaningful; String renders the display text.
type Value struct {
	Kind   ValueKind
	Number float64
	Start  time.Time
	End    time.Time
	Bool   bool
	Text   string
}

// NumberValue wraps a numeric field value such as progress.
func NumberValue(n float64) Value {
	return Value{Kind: ValueKindNumber, Number: n}
}

// DateRangeValue wraps a start/end date pair.
func DateRangeValue(start, end time.Time) Value {
	return Value{Kind: ValueKindDateRange, Start: DateOf(start), End: DateOf(end)}
}

// BoolValue wraps a flag value.
func BoolValue(b bool) Value {
	return Value{Kind: ValueKindBool, Bool: b}
}

// StringValue wraps a free-form or enumerated value such as a status.
func StringValue(s string) Value {
	return Value{Kind: ValueKindString, Text: s}
}

// String renders the value the way it appears in the audit trail:
// numbers always carry a fractional part ("40.0"), flags are "True"/"False"
// and date ranges are "YYYY-MM-DD to YYYY-MM-DD".
func (v Value) String() string {
	switch v.Kind {
	case ValueKindNumber:
		s := strconv.FormatFloat(v.Number, 'f', -1, 64)
		if !math.IsNaN(v.Number) && !math.IsInf(v.Number, 0) && !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case ValueKindDateRange:
		return FormatDate(v.Start) + " to " + FormatDate(v.End)
	case ValueKindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	default:
		return v.Text
	}
}

// ParseValue restores a typed value from its kind and display text.
func ParseValue(kind ValueKind, text string) (Value, error) {
	switch kind {
	case ValueKindNumber:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q", ErrInvalidValue, text)
		}
		return NumberValue(n), nil
	case ValueKindDateRange:
		startText, endText, ok := strings.Cut(text, " to ")
		if !ok {
			return Value{}, fmt.Errorf("%w: date range %q", ErrInvalidValue, text)
		}
		start, err := ParseDate(startText)
		if err != nil {
			return Value{}, err
		}
		end, err := ParseDate(endText)
		if err != nil {
			return Value{}, err
		}
		return DateRangeValue(start, end), nil
	case ValueKindBool:
		switch text {
		case "True":
			return BoolValue(true), nil
		case "False":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%w: flag %q", ErrInvalidValue, text)
	case ValueKindString:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidValue, kind)
	}
}

// HistoryEntry is an immutable audit record of a single field change.
type HistoryEntry struct {
	ID        int64
	TaskID    int64
	Action    Action
	Field     string
	OldValue  Value
	NewValue  Value
	Notes     string
	Timestamp time.Time
}

// HistoryEntryWithTask is a history entry joined with its task name.
type HistoryEntryWithTask struct {
	HistoryEntry
	TaskName string
}
