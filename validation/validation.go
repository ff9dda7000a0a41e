package validation

import (
	"strings"
	"time"
)

// Violations maps a field name to a message code (see i18n).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveID(field string, id uint, v Violations) {
	if id == 0 {
		v[field] = "must_be_positive"
	}
}

// Check records invalid_value for field unless ok.
func Check(field string, ok bool, v Violations) {
	if !ok {
		v[field] = "invalid_value"
	}
}

// DateRange flags field when both bounds are set and start is after end.
func DateRange(field string, start, end *time.Time, v Violations) {
	if start != nil && end != nil && start.After(*end) {
		v[field] = "invalid_date_range"
	}
}
