// ABOUTME: Structural validation of dashboard payloads
// ABOUTME: Errors abort a load; warnings are logged and the load proceeds
package models

import (
	"errors"
	"fmt"
)

// ValidationResult separates fatal problems from advisory ones.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the payload may be rendered and cached.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err joins the errors into one error, or returns nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, msg := range r.Errors {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the shape of a payload.
func Validate(p *Payload) ValidationResult {
	var r ValidationResult
	if p == nil {
		r.errorf("payload is empty")
		return r
	}

	switch {
	case p.OK == nil:
		r.errorf("payload has no success flag")
	case !*p.OK:
		if msg := p.ErrorMessage(); msg != "" {
			r.errorf("payload reports failure: %s", msg)
		} else {
			r.errorf("payload reports failure")
		}
	}

	switch p.DailyTrend.Kind() {
	case KindArray:
		validateTrend(p.DailyTrend, &r)
	case KindMissing, KindNull:
		r.errorf("%s is missing", SectionDailyTrend)
	default:
		r.errorf("%s is %s, want array", SectionDailyTrend, p.DailyTrend.Kind())
	}

	for _, name := range []string{SectionSummary, SectionPersonTotals} {
		if k := p.Section(name).Kind(); k != KindArray {
			r.warnf("%s is %s, want array", name, k)
		}
	}

	if k := p.KPIToday.Kind(); k != KindObject {
		r.warnf("%s is %s, want object", SectionKPIToday, k)
	}

	for _, name := range OptionalSections {
		switch k := p.Section(name).Kind(); k {
		case KindMissing, KindNull, KindArray, KindObject:
		default:
			r.warnf("%s is %s, want array or object", name, k)
		}
	}

	return r
}

func validateTrend(trend Section, r *ValidationResult) {
	rows, err := trend.Items()
	if err != nil {
		r.errorf("%s is unreadable: %v", SectionDailyTrend, err)
		return
	}
	if len(rows) == 0 {
		r.warnf("%s is empty", SectionDailyTrend)
		return
	}
	for i, row := range rows {
		if row.Field("date").Text() == "" {
			r.warnf("%s[%d] has no date", SectionDailyTrend, i)
		}
		sales := row.Field("sales")
		if sales.Present() {
			if _, ok := sales.numberOK(); !ok {
				r.warnf("%s[%d].sales is not numeric", SectionDailyTrend, i)
			}
		}
	}
}
