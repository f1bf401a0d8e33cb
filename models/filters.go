// ABOUTME: Request parameters for a dashboard load
// ABOUTME: Date range and relative days are mutually exclusive
package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultDays is the relative window applied by DefaultFilters and by reset.
const DefaultDays = 365

const dateLayout = "2006-01-02"

// Filters are the optional query parameters of one load.
type Filters struct {
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Days     int    `json:"days,omitempty"`
	TeamLead string `json:"teamlead,omitempty"`
	Person   string `json:"person,omitempty"`
	Group    string `json:"group,omitempty"`
}

// DefaultFilters returns the reset state: the last 365 days, no narrowing.
func DefaultFilters() Filters {
	return Filters{Days: DefaultDays}
}

// SetDateRange activates an absolute range and clears the relative window.
func (f *Filters) SetDateRange(start, end string) {
	f.Start = start
	f.End = end
	f.Days = 0
}

// SetDays activates a relative window and clears the absolute range.
func (f *Filters) SetDays(days int) {
	f.Days = days
	f.Start = ""
	f.End = ""
}

// HasDateRange reports whether a complete absolute range is set.
func (f Filters) HasDateRange() bool {
	return f.Start != "" && f.End != ""
}

// Validate checks date formats and ordering.
func (f Filters) Validate() error {
	if f.Days < 0 {
		return fmt.Errorf("days must not be negative: %d", f.Days)
	}
	if (f.Start == "") != (f.End == "") {
		return fmt.Errorf("start and end must be given together")
	}
	if !f.HasDateRange() {
		return nil
	}
	start, err := time.Parse(dateLayout, f.Start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", f.Start, err)
	}
	end, err := time.Parse(dateLayout, f.End)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", f.End, err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", f.End, f.Start)
	}
	return nil
}

// Values renders the filters as query parameters. A complete date range wins
// over the relative window so only one of them is ever sent.
func (f Filters) Values() url.Values {
	v := url.Values{}
	switch {
	case f.HasDateRange():
		v.Set("start", f.Start)
		v.Set("end", f.End)
	case f.Days > 0:
		v.Set("days", strconv.Itoa(f.Days))
	}
	if f.TeamLead != "" {
		v.Set("teamlead", f.TeamLead)
	}
	if f.Person != "" {
		v.Set("person", f.Person)
	}
	if f.Group != "" {
		v.Set("group", f.Group)
	}
	return v
}

// Encode is the serialized query string stored alongside cached snapshots.
func (f Filters) Encode() string {
	return f.Values().Encode()
}

// ParseFilters is the inverse of Encode.
func ParseFilters(query string) (Filters, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return Filters{}, fmt.Errorf("failed to parse filters: %w", err)
	}
	f := Filters{
		TeamLead: v.Get("teamlead"),
		Person:   v.Get("person"),
		Group:    v.Get("group"),
	}
	if v.Get("start") != "" || v.Get("end") != "" {
		f.SetDateRange(v.Get("start"), v.Get("end"))
	} else if days := v.Get("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return Filters{}, fmt.Errorf("invalid days %q: %w", days, err)
		}
		f.SetDays(n)
	}
	return f, nil
}

// Describe summarizes the filters for status lines.
func (f Filters) Describe() string {
	var parts []string
	switch {
	case f.HasDateRange():
		parts = append(parts, f.Start+" to "+f.End)
	case f.Days > 0:
		parts = append(parts, fmt.Sprintf("last %d days", f.Days))
	default:
		parts = append(parts, "all time")
	}
	if f.TeamLead != "" {
		parts = append(parts, "team "+f.TeamLead)
	}
	if f.Person != "" {
		parts = append(parts, "person "+f.Person)
	}
	if f.Group != "" {
		parts = append(parts, "group "+f.Group)
	}
	return strings.Join(parts, ", ")
}
