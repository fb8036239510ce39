package dataset

import (
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

// Set is a membership selection. A nil or empty Set selects nothing.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Predicate is the conjunction of a calendar date range, inclusive at both
// ends, and membership in the category, segment and payment method sets.
// A zero From or To leaves that side of the range open.
type Predicate struct {
	From           time.Time
	To             time.Time
	Categories     Set
	Segments       Set
	PaymentMethods Set
}

func (p Predicate) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && calendarDate(p.From).After(calendarDate(p.To)) {
		return ErrInvalidRange
	}
	return nil
}

func (p Predicate) Match(r models.JoinedRecord) bool {
	day := calendarDate(r.Date)
	if !p.From.IsZero() && day.Before(calendarDate(p.From)) {
		return false
	}
	if !p.To.IsZero() && day.After(calendarDate(p.To)) {
		return false
	}

	category, segment := r.Category(), r.Segment()
	if category == "" || !p.Categories.Has(category) {
		return false
	}
	if segment == "" || !p.Segments.Has(segment) {
		return false
	}
	if r.PaymentMethod == "" || !p.PaymentMethods.Has(r.PaymentMethod) {
		return false
	}
	return true
}

// Filter returns the records matching p as a new slice; records is not
// modified. Filtering an already filtered view with the same predicate
// yields the same rows.
func Filter(records []models.JoinedRecord, p Predicate) []models.JoinedRecord {
	out := make([]models.JoinedRecord, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Options lists the selectable values of every filter dimension.
func Options(records []models.JoinedRecord) models.FilterOptions {
	categories, segments, payments := make(Set), make(Set), make(Set)
	var minDate, maxDate time.Time

	for i, r := range records {
		day := calendarDate(r.Date)
		if i == 0 || day.Before(minDate) {
			minDate = day
		}
		if i == 0 || day.After(maxDate) {
			maxDate = day
		}
		if c := r.Category(); c != "" {
			categories[c] = struct{}{}
		}
		if s := r.Segment(); s != "" {
			segments[s] = struct{}{}
		}
		if r.PaymentMethod != "" {
			payments[r.PaymentMethod] = struct{}{}
		}
	}

	opts := models.FilterOptions{
		Categories:     categories.Values(),
		Segments:       segments.Values(),
		PaymentMethods: payments.Values(),
	}
	if len(records) > 0 {
		opts.MinDate = minDate.Format(DateLayout)
		opts.MaxDate = maxDate.Format(DateLayout)
	}
	return opts
}

// FullPredicate selects every date and every value present in records.
func FullPredicate(records []models.JoinedRecord) Predicate {
	opts := Options(records)
	p := Predicate{
		Categories:     NewSet(opts.Categories...),
		Segments:       NewSet(opts.Segments...),
		PaymentMethods: NewSet(opts.PaymentMethods...),
	}
	if opts.MinDate != "" {
		p.From, _ = time.Parse(DateLayout, opts.MinDate)
		p.To, _ = time.Parse(DateLayout, opts.MaxDate)
	}
	return p
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
