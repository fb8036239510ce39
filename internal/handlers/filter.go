package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/services"
)

const (
	paramFrom          = "from"
	paramTo            = "to"
	paramCategory      = "category"
	paramSegment       = "segment"
	paramPaymentMethod = "payment_method"
)

// parseQueryFilter narrows base with the filter parameters of q. A parameter
// that is absent keeps the base selection; one that is present with only empty
// values selects nothing.
func parseQueryFilter(q url.Values, base dataset.Predicate) (dataset.Predicate, error) {
	p := base

	if v := strings.TrimSpace(q.Get(paramFrom)); v != "" {
		from, err := parseDate(paramFrom, v)
		if err != nil {
			return dataset.Predicate{}, err
		}
		p.From = from
	}
	if v := strings.TrimSpace(q.Get(paramTo)); v != "" {
		to, err := parseDate(paramTo, v)
		if err != nil {
			return dataset.Predicate{}, err
		}
		p.To = to
	}

	if values, ok := q[paramCategory]; ok {
		p.Categories = selection(values)
	}
	if values, ok := q[paramSegment]; ok {
		p.Segments = selection(values)
	}
	if values, ok := q[paramPaymentMethod]; ok {
		p.PaymentMethods = selection(values)
	}

	if err := p.Validate(); err != nil {
		return dataset.Predicate{}, err
	}
	return p, nil
}

// filterSignals is the sidebar state held by the dashboard page.
type filterSignals struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	Categories     []string `json:"categories"`
	Segments       []string `json:"segments"`
	PaymentMethods []string `json:"paymentMethods"`
}

func (s filterSignals) predicate(base dataset.Predicate) (dataset.Predicate, error) {
	q := url.Values{}
	if s.From != "" {
		q.Set(paramFrom, s.From)
	}
	if s.To != "" {
		q.Set(paramTo, s.To)
	}
	// nil means the signal was not sent, an empty slice means nothing is selected.
	for key, values := range map[string][]string{
		paramCategory:      s.Categories,
		paramSegment:       s.Segments,
		paramPaymentMethod: s.PaymentMethods,
	} {
		if values == nil {
			continue
		}
		if len(values) == 0 {
			q[key] = []string{""}
			continue
		}
		q[key] = values
	}
	return parseQueryFilter(q, base)
}

func signalsFor(p dataset.Predicate) filterSignals {
	s := filterSignals{
		Categories:     p.Categories.Values(),
		Segments:       p.Segments.Values(),
		PaymentMethods: p.PaymentMethods.Values(),
	}
	if !p.From.IsZero() {
		s.From = p.From.Format(dataset.DateLayout)
	}
	if !p.To.IsZero() {
		s.To = p.To.Format(dataset.DateLayout)
	}
	return s
}

func selection(values []string) dataset.Set {
	picked := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if label := dataset.NormalizeLabel(part); label != "" {
				picked = append(picked, label)
			}
		}
	}
	return dataset.NewSet(picked...)
}

func parseDate(param, value string) (time.Time, error) {
	t, err := time.Parse(dataset.DateLayout, value)
	if err != nil {
		return time.Time{}, errors.ValidationWrap(err, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", param)).
			WithDetails(fmt.Sprintf("got %q", value))
	}
	return t, nil
}

// parseLimit reads a non-negative integer parameter, falling back to def.
func parseLimit(q url.Values, param string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(param))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Validation(fmt.Sprintf("%s must be a non-negative integer", param)).
			WithDetails(fmt.Sprintf("got %q", v))
	}
	return n, nil
}

// toAppError maps pipeline failures onto API error codes.
func toAppError(err error) *errors.AppError {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}

	var loadErr *dataset.LoadError
	switch {
	case stderrors.As(err, &loadErr):
		return errors.DataLoad(loadErr)
	case stderrors.Is(err, dataset.ErrInvalidRange):
		return errors.ValidationWrap(err, "Invalid date range").WithDetails(err.Error())
	case stderrors.Is(err, services.ErrNotLoaded):
		return errors.ServiceUnavailable("Sales data is not loaded yet")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(err, errors.CodeServiceUnavail, "Request cancelled")
	default:
		return errors.InternalWrap(err, "An unexpected error occurred")
	}
}

func requestFilter(r *http.Request, analytics *services.Analytics) (dataset.Predicate, error) {
	base, err := analytics.DefaultPredicate(r.Context())
	if err != nil {
		return dataset.Predicate{}, err
	}
	return parseQueryFilter(r.URL.Query(), base)
}
