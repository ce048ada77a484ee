package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/analytics"
	"salesdash/internal/core"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxBodyBytes    = 64 << 10
)

// paramError is a client mistake in a query parameter; it maps to 400.
type paramError struct {
	param string
	err   error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.param, e.err)
}

func (e *paramError) Unwrap() error { return e.err }

func isParamError(err error) bool {
	var pe *paramError
	return errors.As(err, &pe)
}

// ParseQuery reads start, end and the location filters. Missing dates
// default to the dataset's first and last order dates; a date that does not
// parse as YYYY-MM-DD is an error.
func ParseQuery(values url.Values, ds *core.Dataset) (analytics.Query, error) {
	q := analytics.Query{
		Country: sanitizeInput(values.Get("country")),
		State:   sanitizeInput(values.Get("state")),
		City:    sanitizeInput(values.Get("city")),
	}
	first, last, _ := ds.Bounds()
	var err error
	if q.Start, err = parseDateParam(values, "start", first); err != nil {
		return q, err
	}
	if q.End, err = parseDateParam(values, "end", last); err != nil {
		return q, err
	}
	return q, nil
}

func parseDateParam(values url.Values, name string, fallback core.Date) (core.Date, error) {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, &paramError{param: name, err: fmt.Errorf("%q is not a YYYY-MM-DD date", v)}
	}
	return d, nil
}

// ParsePeriod reads year and month, defaulting to the month of the latest
// order (or the current month for an empty dataset).
func ParsePeriod(values url.Values, ds *core.Dataset) (year, month int, err error) {
	year, month, ok := analytics.LatestPeriod(ds.Orders)
	if !ok {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}
	if v := strings.TrimSpace(values.Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 1 || year > 9999 {
			return 0, 0, &paramError{param: "year", err: fmt.Errorf("%q is not a year", v)}
		}
	}
	if v := strings.TrimSpace(values.Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return 0, 0, &paramError{param: "month", err: fmt.Errorf("%q is not a month", v)}
		}
	}
	return year, month, nil
}

// ParsePage reads page and page_size. page_size above the maximum is
// clamped.
func ParsePage(values url.Values) (page, size int, err error) {
	if page, err = parsePositive(values, "page", 1); err != nil {
		return 0, 0, err
	}
	if size, err = parsePositive(values, "page_size", defaultPageSize); err != nil {
		return 0, 0, err
	}
	return page, min(size, maxPageSize), nil
}

func parsePositive(values url.Values, name string, fallback int) (int, error) {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, &paramError{param: name, err: fmt.Errorf("%q is not a positive integer", v)}
	}
	return n, nil
}

// RequestBodyParser reads a JSON object or a form-encoded body into flat
// string fields.
type RequestBodyParser struct {
	body   []byte
	fields map[string]string
	parsed bool
	err    error
}

// NewRequestBodyParser reads the request body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. Bodies starting with '{' are JSON, anything else
// is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	p.fields = map[string]string{}
	body := strings.TrimSpace(string(p.body))
	if body == "" {
		return nil
	}

	if body[0] == '{' {
		var data map[string]any
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			p.err = err
			return err
		}
		for k, v := range data {
			p.fields[k] = sanitizeInput(stringValue(v))
		}
		return nil
	}

	form, err := url.ParseQuery(body)
	if err != nil {
		p.err = err
		return err
	}
	for k := range form {
		p.fields[k] = sanitizeInput(form.Get(k))
	}
	return nil
}

// Fields returns the parsed key/value pairs.
func (p *RequestBodyParser) Fields() map[string]string {
	return p.fields
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
