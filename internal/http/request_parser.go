// Package http exposes the budgetwise JSON API.
//
// This file implements utilities for reading request bodies and query
// parameters. Bodies may be JSON objects or form-encoded; both are read
// through the same RequestBodyParser.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("malformed request body")
	errInvalidID     = errors.New("invalid id")
	errInvalidDays   = errors.New("days must be a positive integer")
)

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body != nil {
		var err error
		p.body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			p.err = errMalformedBody
		}
	}
	return p
}

// Parse decodes the body as a JSON object or, failing the leading brace,
// as form data. Numbers are kept as their literal text.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = errMalformedBody
			return p.err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errMalformedBody
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = errMalformedBody
	}
	return p.err
}

// Get returns a trimmed string value from the parsed data (JSON or form).
// JSON null and missing keys both read as "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// First returns the value of the first key that is present and non-empty.
func (p *RequestBodyParser) First(keys ...string) string {
	for _, k := range keys {
		if v := p.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// Value returns the decoded JSON value under key, or nil.
func (p *RequestBodyParser) Value(key string) any {
	if p.jsonData == nil {
		return nil
	}
	return p.jsonData[key]
}

// Amount parses the value under key as a money amount.
func (p *RequestBodyParser) Amount(key string) (decimal.Decimal, error) {
	return core.ParseAmount(p.Get(key))
}

// OptionalDate parses the value under key; an empty value gives the zero Date.
func (p *RequestBodyParser) OptionalDate(key string) (core.Date, error) {
	v := p.Get(key)
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

// OptionalID parses the value under key as a positive id; empty gives nil.
func (p *RequestBodyParser) OptionalID(key string) (*int64, error) {
	v := p.Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := parseID(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims and drops control characters except tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

// ParseDays reads the days query parameter. Missing means 0, the default window.
func ParseDays(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("days"))
	if v == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 1 {
		return 0, errInvalidDays
	}
	return days, nil
}
