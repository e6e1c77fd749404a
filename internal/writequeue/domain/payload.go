// Package domain defines the core write queue models: row payloads, queued
// operations, dead letters and the tagged remote store error.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is a single record destined for a remote table, keyed by column name.
type Row map[string]any

// Payload is either a single row object or a non-empty ordered list of rows.
// It serializes back to the shape it was built from.
type Payload struct {
	rows []Row
	many bool
}

// SingleRow builds a payload holding one row object.
func SingleRow(row Row) Payload {
	return Payload{rows: []Row{row}}
}

// ManyRows builds a payload holding an ordered list of rows.
func ManyRows(rows ...Row) Payload {
	return Payload{rows: rows, many: true}
}

// Rows returns the rows in insertion order. The slice is shared with the payload.
func (p Payload) Rows() []Row {
	return p.rows
}

// IsMany reports whether the payload was given as a list.
func (p Payload) IsMany() bool {
	return p.many
}

// IsEmpty reports whether the payload holds no rows.
func (p Payload) IsEmpty() bool {
	if len(p.rows) == 0 {
		return true
	}
	return !p.many && p.rows[0] == nil
}

// Len returns the number of rows.
func (p Payload) Len() int {
	return len(p.rows)
}

// MarshalJSON encodes the payload as an object or an array.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.many {
		if p.rows == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.rows)
	}
	if len(p.rows) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(p.rows[0])
}

// UnmarshalJSON accepts a JSON object or an array of JSON objects. Numbers are
// kept as json.Number so large integers survive a round trip unchanged.
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrInvalidPayload
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '{':
		var row Row
		if err := dec.Decode(&row); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		*p = SingleRow(row)
	case '[':
		var rows []Row
		if err := dec.Decode(&rows); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		for _, row := range rows {
			if row == nil {
				return fmt.Errorf("%w: rows must be objects", ErrInvalidPayload)
			}
		}
		*p = ManyRows(rows...)
	default:
		return fmt.Errorf("%w: expected an object or an array of objects", ErrInvalidPayload)
	}

	return nil
}
