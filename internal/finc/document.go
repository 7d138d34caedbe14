// Package finc builds finc index documents from MARC records.
package finc

import (
	"bytes"
	"encoding/json"
)

// Entry is one slot of a document.
type Entry struct {
	Name   string
	Values []string
	// Multi renders the values as a JSON array even when there is only one.
	Multi bool
}

// Document is an ordered set of slots. The zero value is empty and ready to
// use.
type Document struct {
	entries []Entry
}

// Set replaces or appends the entry called name.
func (d *Document) Set(name string, multi bool, values ...string) {
	for i := range d.entries {
		if d.entries[i].Name == name {
			d.entries[i].Values = values
			d.entries[i].Multi = multi
			return
		}
	}
	d.entries = append(d.entries, Entry{Name: name, Values: values, Multi: multi})
}

// Get returns the values of the entry called name.
func (d *Document) Get(name string) []string {
	for _, e := range d.entries {
		if e.Name == name {
			return e.Values
		}
	}
	return nil
}

// First returns the first value of the entry called name, or "".
func (d *Document) First(name string) string {
	if v := d.Get(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Entries returns the entries in schema order.
func (d *Document) Entries() []Entry {
	return d.entries
}

// Fields returns the non-empty entries as a generic JSON value.
func (d *Document) Fields() map[string]any {
	out := make(map[string]any, len(d.entries))
	for _, e := range d.entries {
		if len(e.Values) == 0 {
			continue
		}
		if e.Multi {
			values := make([]any, len(e.Values))
			for i, v := range e.Values {
				values[i] = v
			}
			out[e.Name] = values
			continue
		}
		out[e.Name] = e.Values[0]
	}
	return out
}

// MarshalJSON writes the entries as an object in schema order. Empty entries
// are omitted.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	for _, e := range d.entries {
		if len(e.Values) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		if err := writeString(&buf, e.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		var value any = e.Values
		if !e.Multi {
			value = e.Values[0]
		}
		if err := writeJSON(&buf, value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	return writeJSON(buf, s)
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
