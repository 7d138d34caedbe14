package marc

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// The line format renders one field per line, records separated by a blank
// line:
//
//	=LDR  00000nam a2200000 a 4500
//	=001  1234567890
//	=245  10$aEin tolles Buch$bEin Roman
//
// A backslash (or space) stands for a blank indicator and "{dollar}" for a
// literal '$' inside a subfield value.

const dollarEscape = "{dollar}"

// LineDecoder reads records in the line format.
type LineDecoder struct {
	s    *bufio.Scanner
	line int
}

func NewLineDecoder(r io.Reader) *LineDecoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &LineDecoder{s: s}
}

// Decode returns the next record, or io.EOF when the input is exhausted.
func (d *LineDecoder) Decode() (*Record, error) {
	var rec *Record

	for d.s.Scan() {
		d.line++
		line := strings.TrimRight(d.s.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if rec != nil {
				return rec, nil
			}
			continue
		}

		if rec == nil {
			rec = &Record{}
		}
		if err := d.addLine(rec, line); err != nil {
			return nil, err
		}
	}

	if err := d.s.Err(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, io.EOF
	}
	return rec, nil
}

func (d *LineDecoder) addLine(rec *Record, line string) error {
	if len(line) < 4 || line[0] != '=' {
		return fmt.Errorf("%w: line %d: expected '=TAG', got %q", ErrMalformed, d.line, line)
	}

	tag := line[1:4]
	content := strings.TrimPrefix(line[4:], "  ")

	if tag == LeaderTag {
		rec.Leader = content
		return nil
	}
	if IsControlTag(tag) {
		rec.AddField(NewControlField(tag, content))
		return nil
	}

	if len(content) < 2 {
		return fmt.Errorf("%w: line %d: field %s lacks indicators", ErrMalformed, d.line, tag)
	}

	f := NewDataField(tag, blankIndicator(content[0]), blankIndicator(content[1]))
	for _, chunk := range strings.Split(content[2:], "$") {
		if chunk == "" {
			continue
		}
		f.Subfields = append(f.Subfields, Subfield{
			Code:  chunk[0],
			Value: strings.ReplaceAll(chunk[1:], dollarEscape, "$"),
		})
	}
	rec.AddField(f)
	return nil
}

func blankIndicator(b byte) byte {
	if b == '\\' {
		return ' '
	}
	return b
}

// String renders the field as a single line of the line format.
func (f *Field) String() string {
	var b strings.Builder
	b.WriteByte('=')
	b.WriteString(f.Tag)
	b.WriteString("  ")

	if f.IsControl() {
		b.WriteString(f.Data)
		return b.String()
	}

	for _, ind := range f.Indicators {
		if ind == ' ' || ind == 0 {
			b.WriteByte('\\')
		} else {
			b.WriteByte(ind)
		}
	}
	for _, sf := range f.Subfields {
		b.WriteByte('$')
		b.WriteByte(sf.Code)
		b.WriteString(strings.ReplaceAll(sf.Value, "$", dollarEscape))
	}
	return b.String()
}

// String renders the record in the line format, without a trailing blank line.
func (r *Record) String() string {
	var b strings.Builder
	if r.Leader != "" {
		b.WriteString("=" + LeaderTag + "  ")
		b.WriteString(r.Leader)
		b.WriteByte('\n')
	}
	for _, f := range r.Fields {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}
