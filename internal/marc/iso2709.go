package marc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	leaderLen     = 24
	dirEntryLen   = 12
	subfieldDelim = 0x1F
	fieldTerm     = 0x1E
	recordTerm    = 0x1D
)

// Decoder reads records in the ISO 2709 exchange format.
type Decoder struct {
	r      *bufio.Reader
	offset int64
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode returns the next record, or io.EOF when the input is exhausted.
func (d *Decoder) Decode() (*Record, error) {
	// Tolerate line breaks between records, some exports add them.
	for {
		b, err := d.r.Peek(1)
		if err != nil {
			return nil, err
		}
		if b[0] != '\n' && b[0] != '\r' {
			break
		}
		_, _ = d.r.ReadByte()
		d.offset++
	}

	head := make([]byte, 5)
	if _, err := io.ReadFull(d.r, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated record length at offset %d", ErrMalformed, d.offset)
		}
		return nil, err
	}

	length, ok := parseDigits(head)
	if !ok || length < leaderLen+1 {
		return nil, fmt.Errorf("%w: invalid record length %q at offset %d", ErrMalformed, head, d.offset)
	}

	buf := make([]byte, length)
	copy(buf, head)
	if _, err := io.ReadFull(d.r, buf[5:]); err != nil {
		return nil, fmt.Errorf("%w: truncated record at offset %d: %v", ErrMalformed, d.offset, err)
	}

	rec, err := decodeRecord(buf)
	if err != nil {
		return nil, fmt.Errorf("record at offset %d: %w", d.offset, err)
	}
	d.offset += int64(length)
	return rec, nil
}

func decodeRecord(buf []byte) (*Record, error) {
	if buf[len(buf)-1] != recordTerm {
		return nil, fmt.Errorf("%w: missing record terminator", ErrMalformed)
	}

	leader := buf[:leaderLen]
	base, ok := parseDigits(leader[12:17])
	if !ok || base <= leaderLen || base > len(buf) {
		return nil, fmt.Errorf("%w: invalid base address %q", ErrMalformed, leader[12:17])
	}

	dir := buf[leaderLen : base-1]
	if buf[base-1] != fieldTerm || len(dir)%dirEntryLen != 0 {
		return nil, fmt.Errorf("%w: invalid directory", ErrMalformed)
	}

	rec := &Record{Leader: string(leader)}
	data := buf[base:]
	for i := 0; i < len(dir); i += dirEntryLen {
		entry := dir[i : i+dirEntryLen]
		tag := string(entry[:3])

		length, okLen := parseDigits(entry[3:7])
		start, okStart := parseDigits(entry[7:12])
		if !okLen || !okStart || length < 1 || start+length > len(data) {
			return nil, fmt.Errorf("%w: invalid directory entry %q", ErrMalformed, entry)
		}

		raw := data[start : start+length]
		raw = bytes.TrimSuffix(raw, []byte{fieldTerm})

		field, err := decodeField(tag, raw)
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, field)
	}
	return rec, nil
}

// parseDigits reads an unsigned decimal number made of ASCII digits only.
func parseDigits(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func decodeField(tag string, raw []byte) (*Field, error) {
	if IsControlTag(tag) {
		return NewControlField(tag, string(raw)), nil
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: field %s lacks indicators", ErrMalformed, tag)
	}

	f := NewDataField(tag, raw[0], raw[1])
	for _, chunk := range bytes.Split(raw[2:], []byte{subfieldDelim}) {
		if len(chunk) == 0 {
			continue
		}
		f.Subfields = append(f.Subfields, Subfield{Code: chunk[0], Value: string(chunk[1:])})
	}
	return f, nil
}

// Encoder writes records in the ISO 2709 exchange format.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(rec *Record) error {
	var dir, data bytes.Buffer

	for _, f := range rec.Fields {
		start := data.Len()
		if f.IsControl() {
			data.WriteString(f.Data)
		} else {
			data.WriteByte(orBlank(f.Indicators[0]))
			data.WriteByte(orBlank(f.Indicators[1]))
			for _, sf := range f.Subfields {
				data.WriteByte(subfieldDelim)
				data.WriteByte(sf.Code)
				data.WriteString(sf.Value)
			}
		}
		data.WriteByte(fieldTerm)

		length := data.Len() - start
		if len(f.Tag) != 3 || length > 9999 || start > 99999 {
			return fmt.Errorf("%w: field %q cannot be encoded", ErrMalformed, f.Tag)
		}
		fmt.Fprintf(&dir, "%s%04d%05d", f.Tag, length, start)
	}
	dir.WriteByte(fieldTerm)
	data.WriteByte(recordTerm)

	base := leaderLen + dir.Len()
	total := base + data.Len()
	if total > 99999 {
		return fmt.Errorf("%w: record length %d exceeds 99999", ErrMalformed, total)
	}

	leader := []byte(rec.Leader)
	if len(leader) != leaderLen {
		leader = []byte(defaultLeader)
	}
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	copy(leader[10:12], "22")
	copy(leader[12:17], fmt.Sprintf("%05d", base))
	copy(leader[20:24], "4500")

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, dir.Bytes()...)
	out = append(out, data.Bytes()...)

	_, err := e.w.Write(out)
	return err
}

func orBlank(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}
