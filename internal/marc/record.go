package marc

import (
	"strings"

	"github.com/thomsbe/MarcLinkFinc/internal/marcspec"
)

// LeaderTag addresses the record leader as if it were a control field.
const LeaderTag = "LDR"

const defaultLeader = "00000nam a2200000 a 4500"

// Subfield is a single (code, value) pair of a data field.
type Subfield struct {
	Code  byte
	Value string
}

// Field is a control field (Data set) or a data field (Indicators and
// Subfields set).
type Field struct {
	Tag        string
	Data       string
	Indicators [2]byte
	Subfields  []Subfield
}

func NewControlField(tag, data string) *Field {
	return &Field{Tag: tag, Data: data}
}

func NewDataField(tag string, ind1, ind2 byte, subfields ...Subfield) *Field {
	return &Field{
		Tag:        tag,
		Indicators: [2]byte{ind1, ind2},
		Subfields:  subfields,
	}
}

// IsControlTag reports whether tag denotes a control field (001-009).
func IsControlTag(tag string) bool {
	return len(tag) == 3 && tag[0] == '0' && tag[1] == '0' && tag[2] >= '0' && tag[2] <= '9'
}

func (f *Field) IsControl() bool {
	return f.Tag == LeaderTag || IsControlTag(f.Tag)
}

// Indicator returns the indicator at position 1 or 2, or 0 for any other
// position.
func (f *Field) Indicator(pos int) byte {
	if pos < 1 || pos > 2 {
		return 0
	}
	return f.Indicators[pos-1]
}

// WholeValue returns the control field data, or the subfield values of a data
// field joined by a single space.
func (f *Field) WholeValue() string {
	if f.IsControl() {
		return f.Data
	}

	values := make([]string, 0, len(f.Subfields))
	for _, sf := range f.Subfields {
		values = append(values, sf.Value)
	}
	return strings.Join(values, " ")
}

func (f *Field) SubfieldsWithCode(code byte) []string {
	var values []string
	for _, sf := range f.Subfields {
		if sf.Code == code {
			values = append(values, sf.Value)
		}
	}
	return values
}

// Value returns the first subfield value with code.
func (f *Field) Value(code byte) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// Record is an ordered list of fields plus the 24 byte leader.
type Record struct {
	Leader string
	Fields []*Field
}

func NewRecord() *Record {
	return &Record{Leader: defaultLeader}
}

func (r *Record) AddField(fields ...*Field) {
	r.Fields = append(r.Fields, fields...)
}

// FieldsByTag returns the fields carrying tag, in record order.
func (r *Record) FieldsByTag(tag string) []*Field {
	var out []*Field
	for _, f := range r.Fields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// FieldsWithTag implements marcspec.Record. The leader is reachable as "LDR".
func (r *Record) FieldsWithTag(tag string) []marcspec.Field {
	if tag == LeaderTag {
		if r.Leader == "" {
			return nil
		}
		return []marcspec.Field{NewControlField(LeaderTag, r.Leader)}
	}

	var out []marcspec.Field
	for _, f := range r.Fields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// ControlValue returns the data of the first control field with tag.
func (r *Record) ControlValue(tag string) string {
	for _, f := range r.Fields {
		if f.Tag == tag && f.IsControl() {
			return f.Data
		}
	}
	return ""
}

// Get returns the first value of subfield code in the first field with tag
// that has one.
func (r *Record) Get(tag string, code byte) (string, bool) {
	for _, f := range r.Fields {
		if f.Tag != tag {
			continue
		}
		if v, ok := f.Value(code); ok {
			return v, true
		}
	}
	return "", false
}
