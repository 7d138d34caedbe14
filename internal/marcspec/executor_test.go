package marcspec

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/thomsbe/MarcLinkFinc/internal/predicate"
)

type testSubfield struct {
	code  byte
	value string
}

type testField struct {
	tag        string
	data       string
	indicators [2]byte
	subfields  []testSubfield
}

func (f *testField) IsControl() bool { return f.subfields == nil }

func (f *testField) Indicator(pos int) byte { return f.indicators[pos-1] }

func (f *testField) WholeValue() string {
	if f.IsControl() {
		return f.data
	}
	parts := make([]string, 0, len(f.subfields))
	for _, sf := range f.subfields {
		parts = append(parts, sf.value)
	}
	return strings.Join(parts, " ")
}

func (f *testField) SubfieldsWithCode(code byte) []string {
	var out []string
	for _, sf := range f.subfields {
		if sf.code == code {
			out = append(out, sf.value)
		}
	}
	return out
}

type testRecord []*testField

func (r testRecord) FieldsWithTag(tag string) []Field {
	var out []Field
	for _, f := range r {
		if f.tag == tag {
			out = append(out, f)
		}
	}
	return out
}

func control(tag, data string) *testField {
	return &testField{tag: tag, data: data}
}

func data(tag, ind string, pairs ...string) *testField {
	f := &testField{tag: tag, indicators: [2]byte{ind[0], ind[1]}, subfields: []testSubfield{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.subfields = append(f.subfields, testSubfield{code: pairs[i][0], value: pairs[i+1]})
	}
	return f
}

func exampleRecord() testRecord {
	return testRecord{
		control("001", "1234567890"),
		control("008", "231027s2023    gw a     b    000 0 ger  "),
		data("020", "  ", "a", "9783120012345"),
		data("100", "1 ", "a", "Mustermann, Max", "d", "1970-", "4", "aut"),
		data("245", "10", "a", "Ein tolles Buch", "b", "Ein Roman", "c", "Max Mustermann"),
		data("246", "3 ", "a", "Über Bücher"),
		data("600", "14", "a", "Roman", "x", "Geschichte"),
		data("600", "a0", "a", "Roman", "x", "Kritik"),
		data("650", " 0", "a", "Roman", "x", "Belletristik"),
		data("650", " 7", "a", "Fiction", "a", "Drama", "2", "gnd"),
		data("650", " 0", "a", "Lyrik", "x", "Anthologie"),
	}
}

func TestExecute(t *testing.T) {
	rec := exampleRecord()

	tests := []struct {
		name string
		spec string
		want []string
	}{
		{name: "subfields_in_spec_order", spec: "245ba", want: []string{"Ein Roman", "Ein tolles Buch"}},
		{name: "repeated_subfields_in_record_order", spec: "650a", want: []string{"Roman", "Fiction", "Drama", "Lyrik"}},
		{name: "subfield_order_within_field", spec: "650ax", want: []string{"Roman", "Belletristik", "Fiction", "Drama", "Lyrik", "Anthologie"}},
		{name: "last_occurrence", spec: "650[#]a", want: []string{"Lyrik"}},
		{name: "first_occurrence", spec: "650[0]a", want: []string{"Roman"}},
		{name: "occurrence_range", spec: "650[1-2]a", want: []string{"Fiction", "Drama", "Lyrik"}},
		{name: "occurrence_range_first_sentinel", spec: "650[#-1]x", want: []string{"Belletristik"}},
		{name: "occurrence_range_last_sentinel", spec: "650[1-#]x", want: []string{"Anthologie"}},
		{name: "occurrence_range_clamped", spec: "650[2-9]a", want: []string{"Lyrik"}},
		{name: "occurrence_out_of_bounds", spec: "650[3]a", want: nil},
		{name: "occurrence_range_out_of_bounds", spec: "650[5-7]a", want: nil},
		{name: "occurrence_inverted_range", spec: "650[2-1]a", want: nil},
		{name: "indicators_match", spec: "245^10a", want: []string{"Ein tolles Buch"}},
		{name: "indicator_mismatch", spec: "245^11a", want: nil},
		{name: "digit_pair_sets_both_indicators", spec: "600^14a", want: []string{"Roman"}},
		{name: "blank_and_digit_pair", spec: "650^_7a", want: []string{"Fiction", "Drama"}},
		{name: "positional_digit_after_first_group", spec: "650^1_^27a", want: []string{"Fiction", "Drama"}},
		{name: "single_indicator", spec: "650^2_a", want: nil},
		{name: "blank_indicator", spec: "100^2_a", want: []string{"Mustermann, Max"}},
		{name: "index_applies_before_indicators", spec: "600[0]^1aa", want: nil},
		{name: "index_then_indicator", spec: "600[1]^1aa", want: []string{"Roman"}},
		{name: "control_field_whole_value", spec: "001/0-2", want: []string{"123"}},
		{name: "control_field_fixed_position", spec: "008/35-37", want: []string{"ger"}},
		{name: "control_field_has_no_subfields", spec: "001a", want: nil},
		{name: "control_field_fails_indicators", spec: "001^10/0", want: nil},
		{name: "data_field_whole_value", spec: "020[0]", want: []string{"9783120012345"}},
		{name: "char_range", spec: "650[0]a/0-2", want: []string{"Rom"}},
		{name: "char_range_last_character", spec: "650[0]/#a", want: []string{"n"}},
		{name: "char_range_single_position", spec: "650[0]/1a", want: []string{"o"}},
		{name: "char_range_end_clamped", spec: "650[0]/2-40a", want: []string{"man"}},
		{name: "char_range_first_sentinel", spec: "650[0]/#-1a", want: []string{"Ro"}},
		{name: "char_range_out_of_range_drops_value", spec: "650/5a", want: []string{"o"}},
		{name: "char_range_last_of_subfield", spec: "245[0]/#b", want: []string{"n"}},
		{name: "char_range_counts_runes", spec: "246/0-1a", want: []string{"Üb"}},
		{name: "predicate_equals", spec: "650a{$a=Roman}", want: []string{"Roman"}},
		{name: "predicate_not_equals", spec: "650a{$a!=Roman}", want: []string{"Fiction", "Drama", "Lyrik"}},
		{name: "predicate_regex", spec: "650a{$a~^[DL]}", want: []string{"Drama", "Lyrik"}},
		{name: "predicate_not_regex", spec: "650ax{$a!~i}", want: []string{"Roman", "Drama"}},
		{name: "predicate_and_semantics", spec: "650a{$a=Fiction}{$a!=Fiction}", want: nil},
		{name: "predicate_then_char_range", spec: "650a{$a=Lyrik}/0-2", want: []string{"Lyr"}},
		{name: "unknown_tag", spec: "999a", want: nil},
		{name: "unknown_subfield", spec: "245z", want: nil},
		{name: "trailing_text_is_ignored", spec: "245a!!", want: []string{"Ein tolles Buch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExecuteSpec(rec, tt.spec)
			if err != nil {
				t.Fatalf("ExecuteSpec(%q) error = %v", tt.spec, err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExecuteSpec(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestExecuteFieldsGroupsPerField(t *testing.T) {
	got, err := NewExecutor().ExecuteFields(exampleRecord(), MustParse("650ax"))
	if err != nil {
		t.Fatalf("ExecuteFields() error = %v", err)
	}

	want := [][]string{
		{"Roman", "Belletristik"},
		{"Fiction", "Drama"},
		{"Lyrik", "Anthologie"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExecuteFields() = %q, want %q", got, want)
	}
}

func TestExecuteInvalidRegex(t *testing.T) {
	_, err := ExecuteSpec(exampleRecord(), "650a{$a~(unclosed}")
	if err == nil {
		t.Fatal("ExecuteSpec() expected error for invalid regex")
	}
	if !errors.Is(err, predicate.ErrInvalidInput) {
		t.Fatalf("ExecuteSpec() error = %v, want predicate.ErrInvalidInput", err)
	}
}

func TestExecuteInvalidRegexWithoutCandidates(t *testing.T) {
	got, err := ExecuteSpec(exampleRecord(), "999a{$a~(unclosed}")
	if err != nil {
		t.Fatalf("ExecuteSpec() error = %v, want nil when no value is evaluated", err)
	}
	if len(got) != 0 {
		t.Fatalf("ExecuteSpec() = %q, want empty", got)
	}
}

func TestExecutePredicatesAreMonotonic(t *testing.T) {
	rec := exampleRecord()
	groups := []string{"{$a!=Drama}", "{$a~o}", "{$a!~^L}", "{$a=Roman}", "{$a!=Roman}"}

	spec := "650ax"
	prev := -1
	for _, g := range groups {
		spec += g
		got, err := ExecuteSpec(rec, spec)
		if err != nil {
			t.Fatalf("ExecuteSpec(%q) error = %v", spec, err)
		}
		if prev >= 0 && len(got) > prev {
			t.Fatalf("ExecuteSpec(%q) returned %d values, more than %d with fewer predicates", spec, len(got), prev)
		}
		prev = len(got)
	}
	if prev != 0 {
		t.Fatalf("contradicting predicates left %d values, want 0", prev)
	}
}

func TestExecuteDoesNotMutateRecord(t *testing.T) {
	rec := exampleRecord()
	before := rec.FieldsWithTag("650")[0].SubfieldsWithCode('a')

	if _, err := ExecuteSpec(rec, "650[0]a/0-1"); err != nil {
		t.Fatalf("ExecuteSpec() error = %v", err)
	}

	after := rec.FieldsWithTag("650")[0].SubfieldsWithCode('a')
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("record changed: %q -> %q", before, after)
	}
}

func TestExecuteConcurrentUse(t *testing.T) {
	q := MustParse("650a{$a~^[A-Z]}/0-1")
	exec := NewExecutor()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := exec.Execute(exampleRecord(), q)
			if err != nil {
				errs <- err
				return
			}
			if want := []string{"Ro", "Fi", "Dr", "Ly"}; !reflect.DeepEqual(got, want) {
				errs <- errors.New("unexpected result " + strings.Join(got, ","))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}

func TestRangeResolve(t *testing.T) {
	tests := []struct {
		name   string
		r      Range
		n      int
		lo, hi int
		ok     bool
	}{
		{name: "empty_collection", r: Range{Start: Bound{Last: true}}, n: 0},
		{name: "single", r: Range{Start: Bound{Value: 1}}, n: 3, lo: 1, hi: 1, ok: true},
		{name: "single_last", r: Range{Start: Bound{Last: true}}, n: 3, lo: 2, hi: 2, ok: true},
		{name: "single_out_of_range", r: Range{Start: Bound{Value: 3}}, n: 3},
		{name: "span", r: Range{Start: Bound{Value: 0}, End: Bound{Value: 1}, IsRange: true}, n: 3, lo: 0, hi: 1, ok: true},
		{name: "span_first_sentinel", r: Range{Start: Bound{Last: true}, End: Bound{Value: 1}, IsRange: true}, n: 3, lo: 0, hi: 1, ok: true},
		{name: "span_last_sentinel", r: Range{Start: Bound{Value: 1}, End: Bound{Last: true}, IsRange: true}, n: 3, lo: 1, hi: 2, ok: true},
		{name: "span_clamped", r: Range{Start: Bound{Value: 1}, End: Bound{Value: 10}, IsRange: true}, n: 3, lo: 1, hi: 2, ok: true},
		{name: "span_start_out_of_range", r: Range{Start: Bound{Value: 4}, End: Bound{Value: 10}, IsRange: true}, n: 3},
		{name: "span_inverted", r: Range{Start: Bound{Value: 2}, End: Bound{Value: 1}, IsRange: true}, n: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, ok := tt.r.resolve(tt.n)
			if ok != tt.ok {
				t.Fatalf("resolve(%d) ok = %v, want %v", tt.n, ok, tt.ok)
			}
			if ok && (lo != tt.lo || hi != tt.hi) {
				t.Fatalf("resolve(%d) = %d, %d, want %d, %d", tt.n, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}
