package finc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/thomsbe/MarcLinkFinc/internal/extract"
	"github.com/thomsbe/MarcLinkFinc/internal/marc"
	"github.com/thomsbe/MarcLinkFinc/internal/schema"
)

// Mapper turns records into documents following a schema. It is safe for
// concurrent use.
type Mapper struct {
	schema    *schema.Schema
	extractor *extract.Extractor
	logger    *slog.Logger
}

func NewMapper(s *schema.Schema, x *extract.Extractor, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if x == nil {
		x = extract.New(logger)
	}
	return &Mapper{schema: s, extractor: x, logger: logger}
}

func (m *Mapper) Schema() *schema.Schema {
	return m.schema
}

// Map builds the document for rec. Single-valued slots that select more than
// one value are left empty.
func (m *Mapper) Map(rec *marc.Record) (*Document, error) {
	doc := &Document{}

	for _, slot := range m.schema.Slots {
		values, err := m.slotValues(rec, slot)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", slot.Name, err)
		}

		if !slot.Multivalued && len(values) > 1 {
			m.logger.Debug("dropping ambiguous single-valued slot",
				"slot", slot.Name,
				"record_id", rec.ControlValue("001"),
				"values", len(values))
			values = nil
		}

		doc.Set(slot.Name, slot.Multivalued, values...)
	}

	return doc, nil
}

func (m *Mapper) slotValues(rec *marc.Record, slot *schema.Slot) ([]string, error) {
	if slot.Constant != "" {
		return []string{slot.Prefix + slot.Constant}, nil
	}

	values, err := m.extractor.Extract(rec, slot.Options(), slot.Specs()...)
	if err != nil {
		return nil, err
	}
	if slot.Prefix != "" {
		for i := range values {
			values[i] = slot.Prefix + values[i]
		}
	}
	return values, nil
}
