package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseConfig controls how a parser turns a document's bytes into text.
// At most one exists per document (unique on DocumentID), upserted.
//
// The JSON shape on the wire/in jsonb is {start, end, range, filters}; Range
// selects [Start, End] as an inclusive 1-based element range instead of just
// skipping the first Start and last End elements.
type ParseConfig struct {
	ID         string
	DocumentID string
	Start      uint
	End        uint
	Range      bool
	Filters    []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DefaultParseConfig is the zero-value config: no skipping, no filters.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{}
}

// Validate mirrors the original parser's schema validation: a range only
// makes sense with Start != 0 and End > Start.
func (c ParseConfig) Validate() error {
	if c.Range {
		if c.End <= c.Start {
			return fmt.Errorf("%w: end must be greater than start when using range", ErrConfig)
		}
		if c.Start == 0 {
			return fmt.Errorf("%w: start cannot be 0 when using range", ErrConfig)
		}
	}
	return nil
}

type parseConfigWire struct {
	Start   uint     `json:"start"`
	End     uint     `json:"end"`
	Range   bool     `json:"range"`
	Filters []string `json:"filters"`
}

// MarshalJSON produces the {start, end, range, filters} shape stored in the
// parse_configs.config jsonb column.
func (c ParseConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(parseConfigWire{
		Start:   c.Start,
		End:     c.End,
		Range:   c.Range,
		Filters: c.Filters,
	})
}

// UnmarshalJSON decodes the jsonb column back into a ParseConfig, rejecting
// any shape it doesn't recognize.
func (c *ParseConfig) UnmarshalJSON(data []byte) error {
	var w parseConfigWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %s", ErrConfig, err)
	}
	c.Start = w.Start
	c.End = w.End
	c.Range = w.Range
	c.Filters = w.Filters
	return nil
}
