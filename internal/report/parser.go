package report

import (
	"encoding/json"
	"fmt"
)

// JSONParser reads a report written by JSONRenderer.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	if rep.Entries == nil && rep.Session.ID == "" {
		return nil, fmt.Errorf("failed to parse JSON report: no session or entries")
	}
	return &rep, nil
}
