package adapter

import (
	"bytes"
	"encoding/json"

	"github.com/vietddude/ara/internal/core/domain"
)

// rawSource keeps confidence as a pointer so an omitted value can default
// to 0.5 without clobbering an explicit zero.
type rawSource struct {
	Label      string   `json:"label"`
	URL        string   `json:"url"`
	Confidence *float64 `json:"confidence"`
}

// parseOutput validates the provider payload against the common schema and
// tags every finding with the adapter's identity. Any missing or non-array
// required field is a VALIDATION_ERROR.
func parseOutput(data []byte, model string) (*domain.ModelOutput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, domain.NewAdapterError(domain.ErrValidation, "response is not a JSON object")
	}

	out := &domain.ModelOutput{Model: model}

	for _, f := range []struct {
		key string
		dst *[]domain.Finding
	}{
		{"whatChanged", &out.WhatChanged},
		{"opportunities", &out.Opportunities},
		{"risks", &out.Risks},
		{"outsideCoreFocus", &out.OutsideCoreFocus},
	} {
		raw, err := requireArray(fields, f.key)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, domain.NewAdapterError(domain.ErrValidation, "malformed field: %s", f.key)
		}
		for i := range *f.dst {
			(*f.dst)[i].SourceModel = model
		}
	}

	raw, err := requireArray(fields, "sentiment")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out.Sentiment); err != nil {
		return nil, domain.NewAdapterError(domain.ErrValidation, "malformed field: sentiment")
	}

	raw, err = requireArray(fields, "checklist")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out.Checklist); err != nil {
		return nil, domain.NewAdapterError(domain.ErrValidation, "malformed field: checklist")
	}

	raw, err = requireArray(fields, "sources")
	if err != nil {
		return nil, err
	}
	var sources []rawSource
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, domain.NewAdapterError(domain.ErrValidation, "malformed field: sources")
	}
	out.Sources = make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		conf := 0.5
		if s.Confidence != nil {
			conf = *s.Confidence
		}
		out.Sources = append(out.Sources, domain.Source{Label: s.Label, URL: s.URL, Confidence: conf})
	}

	return out, nil
}

func requireArray(fields map[string]json.RawMessage, key string) (json.RawMessage, error) {
	raw, ok := fields[key]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, domain.NewAdapterError(domain.ErrValidation, "missing or invalid field: %s", key)
	}
	return raw, nil
}
