// Package utils holds parsing and rendering helpers shared by loaders and report writers.
package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON rewrites hand-edited JSON (trailing commas, single quotes,
// unquoted keys, unclosed brackets) into valid JSON.
func RepairJSON(data []byte) ([]byte, error) {
	repaired, err := jsonrepair.RepairJSON(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to repair JSON: %w", err)
	}
	return []byte(repaired), nil
}

// HJSONToJSON converts an Hjson document to plain JSON.
func HJSONToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := hjson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse Hjson: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode Hjson as JSON: %w", err)
	}
	return out, nil
}

// DecodeLenient decodes data into out as strict JSON, then repaired JSON,
// then Hjson. The strict decode error is returned when all three fail.
func DecodeLenient(data []byte, out interface{}) error {
	strictErr := json.Unmarshal(data, out)
	if strictErr == nil {
		return nil
	}
	for _, convert := range []func([]byte) ([]byte, error){RepairJSON, HJSONToJSON} {
		converted, err := convert(data)
		if err != nil {
			continue
		}
		if json.Unmarshal(converted, out) == nil {
			return nil
		}
	}
	return fmt.Errorf("not JSON, repairable JSON or Hjson: %w", strictErr)
}
