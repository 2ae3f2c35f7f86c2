package stress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"liquidity_stress/pkg/core/utils"
)

// Deck is the on-disk format for user-defined scenarios:
//
//	scenarios:
//	  - name: Rate spike
//	    shocks:
//	      rate_shock: 0.04
type Deck struct {
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// LoadDeck reads a scenario deck. The format follows the extension:
// .yaml/.yml via YAML, .hjson via Hjson, anything else as (lenient) JSON.
func LoadDeck(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario deck: %w", err)
	}
	return ParseDeck(filepath.Ext(path), data)
}

// ParseDeck decodes deck bytes in the format named by ext.
func ParseDeck(ext string, data []byte) ([]Scenario, error) {
	var deck Deck
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &deck); err != nil {
			return nil, fmt.Errorf("failed to parse YAML deck: %w", err)
		}
	case ".hjson":
		converted, err := utils.HJSONToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Hjson deck: %w", err)
		}
		if err := json.Unmarshal(converted, &deck); err != nil {
			return nil, fmt.Errorf("failed to decode Hjson deck: %w", err)
		}
	default:
		if err := utils.DecodeLenient(data, &deck); err != nil {
			return nil, fmt.Errorf("failed to parse JSON deck: %w", err)
		}
	}

	for i := range deck.Scenarios {
		deck.Scenarios[i].Name = strings.TrimSpace(deck.Scenarios[i].Name)
		deck.Scenarios[i].Shocks.CashDraw = 0
	}
	if err := ValidateScenarios(deck.Scenarios); err != nil {
		return nil, err
	}
	return deck.Scenarios, nil
}
