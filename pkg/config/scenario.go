package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"project_finance/pkg/core/params"
)

// LoadScenario reads a parameter file and overlays it on params.Default().
// The format follows the extension: .yaml/.yml, .hjson, or .json (lenient).
func LoadScenario(path string) (params.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return params.Parameters{}, fmt.Errorf("scenario: %w", err)
	}
	p, err := DecodeScenario(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return params.Parameters{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return p, nil
}

// DecodeScenario decodes scenario data in the given format and validates it.
// Fields absent from the data keep their default values.
func DecodeScenario(data []byte, format string) (params.Parameters, error) {
	p := params.Default()

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return params.Parameters{}, fmt.Errorf("YAML_PARSE_ERROR: %w", err)
		}
	case "hjson":
		js, err := ParseHJSON(string(data))
		if err != nil {
			return params.Parameters{}, err
		}
		if err := json.Unmarshal([]byte(js), &p); err != nil {
			return params.Parameters{}, fmt.Errorf("JSON_STRUCTURAL_ERROR: %w", err)
		}
	case "json", "":
		if _, err := SmartParse(string(data), &p); err != nil {
			return params.Parameters{}, err
		}
	default:
		return params.Parameters{}, fmt.Errorf("unsupported scenario format %q", format)
	}

	if err := p.Validate(); err != nil {
		return params.Parameters{}, err
	}
	return p, nil
}

// =============================================================================
// LENIENT JSON
// =============================================================================

// RepairJSON fixes common hand-editing mistakes: missing quotes around keys,
// single quotes, trailing commas, comments and unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %w", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
func ParseHJSON(data string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(data), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return string(out), nil
}

// SmartParse tries multiple parsing strategies and decodes into target.
// Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
//
// The JSON text that decoded is returned.
func SmartParse(input string, target interface{}) (string, error) {
	try := func(js string) bool {
		var probe map[string]interface{}
		if err := json.Unmarshal([]byte(js), &probe); err != nil {
			return false
		}
		return json.Unmarshal([]byte(js), target) == nil
	}

	// Try 1: Standard JSON
	if try(input) {
		return input, nil
	}

	// Try 2: JSON Repair
	if repaired, err := RepairJSON(input); err == nil && try(repaired) {
		return repaired, nil
	}

	// Try 3: Hjson
	if js, err := ParseHJSON(input); err == nil && try(js) {
		return js, nil
	}

	return "", fmt.Errorf("JSON_PARSE_FAILED: all parsing strategies exhausted")
}
