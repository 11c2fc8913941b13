package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rendis/flowcost/pkg/schema"
)

//go:embed data/model_pricing.json
var embeddedPricing []byte

//go:embed data/tool_definitions.json
var embeddedTools []byte

var (
	defaultPricing = sync.OnceValues(func() (*PricingCatalog, error) { return ParsePricing(embeddedPricing, ".json") })
	defaultTools   = sync.OnceValues(func() (*ToolCatalog, error) { return ParseTools(embeddedTools, ".json") })
)

// DefaultPricing returns the pricing catalog embedded in the binary.
func DefaultPricing() (*PricingCatalog, error) { return defaultPricing() }

// DefaultTools returns the tool catalog embedded in the binary.
func DefaultTools() (*ToolCatalog, error) { return defaultTools() }

// LoadPricing loads a pricing catalog from a .json, .yaml or .yml file.
// An empty path returns the embedded catalog.
func LoadPricing(path string) (*PricingCatalog, error) {
	if path == "" {
		return DefaultPricing()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeCatalog, "read pricing catalog: %v", err).WithCause(err)
	}
	return ParsePricing(data, filepath.Ext(path))
}

// LoadTools loads a tool catalog from a .json, .yaml or .yml file.
// An empty path returns the embedded catalog.
func LoadTools(path string) (*ToolCatalog, error) {
	if path == "" {
		return DefaultTools()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeCatalog, "read tool catalog: %v", err).WithCause(err)
	}
	return ParseTools(data, filepath.Ext(path))
}

// ParsePricing decodes a pricing catalog; ext selects the format.
func ParsePricing(raw []byte, ext string) (*PricingCatalog, error) {
	var data PricingData
	if err := decode(raw, ext, &data); err != nil {
		return nil, err
	}
	return NewPricingCatalog(data)
}

// ParseTools decodes a tool catalog; ext selects the format.
func ParseTools(raw []byte, ext string) (*ToolCatalog, error) {
	var data ToolData
	if err := decode(raw, ext, &data); err != nil {
		return nil, err
	}
	return NewToolCatalog(data)
}

func decode(raw []byte, ext string, out any) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, out); err != nil {
			return schema.NewErrorf(schema.ErrCodeCatalog, "parse yaml: %v", err).WithCause(err)
		}
	case ".json", "":
		if err := json.Unmarshal(raw, out); err != nil {
			return schema.NewErrorf(schema.ErrCodeCatalog, "parse json: %v", err).WithCause(err)
		}
	default:
		return schema.NewError(schema.ErrCodeCatalog, fmt.Sprintf("unsupported catalog file extension: %s", ext))
	}
	return nil
}
