package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"taxmap/internal/errors"
)

//go:embed data/countries.yaml
var embeddedCatalog []byte

// Format is a catalog file format
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks a format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", errors.Newf(errors.TypeParsing, "unsupported catalog file type: %s", path)
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog. It is parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embeddedCatalog, FormatYAML, "countries.yaml")
		if defaultErr == nil {
			defaultErr = defaultCatalog.Check(DefaultValidationRules())
		}
		if defaultErr != nil {
			defaultCatalog = nil
		}
	})
	return defaultCatalog, defaultErr
}

// Parse decodes a catalog document
func Parse(data []byte, format Format, filename string) (*Catalog, error) {
	var raw RawCatalog

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Parsing("failed to parse YAML catalog "+filename, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Parsing("failed to parse JSON catalog "+filename, err)
		}
	case FormatHCL:
		parsed, err := decodeHCL(data, filename)
		if err != nil {
			return nil, err
		}
		raw = parsed
	default:
		return nil, errors.Newf(errors.TypeParsing, "unsupported catalog format %q", format)
	}

	return Ingest(raw)
}

// LoadFile reads a catalog file on its own
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Parsing("failed to read catalog "+path, err)
	}
	return Parse(data, format, filepath.Base(path))
}

// Load returns the built-in catalog with the file at path layered on top.
// Countries in the file replace built-in ones with the same key; new
// countries are appended. An empty path returns the built-in catalog.
// The merged catalog must pass DefaultValidationRules.
func Load(path string) (*Catalog, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	overlay, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	merged := base.Merge(overlay)
	if err := merged.Check(DefaultValidationRules()); err != nil {
		return nil, err
	}
	return merged, nil
}
