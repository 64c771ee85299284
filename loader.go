package rebalance

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf returns the format of a configuration file from its extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("unsupported configuration extension %q", ext)
	}
}

// DecodePortfolio reads a portfolio configuration in the given format.
// Unknown fields are rejected.
func DecodePortfolio(r io.Reader, format Format) (Portfolio, error) {
	var p Portfolio
	var err error
	switch format {
	case TOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&p)
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	default:
		return p, fmt.Errorf("unsupported configuration format %q", format)
	}
	if err != nil {
		return p, fmt.Errorf("cannot decode %s configuration: %w", format, err)
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return p, nil
}

// LoadPortfolio reads the configuration file at path.
func LoadPortfolio(path string) (Portfolio, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Portfolio{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Portfolio{}, fmt.Errorf("cannot open configuration: %w", err)
	}
	defer f.Close()
	return DecodePortfolio(f, format)
}
