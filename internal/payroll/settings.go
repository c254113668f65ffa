package payroll

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

//go:embed tax_settings.yaml
var builtinSettings []byte

// SettingsFile is the on-disk layout of tax settings, one entry per year.
type SettingsFile struct {
	Settings []TaxSettings `yaml:"settings"`
}

// ForYear returns the settings of a year.
func (f SettingsFile) ForYear(year int) (TaxSettings, error) {
	for _, s := range f.Settings {
		if s.Year == year {
			return s, nil
		}
	}
	return TaxSettings{}, shared.Wrapf(ErrTaxSettingsNotFound, "year %d", year)
}

// LoadTaxSettingsYAML parses and validates a settings file.
func LoadTaxSettingsYAML(r io.Reader) (SettingsFile, error) {
	var f SettingsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return SettingsFile{}, fmt.Errorf("payroll: decode tax settings: %w", err)
	}
	seen := map[int]bool{}
	for _, s := range f.Settings {
		if seen[s.Year] {
			return SettingsFile{}, shared.Wrapf(ErrInvalidInput, "duplicate tax settings for %d", s.Year)
		}
		seen[s.Year] = true
		if err := s.Validate(); err != nil {
			return SettingsFile{}, err
		}
	}
	return f, nil
}

// BuiltinTaxSettings returns the statutory values shipped with the binary.
func BuiltinTaxSettings() (SettingsFile, error) {
	return LoadTaxSettingsYAML(bytes.NewReader(builtinSettings))
}
