package payroll

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTaxSettings(t *testing.T) {
	f, err := BuiltinTaxSettings()
	require.NoError(t, err)
	s, err := f.ForYear(2024)
	require.NoError(t, err)
	assert.True(t, s.MRP.Equal(d("3692")))
	assert.True(t, s.StandardDeductionMRP.Equal(d("14")))

	_, err = f.ForYear(1999)
	require.ErrorIs(t, err, ErrTaxSettingsNotFound)
}

func TestLoadTaxSettingsYAMLRejectsInvalid(t *testing.T) {
	_, err := LoadTaxSettingsYAML(strings.NewReader(`
settings:
  - year: 2024
    mrp: 0
    mzp: 85000
`))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = LoadTaxSettingsYAML(strings.NewReader(`
settings:
  - year: 2024
    mrp: 1
    mzp: 1
    unknown_rate: 0.3
`))
	require.Error(t, err)
}
