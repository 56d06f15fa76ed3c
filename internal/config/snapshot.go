// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Viper keys for the user-editable configuration.
const (
	KeyTariffs        = "tariffs"
	KeyExcludedEvents = "excluded_events"
	KeyOutputPrefix   = "output.prefix"
)

// Snapshot is the immutable configuration handed to one pipeline run. The
// pipeline never reads viper directly: callers take a snapshot at invocation
// time and pass it by value, so concurrent runs cannot observe config edits.
type Snapshot struct {
	Tariffs        map[string]float64
	ExcludedEvents []string
}

// DefaultTariffs returns the starting tariff table.
func DefaultTariffs() map[string]float64 {
	return map[string]float64{
		"A03": 37.14,
		"A06": 35.57,
		"B03": 37.14,
		"B04": 37.14,
		"C06": 499.88,
	}
}

// DefaultExcludedEvents returns the starting exclusion list.
func DefaultExcludedEvents() []string {
	return []string{"Annullamento (prima dell'inizio)", "Proposta"}
}

// SetDefaults registers the starting configuration with viper.
func SetDefaults() {
	viper.SetDefault(KeyTariffs, DefaultTariffs())
	viper.SetDefault(KeyExcludedEvents, DefaultExcludedEvents())
	viper.SetDefault(KeyOutputPrefix, "export_analisi")
}

// LoadSnapshot reads the current tariff table and excluded-event list from
// viper. Code keys are normalized to uppercase because viper lowercases map
// keys read from config files. Entries with unusable or negative rates are
// skipped with a warning.
func LoadSnapshot() Snapshot {
	tariffs := make(map[string]float64)
	for code, raw := range viper.GetStringMap(KeyTariffs) {
		rate, ok := toRate(raw)
		if !ok || rate < 0 {
			slog.Warn("ignoring tariff with invalid rate", "code", code, "rate", raw)
			continue
		}
		tariffs[strings.ToUpper(code)] = rate
	}

	return Snapshot{
		Tariffs:        tariffs,
		ExcludedEvents: viper.GetStringSlice(KeyExcludedEvents),
	}
}

// Codes returns the tariff codes in ascending order.
func (s Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.Tariffs))
	for code := range s.Tariffs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rate returns the tariff for a code, or 0 when the code is unknown.
func (s Snapshot) Rate(code string) float64 {
	return s.Tariffs[code]
}

// HasCode reports whether code is a tariff key.
func (s Snapshot) HasCode(code string) bool {
	_, ok := s.Tariffs[code]
	return ok
}

// OutputPrefix returns the filename prefix for exported workbooks.
func OutputPrefix() string {
	return viper.GetString(KeyOutputPrefix)
}

// SaveTariffs replaces the tariff table and persists the configuration.
func SaveTariffs(tariffs map[string]float64) error {
	viper.Set(KeyTariffs, tariffs)
	return persist()
}

// SaveExcludedEvents replaces the exclusion list and persists the configuration.
func SaveExcludedEvents(events []string) error {
	viper.Set(KeyExcludedEvents, events)
	return persist()
}

func persist() error {
	if viper.ConfigFileUsed() != "" {
		return viper.WriteConfig()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(home, ".config", "analisi", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return viper.WriteConfigAs(path)
}

func toRate(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		rate, err := strconv.ParseFloat(v, 64)
		return rate, err == nil
	default:
		return 0, false
	}
}
