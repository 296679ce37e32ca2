package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/veldt/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir      string
	daysFile *os.File

	// Track if headers have been written
	daysHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the
// output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	daysPath := filepath.Join(dir, "days.csv")
	f, err := os.Create(daysPath)
	if err != nil {
		return nil, fmt.Errorf("creating days.csv: %w", err)
	}
	om.daysFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteDay appends a day snapshot to days.csv.
func (om *OutputManager) WriteDay(snap DaySnapshot) error {
	if om == nil {
		return nil
	}

	records := []DaySnapshot{snap}

	if !om.daysHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.daysFile); err != nil {
			return fmt.Errorf("writing day snapshot: %w", err)
		}
		om.daysHeaderWritten = true
	} else {
		// Subsequent writes skip headers
		if err := gocsv.MarshalWithoutHeaders(records, om.daysFile); err != nil {
			return fmt.Errorf("writing day snapshot: %w", err)
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil || om.daysFile == nil {
		return nil
	}
	return om.daysFile.Close()
}
