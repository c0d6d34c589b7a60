package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all application paths, always relative to the executable
// directory so runs behave the same regardless of working directory.
//
// Directory structure:
//
//	canonize
//	├── config.yaml
//	├── rules/labels.yaml      (label rule file, required)
//	├── data/
//	│   ├── input/             (raw extracts: .csv, .xlsx)
//	│   └── output/            (canonical + audit tables)
//	└── logs/
type Paths struct {
	ExecutableDir string
	DataDir       string
	InputDir      string
	OutputDir     string
	LogsDir       string
	RulesFile     string

	// Well-known output files.
	CanonicalCSV string
	AuditCSV     string
}

// GetPaths resolves the application paths from the executable location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return PathsFrom(filepath.Dir(exe)), nil
}

// PathsFrom builds the path set rooted at the given directory.
func PathsFrom(root string) *Paths {
	dataDir := filepath.Join(root, "data")
	outputDir := filepath.Join(dataDir, "output")
	return &Paths{
		ExecutableDir: root,
		DataDir:       dataDir,
		InputDir:      filepath.Join(dataDir, "input"),
		OutputDir:     outputDir,
		LogsDir:       filepath.Join(root, "logs"),
		RulesFile:     filepath.Join(root, "rules", "labels.yaml"),
		CanonicalCSV:  filepath.Join(outputDir, "canonical.csv"),
		AuditCSV:      filepath.Join(outputDir, "label_decisions.csv"),
	}
}

// EnsureDirectories creates every directory the run writes into.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.InputDir, p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the path of a log file inside the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
