package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "dialog-search"

// DataPaths holds the locations of the client's local files
type DataPaths struct {
	Dir          string // base directory
	DatabasePath string // default SQLite store
	ConfigPath   string // config.yaml
}

// DetectDataPaths resolves the data directory for the current OS. A non-empty
// override is used as the base directory instead.
func DetectDataPaths(override string) (DataPaths, error) {
	if override != "" {
		return dataPathsIn(override), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var base string
	switch runtime.GOOS {
	case "darwin":
		base = filepath.Join(home, "Library/Application Support", appDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			base = filepath.Join(appData, appDirName)
		} else {
			base = filepath.Join(home, "AppData", "Roaming", appDirName)
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, appDirName)
		} else {
			base = filepath.Join(home, ".config", appDirName)
		}
	}

	return dataPathsIn(base), nil
}

func dataPathsIn(dir string) DataPaths {
	return DataPaths{
		Dir:          dir,
		DatabasePath: filepath.Join(dir, "state.db"),
		ConfigPath:   filepath.Join(dir, "config.yaml"),
	}
}

// DatabaseExists checks if the default SQLite store has been created
func (p DataPaths) DatabaseExists() bool {
	_, err := os.Stat(p.DatabasePath)
	return err == nil
}
