// Package paths resolves the configuration, data and backup directories used
// by the macrostore CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".macrostore"
	DefaultDataDirName   = ".macrostore-db"
	BackupDirName        = "backups"
	appName              = "macrostore"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "MACROSTORE_CONFIG_DIR"
	EnvDataDir   = "MACROSTORE_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// PlatformConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/macrostore (fallback ~/.config/macrostore)
// Others:  os.UserConfigDir()/macrostore
func PlatformConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// MACROSTORE_CONFIG_DIR, then ./.macrostore when it exists, then the
// platform directory.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, DefaultConfigDirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}
	return PlatformConfigDir()
}

// ResolveDataDir returns the data directory: flag, then the data_dir config
// value, then MACROSTORE_DATA_DIR, then ./.macrostore-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// BackupDir returns the directory for local snapshot files.
func BackupDir(dataDir string) string {
	return filepath.Join(dataDir, BackupDirName)
}
