package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	// EnvDataDir overrides the data directory.
	EnvDataDir = "EDACHAT_DATA_DIR"
	// DefaultDataDirName is created under the user's home directory.
	DefaultDataDirName = ".edachat"
)

var (
	dataDirOnce sync.Once
	dataDirPath string
)

// GetDataDir returns the edachat data root: EDACHAT_DATA_DIR, else ~/.edachat.
// The value is resolved once per process.
func GetDataDir() string {
	dataDirOnce.Do(func() {
		if dir := os.Getenv(EnvDataDir); dir != "" {
			dataDirPath = dir
			return
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			dataDirPath = DefaultDataDirName
			return
		}
		dataDirPath = filepath.Join(homeDir, DefaultDataDirName)
	})
	return dataDirPath
}

// ResetDataDir clears the cached data directory. Tests only.
func ResetDataDir() {
	dataDirOnce = sync.Once{}
	dataDirPath = ""
}
