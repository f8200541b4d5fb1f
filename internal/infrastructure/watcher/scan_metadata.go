package watcher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ScanMetadata persists the time of the last inbox scan so a restart only picks up files
// that arrived while the daemon was down.
type ScanMetadata struct {
	mu           sync.RWMutex
	lastScanTime time.Time
	filePath     string
}

type scanMetadataData struct {
	LastScanTime time.Time `json:"last_scan_time"`
}

// NewScanMetadata loads metadata from filePath, if present.
func NewScanMetadata(filePath string) *ScanMetadata {
	sm := &ScanMetadata{filePath: filePath}
	sm.load()
	return sm
}

// GetLastScanTime returns the last recorded scan time; zero when never scanned.
func (sm *ScanMetadata) GetLastScanTime() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastScanTime
}

// SetLastScanTime records t and persists it.
func (sm *ScanMetadata) SetLastScanTime(t time.Time) {
	sm.mu.Lock()
	sm.lastScanTime = t
	sm.mu.Unlock()

	sm.save()
}

func (sm *ScanMetadata) load() {
	data, err := os.ReadFile(sm.filePath)
	if err != nil {
		return
	}

	var metadata scanMetadataData
	if err := json.Unmarshal(data, &metadata); err != nil {
		return
	}

	sm.mu.Lock()
	sm.lastScanTime = metadata.LastScanTime
	sm.mu.Unlock()
}

func (sm *ScanMetadata) save() {
	sm.mu.RLock()
	metadata := scanMetadataData{LastScanTime: sm.lastScanTime}
	sm.mu.RUnlock()

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(sm.filePath), 0755); err != nil {
		return
	}
	_ = os.WriteFile(sm.filePath, data, 0644)
}
