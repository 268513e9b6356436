package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const ManifestName = "manifest.log"

// Manifest is an append-only list of finalized batch files, one path per
// line, fsynced on every append. A torn final line after a crash is skipped
// on the next open if the file it names does not exist.
type Manifest struct {
	mu      sync.Mutex
	file    *os.File
	batches []string
	seen    map[string]struct{}
}

// OpenManifest opens outDir/manifest.log, creating it if needed.
func OpenManifest(outDir string) (*Manifest, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	path := filepath.Join(outDir, ManifestName)

	m := &Manifest{seen: make(map[string]struct{})}
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			p := strings.TrimSpace(scanner.Text())
			if p == "" {
				continue
			}
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if _, dup := m.seen[p]; dup {
				continue
			}
			m.seen[p] = struct{}{}
			m.batches = append(m.batches, p)
		}
		_ = f.Close()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	m.file = file
	return m, nil
}

func (m *Manifest) Add(batchPath string) error {
	if batchPath == "" {
		return fmt.Errorf("batch path is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[batchPath]; ok {
		return nil
	}
	if m.file == nil {
		return fmt.Errorf("manifest is closed")
	}
	if _, err := m.file.WriteString(batchPath + "\n"); err != nil {
		return fmt.Errorf("append manifest: %w", err)
	}
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("sync manifest: %w", err)
	}
	m.seen[batchPath] = struct{}{}
	m.batches = append(m.batches, batchPath)
	return nil
}

// Batches returns the recorded paths in append order.
func (m *Manifest) Batches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.batches...)
}

func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}
