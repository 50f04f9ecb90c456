package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxScreenshotBytes = 5_000_000

// Manager stores screenshot proof on the local filesystem, keyed by a
// generated filename.
type Manager struct {
	dir string
}

func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// Save writes the screenshot and returns the generated filename. Only
// jpeg/jpg/png under 5MB are accepted.
func (m *Manager) Save(originalName, userID string, data []byte, now time.Time) (string, error) {
	ext := fileExtension(originalName)
	if ext != "jpeg" && ext != "jpg" && ext != "png" {
		return "", fmt.Errorf("expected file extension jpeg, jpg or png but got %q", ext)
	}
	if len(data) >= maxScreenshotBytes {
		return "", fmt.Errorf("file too large: max is %d bytes, got %d", maxScreenshotBytes, len(data))
	}

	name := fmt.Sprintf("%d-%d-%d_%s.%s", now.Year(), now.Month(), now.Day(), userID, ext)
	if err := os.WriteFile(filepath.Join(m.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot %s: %w", name, err)
	}
	return name, nil
}

func (m *Manager) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read screenshot %s: %w", name, err)
	}
	return data, nil
}

func (m *Manager) Delete(name string) error {
	if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
		return fmt.Errorf("delete screenshot %s: %w", name, err)
	}
	return nil
}

func fileExtension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
