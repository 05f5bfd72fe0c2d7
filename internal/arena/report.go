package arena

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteReport saves rep as indented JSON under dir and returns the path.
func WriteReport(dir string, rep *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(rep.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	path := filepath.Join(dir, fmt.Sprintf("wordle-arena-results-%s.json", ts))
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
