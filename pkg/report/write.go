package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// atomicWriteJSON marshals v and writes it through a temp file rename,
// so a consumer polling the file never sees a half-written document.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ReadIndex loads a report index from a report directory.
func ReadIndex(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse report.json: %w", err)
	}
	return &index, nil
}

// ReadRunDetail loads one run detail via its index entry.
func ReadRunDetail(dir string, entry RunEntry) (*RunDetail, error) {
	data, err := os.ReadFile(filepath.Join(dir, entry.DataFile))
	if err != nil {
		return nil, err
	}
	var detail RunDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("parse %s: %w", entry.DataFile, err)
	}
	return &detail, nil
}
