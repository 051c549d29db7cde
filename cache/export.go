package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FormatVersion is the current translation memory file version.
const FormatVersion = "1"

// ExportFormat is the on-disk shape of a translation memory file.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry is a single translation memory entry.
type ExportEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Exporter writes a translation memory to JSON.
type Exporter struct {
	cache ExportableCache
	now   func() time.Time
}

// NewExporter creates a new exporter.
func NewExporter(cache ExportableCache) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes every live entry to w. Entries are sorted by key so the file
// diffs cleanly between runs.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) (int, error) {
	keys, err := e.cache.Keys()
	if err != nil {
		return 0, fmt.Errorf("listing cache keys: %w", err)
	}

	export := ExportFormat{
		Version:    FormatVersion,
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Entries:    make([]ExportEntry, 0, len(keys)),
		Metadata:   metadata,
	}
	for _, key := range keys {
		// Entries may expire between Keys and Get.
		if value, ok := e.cache.Get(key); ok {
			export.Entries = append(export.Entries, ExportEntry{Key: key, Value: value})
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(export); err != nil {
		return 0, fmt.Errorf("encoding translation memory: %w", err)
	}

	return len(export.Entries), nil
}

// ExportToFile writes the translation memory to path atomically: a partial
// write never replaces an existing file.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tm-*.json")
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := e.Export(tmp, metadata)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replacing %s: %w", path, err)
	}
	return n, nil
}

// Importer loads a translation memory file into a cache.
type Importer struct {
	cache TranslationCache
}

// NewImporter creates a new importer.
func NewImporter(cache TranslationCache) *Importer {
	return &Importer{cache: cache}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

// Import reads entries from r and stores them in the cache.
func (i *Importer) Import(r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding translation memory: %w", err)
	}
	if export.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported translation memory version %q", export.Version)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}
	for _, entry := range export.Entries {
		if err := i.cache.Set(entry.Key, entry.Value); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports entries from path. A missing file is reported with
// an error wrapping fs.ErrNotExist.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is user-provided
	if err != nil {
		return nil, fmt.Errorf("opening translation memory: %w", err)
	}
	defer f.Close()

	return i.Import(f)
}
