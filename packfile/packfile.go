// Package packfile reads and writes localization pack files.
package packfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaguanLabs/packlate"
)

// DefaultIndent is the indentation width used when none is given.
const DefaultIndent = 2

// Load reads the pack at path.
func Load(path string) (*packlate.Pack, error) {
	f, err := os.Open(path) // #nosec G304 - path is user-provided
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f, path)
}

// requiredFields are the entry fields a pack file must spell out. Only enGB
// may be null; the target languages may be null or absent.
var requiredFields = []struct {
	name     string
	nullable bool
}{
	{"Key", false},
	{"SimpleName", false},
	{"ProcessTemplates", false},
	{"enGB", true},
}

// Decode reads a pack from r. name identifies the source in errors.
func Decode(r io.Reader, name string) (*packlate.Pack, error) {
	var raw struct {
		LocalizedStrings *[]json.RawMessage `json:"LocalizedStrings"`
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, &packlate.DecodeError{Path: name, Cause: err}
	}
	if dec.More() {
		return nil, &packlate.DecodeError{Path: name, Cause: errors.New("unexpected data after pack object")}
	}
	if raw.LocalizedStrings == nil {
		return nil, &packlate.DecodeError{Path: name, Cause: errors.New(`missing "LocalizedStrings"`)}
	}

	entries := make([]packlate.LocalizedString, len(*raw.LocalizedStrings))
	for i, data := range *raw.LocalizedStrings {
		if err := decodeEntry(data, &entries[i]); err != nil {
			return nil, &packlate.DecodeError{Path: name, Cause: fmt.Errorf("entry %d: %w", i, err)}
		}
	}

	return &packlate.Pack{LocalizedStrings: entries}, nil
}

func decodeEntry(data json.RawMessage, entry *packlate.LocalizedString) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("is null")
	}

	var missing []string
	for _, f := range requiredFields {
		v, ok := fields[f.name]
		if !ok || (!f.nullable && bytes.Equal(bytes.TrimSpace(v), []byte("null"))) {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	return json.Unmarshal(data, entry)
}

// Encode writes pack to w with indent spaces per level. Fields keep their
// declared order, text is written unescaped, and no trailing newline is
// added. An indent of zero writes compact JSON.
func Encode(w io.Writer, pack *packlate.Pack, indent int) error {
	if pack == nil {
		pack = &packlate.Pack{}
	}
	if pack.LocalizedStrings == nil {
		pack = &packlate.Pack{LocalizedStrings: []packlate.LocalizedString{}}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(pack); err != nil {
		return fmt.Errorf("encoding pack: %w", err)
	}

	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// Save writes pack to path. The file is replaced atomically so an
// interrupted save never leaves a truncated pack behind.
func Save(path string, pack *packlate.Pack, indent int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	err = tmp.Chmod(mode)
	if err == nil {
		err = Encode(tmp, pack, indent)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// OutputPath returns where a translated pack is written: path itself when
// inPlace, otherwise a sibling with "Translated" inserted before the
// extension.
func OutputPath(path string, inPlace bool) string {
	if inPlace {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "Translated" + ext
}
