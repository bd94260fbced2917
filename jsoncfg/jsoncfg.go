// Package jsoncfg loads and saves JSON configuration files.
package jsoncfg

import (
	"bytes"
	"encoding/json"
	"os"
)

// Open loads the JSON configuration file at path into v.
// Unknown fields are rejected, so typos in field names are caught early.
func Open(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d := json.NewDecoder(f)
	d.DisallowUnknownFields()
	return d.Decode(v)
}

// Save encodes v as indented JSON and writes it to the file at path.
func Save(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
