package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// The document format is the JSON export schema, version 1 only. It carries
// no version field, so Decode accepts exactly the fields written by Encode.

// Encode serialises the snapshot to the JSON schema.
func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// EncodeIndent is Encode with two-space indentation for files meant to be
// read by people.
func EncodeIndent(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalJSON defaults a missing scale or opacity to 1 rather than to an
// invisible element.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	var raw struct {
		plain
		Scale   *float64 `json:"scale"`
		Opacity *float64 `json:"opacity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Element(raw.plain)
	e.Scale, e.Opacity = 1, 1
	if raw.Scale != nil {
		e.Scale = *raw.Scale
	}
	if raw.Opacity != nil {
		e.Opacity = *raw.Opacity
	}
	return nil
}

// Decode parses and validates a document.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode document: %w", err)
	}
	if s.Width == 0 && s.Height == 0 {
		s.Width, s.Height = DefaultWidth, DefaultHeight
	}
	for i := range s.Pages {
		p := &s.Pages[i]
		if p.Background == "" {
			p.Background = DefaultBackground
		}
		p.Animation.Normalize()
		for j := range p.Elements {
			p.Elements[j].Animation.Normalize()
		}
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Read decodes a document from r.
func Read(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data)
}

// Load reads a document file.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data)
}

// Save writes the snapshot as an indented document.
func Save(s Snapshot, path string) error {
	data, err := EncodeIndent(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
