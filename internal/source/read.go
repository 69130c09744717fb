package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"raganswer/internal/domain"
)

// Read loads a source as engine content. Text sources are returned verbatim;
// JSON sources are parsed and returned as their structure.
func Read(s DataSource) (domain.Content, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.Content{}, err
	}
	c := domain.Content{Source: s.Path}
	switch s.Format {
	case JSON:
		v, err := ParseJSON(data)
		if err != nil {
			return domain.Content{}, fmt.Errorf("parse %s: %w", s.Path, err)
		}
		c.Data = v
	default:
		c.Text = string(data)
	}
	return c, nil
}

// ParseJSON decodes a single JSON value, keeping numbers as json.Number so
// rendering reproduces their literal form.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	if v == nil {
		return nil, fmt.Errorf("top-level value is null")
	}
	return v, nil
}

// ReadText loads a source and renders it as plain text.
func ReadText(s DataSource) (string, error) {
	c, err := Read(s)
	if err != nil {
		return "", err
	}
	return ContentText(c), nil
}

// ContentText flattens content to plain text.
func ContentText(c domain.Content) string {
	if c.IsStructured() {
		return RenderJSON(c.Data)
	}
	return c.Text
}
