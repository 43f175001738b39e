package persistence

import (
	"bytes"
	"encoding/gob"
)

func init() {
	// Concrete types that commonly appear in grid columns.
	gob.Register([]float64{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// EncodeColumns serializes grid columns with encoding/gob. Values must be
// gob-encodable; instrument handles and other live state never end up in
// columns, so in practice this means numbers, strings, slices and maps.
func EncodeColumns(cols map[string][]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cols); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeColumns deserializes columns written by EncodeColumns.
func DecodeColumns(data []byte) (map[string][]any, error) {
	var cols map[string][]any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cols); err != nil {
		return nil, err
	}
	return cols, nil
}
