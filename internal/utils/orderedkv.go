package utils

import (
	"bytes"
	"encoding/json"
	"errors"
)

// OrderedMap is a string-keyed map that marshals to a JSON object in
// insertion order.
type OrderedMap[T any] struct {
	keys   []string
	values map[string]T
}

func NewOrderedMap[T any]() *OrderedMap[T] {
	return &OrderedMap[T]{values: make(map[string]T)}
}

// Set stores value under key; an existing key keeps its position.
func (om *OrderedMap[T]) Set(key string, value T) {
	if om.values == nil {
		om.values = make(map[string]T)
	}
	if _, ok := om.values[key]; !ok {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
}

func (om *OrderedMap[T]) Get(key string) (T, bool) {
	v, ok := om.values[key]
	return v, ok
}

func (om *OrderedMap[T]) Keys() []string {
	return append([]string(nil), om.keys...)
}

func (om *OrderedMap[T]) Len() int {
	return len(om.keys)
}

func (om *OrderedMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range om.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(om.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the document.
func (om *OrderedMap[T]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("ordered map: expected a JSON object")
	}
	om.keys = nil
	om.values = make(map[string]T)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var value T
		if err := dec.Decode(&value); err != nil {
			return err
		}
		om.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
