package queue

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Codec converts values to and from message bodies.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(body string) (T, error)
}

// JSONCodec encodes values as UTF-8 JSON wrapped in standard base64. Decoding
// matches field names case-insensitively and also accepts bodies that were
// never base64 encoded.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (JSONCodec[T]) Decode(body string) (T, error) {
	var v T
	raw := []byte(strings.TrimSpace(body))
	if decoded, err := base64.StdEncoding.DecodeString(string(raw)); err == nil && json.Valid(decoded) {
		raw = decoded
	}
	if len(raw) == 0 || !json.Valid(raw) {
		return v, fmt.Errorf("%w: body is neither base64 JSON nor JSON", ErrDecode)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return v, nil
}
