package resolve

import (
	"encoding/json"
	"strings"

	"github.com/Sternrassler/legisloom/pkg/bill"
)

// Codec encodes values for the cache and decides emptiness.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
	Empty(v T) bool
}

// RecordCodec stores bill records as canonical JSON.
type RecordCodec struct{}

func (RecordCodec) Encode(r *bill.Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode re-normalizes so rows written by older versions gain defaults.
func (RecordCodec) Decode(data []byte) (*bill.Record, error) {
	return bill.Normalize(data, bill.FormatCanonical)
}

func (RecordCodec) Empty(r *bill.Record) bool {
	return bill.Empty(r)
}

// TextCodec stores plain UTF-8 text.
type TextCodec struct{}

func (TextCodec) Encode(s string) ([]byte, error) {
	return []byte(s), nil
}

func (TextCodec) Decode(data []byte) (string, error) {
	return string(data), nil
}

func (TextCodec) Empty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ListCodec stores string lists as a JSON array. A list with no
// non-blank item is empty.
type ListCodec struct{}

func (ListCodec) Encode(items []string) ([]byte, error) {
	return json.Marshal(items)
}

func (ListCodec) Decode(data []byte) ([]string, error) {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (ListCodec) Empty(items []string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			return false
		}
	}
	return true
}
