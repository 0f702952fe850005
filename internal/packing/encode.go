package packing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeRects renders a packing the way it is stored in a results row:
// standard base64 over the JSON array of [x1,y1,x2,y2] entries.
func EncodeRects(rects []Rect) (string, error) {
	return encode(rects)
}

// EncodeSizes renders the placement order of a packing as base64 over the
// JSON array of [w,h] entries.
func EncodeSizes(rects []Rect) (string, error) {
	sizes := make([]Size, len(rects))
	for i, r := range rects {
		sizes[i] = r.Size()
	}
	return encode(sizes)
}

// DecodeRects is the inverse of EncodeRects.
func DecodeRects(s string) ([]Rect, error) {
	var rects []Rect
	if err := decode(s, &rects); err != nil {
		return nil, fmt.Errorf("decode packing: %w", err)
	}
	return rects, nil
}

// DecodeSizes is the inverse of EncodeSizes.
func DecodeSizes(s string) ([]Size, error) {
	var sizes []Size
	if err := decode(s, &sizes); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return sizes, nil
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func decode(s string, v any) error {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
