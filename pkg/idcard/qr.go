package idcard

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the edge length in pixels of rendered codes.
	DefaultSize = 256
	// MinSize is the smallest edge length that still scans reliably from paper.
	MinSize = 128
	// MaxSize bounds the rendered PNG.
	MaxSize = 1024
)

// NormalizeSize clamps a requested edge length, using DefaultSize for zero or negative values.
func NormalizeSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	default:
		return size
	}
}

// QRCodePNG encodes the scan payload of a card as a PNG image.
// The payload is the person identifier verbatim so that a scanner reads back exactly what was issued.
func QRCodePNG(payload string, size int) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("qr payload must not be empty")
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, NormalizeSize(size))
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
