// Package qr renders reservation identifiers as QR code images.
package qr

import (
	"encoding/base64"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Encoder produces PNG QR codes of a fixed pixel size.
type Encoder struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// NewEncoder returns an Encoder with medium error correction.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{Size: size, Level: qrcode.Medium}
}

// DataURL encodes content as a base64 PNG data URL suitable for an
// <img src> attribute.
func (e *Encoder) DataURL(content string) (string, error) {
	if content == "" {
		return "", errors.New("qr: empty content")
	}
	png, err := qrcode.Encode(content, e.Level, e.Size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
