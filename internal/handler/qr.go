package handler

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// addressQR renders the address as a base64 PNG QR code. QR generation is
// cosmetic; on failure the response simply carries no QR.
func addressQR(address string) string {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return ""
	}
	png, err := qr.PNG(256)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(png)
}
