package provider

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/khanglvm/tracklens/internal/analysis"
)

// mimeType returns the image MIME type, sniffing the bytes when unset.
// Unknown types default to image/png.
func mimeType(img analysis.Image) string {
	mt := strings.ToLower(strings.TrimSpace(img.MIME))
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	if len(img.Data) > 0 {
		if sniffed := http.DetectContentType(img.Data); strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	return "image/png"
}

// imageFormat is the bare subtype, e.g. "png".
func imageFormat(img analysis.Image) string {
	return strings.TrimPrefix(mimeType(img), "image/")
}

func base64Data(img analysis.Image) string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

func dataURL(img analysis.Image) string {
	return "data:" + mimeType(img) + ";base64," + base64Data(img)
}
