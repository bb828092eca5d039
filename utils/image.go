package utils

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// DecodedImage is the payload of a "data:<mime>;base64,<data>" URL.
type DecodedImage struct {
	Data        []byte
	ContentType string
	Extension   string
}

func DecodeDataURL(dataURL string) (*DecodedImage, error) {
	parts := strings.SplitN(dataURL, ",", 2)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "data:") {
		return nil, fmt.Errorf("invalid base64 image")
	}

	// "data:image/jpeg;base64" -> "image/jpeg"
	mediaType := strings.TrimPrefix(parts[0], "data:")
	contentType := strings.SplitN(mediaType, ";", 2)[0]
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	var ext string
	switch contentType {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	default:
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = "." + strings.SplitN(contentType, "/", 2)[1]
		}
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	return &DecodedImage{Data: data, ContentType: contentType, Extension: ext}, nil
}
