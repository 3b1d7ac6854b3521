package imagecache

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Image is a decoded avatar together with its encoded bytes.
type Image struct {
	URL     string
	Format  string
	Width   int
	Height  int
	Data    []byte
	Decoded image.Image
}

// Size is the cost charged against the cache byte bound.
func (i *Image) Size() int64 {
	if i == nil {
		return 0
	}
	return int64(len(i.Data))
}

// ContentType returns the MIME type of the encoded bytes.
func (i *Image) ContentType() string {
	switch i.Format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func decode(key string, data []byte) (*Image, error) {
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := decoded.Bounds()
	return &Image{
		URL:     key,
		Format:  format,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Data:    data,
		Decoded: decoded,
	}, nil
}
