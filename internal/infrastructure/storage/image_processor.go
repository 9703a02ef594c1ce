package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// ImageProcessor validates uploads and normalises them to a bounded JPEG.
type ImageProcessor struct {
	MaxSize int64 // bytes
	MaxEdge int   // pixels, longest side after resize
	Quality int
}

func NewImageProcessor(maxSizeMB int) *ImageProcessor {
	return &ImageProcessor{
		MaxSize: int64(maxSizeMB) * 1024 * 1024,
		MaxEdge: 1200,
		Quality: 85,
	}
}

// ValidateImage accepts JPEG and PNG under MaxSize.
func (p *ImageProcessor) ValidateImage(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image is empty")
	}
	if int64(len(data)) > p.MaxSize {
		return fmt.Errorf("image exceeds %dMB", p.MaxSize/(1024*1024))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not an image: %w", err)
	}
	switch format {
	case "jpeg", "png":
		return nil
	default:
		return fmt.Errorf("image format %s not allowed (only jpeg/png)", format)
	}
}

// Normalize shrinks the image to fit MaxEdge (never upscales) and re-encodes as JPEG.
func (p *ImageProcessor) Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > p.MaxEdge || b.Dy() > p.MaxEdge {
		img = imaging.Fit(img, p.MaxEdge, p.MaxEdge, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("cannot encode image: %w", err)
	}
	return buf.Bytes(), nil
}
