package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	apperrors "claude-nodes/pkg/errors"
)

// Tensor is a float pixel buffer as produced by image-generation pipelines:
// [H,W,C] or [B,H,W,C], channels 1 (grayscale) or 3 (RGB), values in [0,1].
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// Validate checks shape and data length consistency.
func (t Tensor) Validate() error {
	if len(t.Shape) != 3 && len(t.Shape) != 4 {
		return apperrors.NewImageConversionFailed(
			fmt.Sprintf("expected rank 3 or 4 tensor, got rank %d", len(t.Shape)), nil)
	}
	expected := 1
	for _, dim := range t.Shape {
		if dim <= 0 {
			return apperrors.NewImageConversionFailed(
				fmt.Sprintf("non-positive dimension in shape %v", t.Shape), nil)
		}
		expected *= dim
	}
	if len(t.Data) != expected {
		return apperrors.NewImageConversionFailed(
			fmt.Sprintf("shape %v implies %d values, got %d", t.Shape, expected, len(t.Data)), nil)
	}
	channels := t.Shape[len(t.Shape)-1]
	if channels != 1 && channels != 3 {
		return apperrors.NewImageConversionFailed(
			fmt.Sprintf("unsupported channel count %d", channels), nil)
	}
	return nil
}

// Batch splits a [B,H,W,C] tensor into per-image [H,W,C] tensors. A rank 3
// tensor comes back as a single-element slice.
func (t Tensor) Batch() ([]Tensor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Shape) == 3 {
		return []Tensor{t}, nil
	}
	batch := t.Shape[0]
	frame := t.Shape[1] * t.Shape[2] * t.Shape[3]
	images := make([]Tensor, 0, batch)
	for i := 0; i < batch; i++ {
		images = append(images, Tensor{
			Shape: []int{t.Shape[1], t.Shape[2], t.Shape[3]},
			Data:  t.Data[i*frame : (i+1)*frame],
		})
	}
	return images, nil
}

// EncodeJPEG converts a single image tensor to JPEG bytes. Values are scaled
// by 255 and clamped, so tensors already holding byte-range values saturate
// to white rather than wrapping.
func EncodeJPEG(t Tensor) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Shape) == 4 {
		// Batched input: encode the first image
		images, err := t.Batch()
		if err != nil {
			return nil, err
		}
		t = images[0]
	}

	height, width, channels := t.Shape[0], t.Shape[1], t.Shape[2]
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := (y*width + x) * channels
			var r, g, b uint8
			if channels == 1 {
				v := clampByte(t.Data[base])
				r, g, b = v, v, v
			} else {
				r = clampByte(t.Data[base])
				g = clampByte(t.Data[base+1])
				b = clampByte(t.Data[base+2])
			}
			offset := img.PixOffset(x, y)
			img.Pix[offset] = r
			img.Pix[offset+1] = g
			img.Pix[offset+2] = b
			img.Pix[offset+3] = 0xff
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, apperrors.NewImageConversionFailed("jpeg encoding failed", err)
	}
	return buf.Bytes(), nil
}

// Base64JPEG converts a tensor to a base64-encoded JPEG string.
func Base64JPEG(t Tensor) (string, error) {
	data, err := EncodeJPEG(t)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func clampByte(v float32) uint8 {
	scaled := v * 255
	if scaled <= 0 {
		return 0
	}
	if scaled >= 255 {
		return 255
	}
	return uint8(scaled)
}
