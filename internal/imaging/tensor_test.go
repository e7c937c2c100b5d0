package imaging

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "claude-nodes/pkg/errors"
)

func solidTensor(h, w, c int, v float32) Tensor {
	data := make([]float32, h*w*c)
	for i := range data {
		data[i] = v
	}
	return Tensor{Shape: []int{h, w, c}, Data: data}
}

func TestTensorValidate(t *testing.T) {
	tests := []struct {
		name    string
		tensor  Tensor
		wantErr bool
	}{
		{"rgb", solidTensor(2, 2, 3, 0.5), false},
		{"grayscale", solidTensor(4, 4, 1, 1.0), false},
		{"batched", Tensor{Shape: []int{2, 2, 2, 3}, Data: make([]float32, 24)}, false},
		{"empty", Tensor{}, true},
		{"rank 2", Tensor{Shape: []int{2, 2}, Data: make([]float32, 4)}, true},
		{"length mismatch", Tensor{Shape: []int{2, 2, 3}, Data: make([]float32, 5)}, true},
		{"four channels", Tensor{Shape: []int{1, 1, 4}, Data: make([]float32, 4)}, true},
		{"zero dimension", Tensor{Shape: []int{0, 2, 3}, Data: nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tensor.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeImage))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTensorBatch(t *testing.T) {
	batched := Tensor{Shape: []int{3, 2, 2, 3}, Data: make([]float32, 36)}
	images, err := batched.Batch()
	require.NoError(t, err)
	require.Len(t, images, 3)
	for _, img := range images {
		assert.Equal(t, []int{2, 2, 3}, img.Shape)
		assert.Len(t, img.Data, 12)
	}

	single := solidTensor(2, 2, 3, 0.5)
	images, err = single.Batch()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, single.Shape, images[0].Shape)
}

func TestEncodeJPEGProducesDecodableImage(t *testing.T) {
	data, err := EncodeJPEG(solidTensor(8, 6, 3, 0.5))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 6, bounds.Dx())
	assert.Equal(t, 8, bounds.Dy())
}

func TestEncodeJPEGGrayscale(t *testing.T) {
	data, err := EncodeJPEG(solidTensor(4, 4, 1, 1.0))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := img.At(2, 2).RGBA()
	// Solid white survives JPEG compression exactly
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestEncodeJPEGBatchedTakesFirstImage(t *testing.T) {
	batched := Tensor{Shape: []int{2, 4, 4, 3}, Data: make([]float32, 96)}
	data, err := EncodeJPEG(batched)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestClampByte(t *testing.T) {
	assert.Equal(t, uint8(0), clampByte(-1))
	assert.Equal(t, uint8(0), clampByte(0))
	assert.Equal(t, uint8(127), clampByte(0.5))
	assert.Equal(t, uint8(255), clampByte(1))
	// Values already in byte range saturate instead of wrapping
	assert.Equal(t, uint8(255), clampByte(200))
}

func TestBase64JPEG(t *testing.T) {
	encoded, err := Base64JPEG(solidTensor(2, 2, 3, 0.5))
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	// JPEG SOI marker 0xFFD8 encodes to "/9j/"
	assert.Equal(t, "/9j/", encoded[:4])
}
