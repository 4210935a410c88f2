package imagecheck

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		size    int64
		wantErr error
	}{
		{name: "min bound", w: 400, h: 400},
		{name: "max bound", w: 800, h: 800},
		{name: "rectangular inside", w: 640, h: 480},
		{name: "too narrow", w: 399, h: 500, wantErr: ErrResolutionTooLow},
		{name: "too short", w: 500, h: 300, wantErr: ErrResolutionTooLow},
		{name: "too wide", w: 801, h: 500, wantErr: ErrResolutionTooHigh},
		{name: "too tall", w: 500, h: 1024, wantErr: ErrResolutionTooHigh},
		{name: "size over limit wins", w: 100, h: 100, size: MaxSize + 1, wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pngBytes(t, tt.w, tt.h)
			size := tt.size
			if size == 0 {
				size = int64(len(data))
			}

			d, err := Validate(bytes.NewReader(data), size)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.w, d.Width)
			assert.Equal(t, tt.h, d.Height)
			assert.Equal(t, "image/png", d.ContentType())
		})
	}
}

func TestValidate_Unsupported(t *testing.T) {
	_, err := Validate(strings.NewReader("definitely not an image"), 23)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestValidate_ExactlyMaxSize(t *testing.T) {
	data := pngBytes(t, 500, 500)
	_, err := Validate(bytes.NewReader(data), MaxSize)
	assert.NoError(t, err)
}
