package helpers

import (
	"fmt"
	"image"
	"os"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

const (
	// JPEG quality settings
	HighQuality   = 95
	MediumQuality = 75
	LowQuality    = 50

	// Snapshots larger than this are re-encoded at a lower quality
	MaxSnapshotSize = 1024 * 1024
)

// ScaleToFit returns dimensions that fit inside maxWidth x maxHeight while
// keeping the aspect ratio. Images are never upscaled.
func ScaleToFit(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return width, height
	}

	scaleX := float64(maxWidth) / float64(width)
	scaleY := float64(maxHeight) / float64(height)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	if scale >= 1.0 {
		return width, height
	}

	w := int(float64(width) * scale)
	h := int(float64(height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// IsJPEGData checks for the JPEG SOI marker
func IsJPEGData(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// CompressSnapshot loads the image at path, shrinks it to fit the bounds and
// re-encodes it as JPEG. Quality steps down until the result is under
// MaxSnapshotSize or LowQuality is reached.
func CompressSnapshot(path string, maxWidth, maxHeight, quality int) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot not readable: %w", err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("failed to decode snapshot %s", path)
	}
	defer img.Close()

	w, h := ScaleToFit(img.Cols(), img.Rows(), maxWidth, maxHeight)
	target := img
	if w != img.Cols() || h != img.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(img, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		target = resized
	}

	if quality <= 0 || quality > 100 {
		quality = HighQuality
	}
	for _, q := range qualitySteps(quality) {
		data, err := encodeJPEG(target, q)
		if err != nil {
			return nil, err
		}
		if len(data) <= MaxSnapshotSize || q == LowQuality {
			log.Debug().
				Str("path", path).
				Int("width", w).
				Int("height", h).
				Int("quality", q).
				Int("bytes", len(data)).
				Msg("Snapshot compressed")
			return data, nil
		}
	}
	return nil, fmt.Errorf("unable to compress snapshot %s", path)
}

// qualitySteps starts at quality and falls back through the lower presets
func qualitySteps(quality int) []int {
	steps := []int{quality}
	for _, q := range []int{MediumQuality, LowQuality} {
		if q < quality {
			steps = append(steps, q)
		}
	}
	if quality < LowQuality {
		return []int{quality}
	}
	if steps[len(steps)-1] != LowQuality {
		steps = append(steps, LowQuality)
	}
	return steps
}

func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	defer buf.Close()

	// the native buffer is freed by Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
