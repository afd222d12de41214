package gemini

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"
)

const (
	imageFetchTimeout = 30 * time.Second
	maxImageBytes     = 20 << 20
)

// ImageFetcher downloads report photos and normalizes them to JPEG before
// they are sent to the model. Wide images are downscaled to keep request
// payloads small.
type ImageFetcher struct {
	httpClient  *http.Client
	maxWidth    int
	jpegQuality int
}

// NewImageFetcher builds a fetcher with the given normalization bounds.
func NewImageFetcher(maxWidth, jpegQuality int) *ImageFetcher {
	return &ImageFetcher{
		httpClient:  &http.Client{Timeout: imageFetchTimeout},
		maxWidth:    maxWidth,
		jpegQuality: jpegQuality,
	}
}

// Fetch downloads and normalizes the image at url.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}

	return f.normalize(data)
}

func (f *ImageFetcher) normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if f.maxWidth > 0 && bounds.Dx() > f.maxWidth {
		height := bounds.Dy() * f.maxWidth / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, f.maxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: f.jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
