// createImage.go
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
)

const (
	rasterChrome = "chrome"
	rasterNative = "native"

	chromeTimeout = 30 * time.Second
	jpegQuality   = 90
)

var errEmptyScreenshot = errors.New("screenshot buffer is empty, screenshot failed")

// generateImage rasterizes an SVG document and writes it as PNG or JPEG.
func generateImage(ctx context.Context, log *zap.Logger, svg, format, engine string, w io.Writer) error {
	var (
		img image.Image
		err error
	)
	switch engine {
	case rasterChrome:
		img, err = rasterizeChrome(ctx, log, svg)
	case rasterNative:
		log.Warn("native rasterizer does not draw text; labels will be missing")
		img, err = rasterizeNative(svg)
	default:
		return fmt.Errorf("unknown rasterizer '%s' (want %s or %s)", engine, rasterChrome, rasterNative)
	}
	if err != nil {
		return err
	}
	return encodeImage(w, img, format)
}

// rasterizeChrome loads the SVG as a data URI in headless Chrome and
// screenshots the svg element.
func rasterizeChrome(ctx context.Context, log *zap.Logger, svg string) (image.Image, error) {
	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
	log.Debug("created data URI for SVG", zap.Int("bytes", len(dataURI)))

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, chromeTimeout)
	defer cancelTimeout()

	var buf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &buf, chromedp.ByQuery),
	}
	log.Debug("running chromedp tasks (navigate and screenshot)")
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(buf) == 0 {
		return nil, errEmptyScreenshot
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG screenshot: %w", err)
	}
	return img, nil
}

// rasterizeNative draws the SVG shapes with oksvg and rasterx on a white
// canvas sized from the viewBox.
func rasterizeNative(svg string) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parsing SVG: %w", err)
	}
	w, h := int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("SVG has an empty viewBox (%dx%d)", w, h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format '%s'", format)
	}
	return nil
}
