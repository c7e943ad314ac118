// Package imaging reads PNG headers and performs the resample step of the
// resize variant. Compression is left to the external quantizer and
// recompressor.
package imaging

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"assetopt/internal/services"
)

// Dimensions reads only the PNG header of path.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrInvalidAsset, "imaging", "read header", path, err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrInvalidAsset, "imaging", "read header", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, services.Wrap(services.ErrInvalidAsset, "imaging", "read header",
			fmt.Sprintf("%s: zero dimensions %dx%d", path, cfg.Width, cfg.Height), nil)
	}
	return cfg.Width, cfg.Height, nil
}

// Resize decodes src, resamples it to width x height with Catmull-Rom, and
// writes a PNG to dst. The alpha channel is preserved.
func Resize(ctx context.Context, src, dst string, width, height int) error {
	if width <= 0 || height <= 0 {
		return services.Wrap(services.ErrInvalidAsset, "imaging", "resize",
			fmt.Sprintf("invalid target %dx%d", width, height), nil)
	}
	img, err := decode(src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	if err := ctx.Err(); err != nil {
		return err
	}
	return encode(dst, out)
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidAsset, "imaging", "decode", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidAsset, "imaging", "decode", path, err)
	}
	return img, nil
}

func encode(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrTransformFailure, "imaging", "encode", path, err)
	}
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(f, img); err != nil {
		_ = f.Close()
		return services.Wrap(services.ErrTransformFailure, "imaging", "encode", path, err)
	}
	if err := f.Close(); err != nil {
		return services.Wrap(services.ErrTransformFailure, "imaging", "encode", path, err)
	}
	return nil
}
