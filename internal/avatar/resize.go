package avatar

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ErrUndecodable means the stored file is not an image the decoders understand.
var ErrUndecodable = errors.New("avatar is not a decodable image")

// Resize rewrites the image at path in place as a size x size square.
// The source is scaled to cover the square and centre-cropped.
func Resize(path string, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid avatar size %d", size)
	}

	src, format, err := decode(path)
	if err != nil {
		return err
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, cover(src.Bounds()), draw.Src, nil)

	tmp := path + ".resizing"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	switch format {
	case "png":
		err = png.Encode(out, dst)
	case "gif":
		err = gif.Encode(out, dst, nil)
	default:
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: 90})
	}

	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("encode avatar: %w", err)
	}

	return os.Rename(tmp, path)
}

func decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrUndecodable, filepath.Base(path), err)
	}

	return img, strings.ToLower(format), nil
}

// cover returns the largest centred square inside r.
func cover(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	side := w
	if h < side {
		side = h
	}

	x0 := r.Min.X + (w-side)/2
	y0 := r.Min.Y + (h-side)/2

	return image.Rect(x0, y0, x0+side, y0+side)
}
