package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/nfnt/resize"
	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyFrame    = errors.New("frame is empty")
	ErrFrameTooLarge = errors.New("frame size exceeds limit")
	ErrNotAnImage    = errors.New("frame is not an image")
)

type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateFrame(data []byte) error
	ResizeImage(data []byte, maxWidth, maxHeight uint) (Image, error)
}

type utils struct {
	maxFrameSize int
	jpegQuality  int
}

func New() IUtils {
	return &utils{
		maxFrameSize: 5 * 1024 * 1024,
		jpegQuality:  90,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateFrame(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFrame
	}

	if len(data) > u.maxFrameSize {
		return ErrFrameTooLarge
	}

	// only formats ResizeImage can decode
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (format != "jpeg" && format != "png") {
		return ErrNotAnImage
	}

	return nil
}

// ResizeImage shrinks the image to fit inside maxWidth x maxHeight keeping its
// aspect ratio. A zero bound leaves that axis unconstrained.
func (u *utils) ResizeImage(data []byte, maxWidth, maxHeight uint) (Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, err
	}

	bounds := img.Bounds()
	width, height := uint(bounds.Dx()), uint(bounds.Dy())

	fits := (maxWidth == 0 || width <= maxWidth) && (maxHeight == 0 || height <= maxHeight)
	if fits {
		return Image{
			Data:        data,
			ContentType: "image/" + format,
			Width:       int(width),
			Height:      int(height),
		}, nil
	}

	if maxWidth == 0 {
		maxWidth = width
	}
	if maxHeight == 0 {
		maxHeight = height
	}

	scaled := resize.Thumbnail(maxWidth, maxHeight, img, resize.Bilinear)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: u.jpegQuality}); err != nil {
		return Image{}, err
	}

	out := scaled.Bounds()
	return Image{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       out.Dx(),
		Height:      out.Dy(),
	}, nil
}
