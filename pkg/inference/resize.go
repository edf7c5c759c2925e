package inference

import (
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/utils"
	"context"
	"errors"
	"fmt"
)

// ErrUnreadableFrame marks frames that could not be decoded before inference.
// The model was never called for them.
var ErrUnreadableFrame = errors.New("frame could not be decoded")

type resizingModel struct {
	Model
	utils         utils.IUtils
	width, height uint
}

// WithResize scales every frame down to fit width x height before it reaches
// the wrapped model. Frames that already fit are passed through untouched.
func WithResize(m Model, u utils.IUtils, width, height uint) Model {
	if width == 0 && height == 0 {
		return m
	}
	return &resizingModel{Model: m, utils: u, width: width, height: height}
}

func (r *resizingModel) Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error) {
	img, err := r.utils.ResizeImage(frame.Data, r.width, r.height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFrame, err)
	}

	frame.Data = img.Data
	frame.Width = img.Width
	frame.Height = img.Height
	frame.ContentType = img.ContentType
	return r.Model.Classify(ctx, frame)
}

// WrapLoader applies WithResize to every model produced by l.
func WrapLoader(l Loader, u utils.IUtils, width, height uint) Loader {
	return LoaderFunc(func(ctx context.Context) (Model, error) {
		m, err := l.Load(ctx)
		if err != nil {
			return nil, err
		}
		return WithResize(m, u, width, height), nil
	})
}
