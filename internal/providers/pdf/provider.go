package pdf

import (
	"context"
	"io"
)

// PosterData is everything printed on a QR poster.
type PosterData struct {
	BusinessName string
	Tagline      string
	TargetURL    string
	QRCodePNG    []byte
}

type Provider interface {
	GeneratePoster(ctx context.Context, data PosterData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GeneratePoster(ctx context.Context, data PosterData) (io.Reader, error) {
	return nil, nil
}
