package pdf

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrMissingQRCode = errors.New("poster requires a qr code image")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GeneratePoster(ctx context.Context, data PosterData) (io.Reader, error) {
	if len(data.QRCodePNG) == 0 {
		return nil, ErrMissingQRCode
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(20).
		WithRightMargin(20).
		WithTopMargin(25).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, data.BusinessName, props.Text{
			Size:  28,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	tagline := data.Tagline
	if tagline == "" {
		tagline = "Scan to visit our website"
	}
	m.AddRow(15,
		text.NewCol(12, tagline, props.Text{
			Size:  14,
			Align: align.Center,
			Top:   3,
		}),
	)

	m.AddRow(130,
		col.New(2),
		image.NewFromBytesCol(8, data.QRCodePNG, extension.Png, props.Rect{
			Center:  true,
			Percent: 95,
		}),
		col.New(2),
	)

	m.AddRow(15,
		text.NewCol(12, data.TargetURL, props.Text{
			Size:  12,
			Style: fontstyle.Italic,
			Align: align.Center,
			Top:   5,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
