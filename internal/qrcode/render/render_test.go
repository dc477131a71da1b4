package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "https://pranavi-bakery-03150907-ab12.netlify.app"

func TestClampSize(t *testing.T) {
	assert.Equal(t, DefaultSize, ClampSize(0))
	assert.Equal(t, MinSize, ClampSize(10))
	assert.Equal(t, MinSize, ClampSize(-5))
	assert.Equal(t, MaxSize, ClampSize(5000))
	assert.Equal(t, 300, ClampSize(300))
}

func TestParse(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleBasic, s)
	_, err = ParseStyle("sparkly")
	assert.ErrorIs(t, err, ErrUnknownStyle)

	f, err := ParseFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)
	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFmt)

	c, err := ParseHexColor("#ff6b35")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x6b, B: 0x35, A: 0xff}, c)
	_, err = ParseHexColor("#abc")
	assert.ErrorIs(t, err, ErrBadColor)
}

func TestRenderBasicPNG(t *testing.T) {
	body, err := Render(Options{Content: target, Size: 10})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, MinSize, MinSize), img.Bounds())
}

func TestRenderBasicWithLogo(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for i := range logo.Pix {
		logo.Pix[i] = 0xff
	}
	body, err := Render(Options{Content: target, Size: 300, Logo: logo})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	r, g, b, _ := img.At(150, 150).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}

func TestRenderBrandedAddsCaptionBand(t *testing.T) {
	body, err := Render(Options{Content: target, Style: StyleBranded, Size: 256, Caption: "Pranavi Bakery"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256+captionHeight, img.Bounds().Dy())
}

func TestRenderFramedJPEG(t *testing.T) {
	body, err := Render(Options{Content: target, Style: StyleFramed, Format: FormatJPEG, Size: 200, Caption: "Scan me"})
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 200+2*frameWidth, img.Bounds().Dx())
	assert.Equal(t, 200+2*frameWidth+captionHeight, img.Bounds().Dy())
}

func TestRenderRejectsEmptyContent(t *testing.T) {
	_, err := Render(Options{Content: "  "})
	assert.ErrorIs(t, err, ErrEmptyContent)
}
