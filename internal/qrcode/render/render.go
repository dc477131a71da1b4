// Package render draws QR code images. It performs no I/O.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Style string

const (
	StyleBasic   Style = "basic"
	StyleBranded Style = "branded"
	StyleFramed  Style = "framed"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

const (
	MinSize     = 64
	MaxSize     = 1024
	DefaultSize = 256

	frameWidth    = 20
	captionHeight = 28
	jpegQuality   = 90
)

var (
	ErrEmptyContent = errors.New("qr content is empty")
	ErrUnknownStyle = errors.New("unknown qr style")
	ErrUnknownFmt   = errors.New("unknown image format")
	ErrBadColor     = errors.New("color must be #rrggbb")

	// DefaultColor is used for branded modules and frames when none is given.
	DefaultColor = color.RGBA{R: 0x21, G: 0x96, B: 0xF3, A: 0xFF}
)

type Options struct {
	Content string
	Style   Style
	Size    int
	Format  Format
	Color   color.RGBA
	Caption string
	// Logo is drawn centered on basic codes at one fifth of the code size.
	Logo image.Image
}

func ParseStyle(raw string) (Style, error) {
	switch s := Style(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return StyleBasic, nil
	case StyleBasic, StyleBranded, StyleFramed:
		return s, nil
	}
	return "", ErrUnknownStyle
}

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", ErrUnknownFmt
}

// ParseHexColor accepts #rrggbb. Empty input yields DefaultColor.
func ParseHexColor(raw string) (color.RGBA, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if raw == "" {
		return DefaultColor, nil
	}
	if len(raw) != 6 {
		return color.RGBA{}, ErrBadColor
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return color.RGBA{}, ErrBadColor
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// ClampSize bounds the requested edge length. Zero selects DefaultSize.
func ClampSize(n int) int {
	switch {
	case n == 0:
		return DefaultSize
	case n < MinSize:
		return MinSize
	case n > MaxSize:
		return MaxSize
	}
	return n
}

func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// Render encodes opts.Content and returns the encoded image.
func Render(opts Options) ([]byte, error) {
	if strings.TrimSpace(opts.Content) == "" {
		return nil, ErrEmptyContent
	}
	if opts.Style == "" {
		opts.Style = StyleBasic
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if opts.Color == (color.RGBA{}) {
		opts.Color = DefaultColor
	}
	size := ClampSize(opts.Size)

	var img image.Image
	var err error
	switch opts.Style {
	case StyleBasic:
		img, err = basic(opts, size)
	case StyleBranded:
		img, err = branded(opts, size)
	case StyleFramed:
		img, err = framed(opts, size)
	default:
		return nil, ErrUnknownStyle
	}
	if err != nil {
		return nil, err
	}
	return encode(img, opts.Format)
}

func code(content string, level qr.ErrorCorrectionLevel, size int) (barcode.Barcode, error) {
	c, err := qr.Encode(content, level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(c, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	return scaled, nil
}

func basic(opts Options, size int) (image.Image, error) {
	c, err := code(opts.Content, qr.H, size)
	if err != nil {
		return nil, err
	}
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	stddraw.Draw(canvas, canvas.Bounds(), c, image.Point{}, stddraw.Src)
	if opts.Logo != nil {
		placeLogo(canvas, opts.Logo, size)
	}
	return canvas, nil
}

func placeLogo(canvas *image.RGBA, logo image.Image, size int) {
	edge := size / 5
	pad := edge / 10
	offset := (size - edge) / 2
	plate := image.Rect(offset-pad, offset-pad, offset+edge+pad, offset+edge+pad)
	stddraw.Draw(canvas, plate, image.NewUniform(color.White), image.Point{}, stddraw.Src)
	draw.CatmullRom.Scale(canvas, image.Rect(offset, offset, offset+edge, offset+edge), logo, logo.Bounds(), draw.Over, nil)
}

func branded(opts Options, size int) (image.Image, error) {
	c, err := code(opts.Content, qr.M, size)
	if err != nil {
		return nil, err
	}
	canvas := image.NewRGBA(image.Rect(0, 0, size, size+captionHeight))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, stddraw.Src)
	tint(canvas, c, image.Point{}, opts.Color)
	caption(canvas, opts.Caption, size, size+captionHeight-9, opts.Color)
	return canvas, nil
}

func framed(opts Options, size int) (image.Image, error) {
	c, err := code(opts.Content, qr.M, size)
	if err != nil {
		return nil, err
	}
	width := size + 2*frameWidth
	height := size + 2*frameWidth + captionHeight
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Color), image.Point{}, stddraw.Src)
	inner := image.Rect(frameWidth, frameWidth, frameWidth+size, frameWidth+size)
	stddraw.Draw(canvas, inner, c, image.Point{}, stddraw.Src)
	caption(canvas, opts.Caption, width, height-frameWidth/2-5, color.White)
	return canvas, nil
}

// tint paints the dark modules of c in col.
func tint(dst *image.RGBA, c image.Image, at image.Point, col color.RGBA) {
	b := c.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := c.At(x, y).RGBA()
			if r < 0x8000 {
				dst.SetRGBA(at.X+x-b.Min.X, at.Y+y-b.Min.Y, col)
			}
		}
	}
}

func caption(dst *image.RGBA, text string, width, baseline int, col color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	for len(text) > 1 && font.MeasureString(face, text).Ceil() > width-8 {
		text = text[:len(text)-1]
	}
	x := (width - font.MeasureString(face, text).Ceil()) / 2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

func encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
