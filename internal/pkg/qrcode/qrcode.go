// Package qrcode renders QR codes as PNG images.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content is empty or only whitespace.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	// ErrInvalidColor is returned for colors that are not 6 hex digits.
	ErrInvalidColor = errors.New("qrcode: color must be 6 hex digits")
	// ErrRender wraps encoder failures, for example content too long to encode.
	ErrRender = errors.New("qrcode: failed to render")
)

const (
	maxBoxSize = 40
	maxBorder  = 20
)

// Options controls module size, quiet zone and colors.
type Options struct {
	// BoxSize is the edge length of one module in pixels.
	BoxSize int
	// Border is the quiet zone width in modules.
	Border     int
	Foreground color.Color
	Background color.Color
}

// Render encodes content with low error correction and returns a PNG.
func Render(content string, opts Options) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	box := min(max(opts.BoxSize, 1), maxBoxSize)
	border := min(max(opts.Border, 0), maxBorder)
	fg, bg := opts.Foreground, opts.Background
	if fg == nil {
		fg = color.Black
	}
	if bg == nil {
		bg = color.White
	}

	q, err := skipqrcode.New(content, skipqrcode.Low)
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}
	q.DisableBorder = true
	q.ForegroundColor = fg
	q.BackgroundColor = bg

	// a negative size makes every module -size pixels wide
	symbol := q.Image(-box)
	sb := symbol.Bounds()
	pad := border * box

	canvas := image.NewRGBA(image.Rect(0, 0, sb.Dx()+2*pad, sb.Dy()+2*pad))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(canvas, sb.Sub(sb.Min).Add(image.Pt(pad, pad)), symbol, sb.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	return buf.Bytes(), nil
}

// ParseHex parses "1a2b3c" or "#1a2b3c".
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
