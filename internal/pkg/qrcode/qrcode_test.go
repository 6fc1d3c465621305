package qrcode

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("https://example.com", Options{BoxSize: 10, Border: 4})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, b.Dx(), b.Dy())
	// symbol edge is a whole number of modules plus the quiet zone on each side
	assert.Zero(t, (b.Dx()-2*4*10)%10)

	r, g, bl, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, bl}, "quiet zone uses the background")
}

func TestRender_PresetsChangeSize(t *testing.T) {
	small, err := Render("hello", Options{BoxSize: 8, Border: 3})
	require.NoError(t, err)
	large, err := Render("hello", Options{BoxSize: 12, Border: 5})
	require.NoError(t, err)

	si, err := png.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	li, err := png.Decode(bytes.NewReader(large))
	require.NoError(t, err)

	assert.Less(t, si.Bounds().Dx(), li.Bounds().Dx())
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("   ", Options{BoxSize: 10})
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = Render(string(bytes.Repeat([]byte("x"), 8000)), Options{BoxSize: 10})
	assert.ErrorIs(t, err, ErrRender)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = ParseHex("000000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 0xff}, c)

	for _, bad := range []string{"", "fff", "gggggg", "#12345678"} {
		_, err := ParseHex(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, bad)
	}
}
