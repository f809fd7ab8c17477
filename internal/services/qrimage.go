package services

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/boombuler/barcode/qr"
)

// QRRenderer draws QR codes as fixed-size two-colour PNG images with a quiet
// zone of Margin modules on every side.
type QRRenderer struct {
	Size   int
	Margin int
	Dark   color.RGBA
	Light  color.RGBA
}

func NewQRRenderer(size, margin int, dark, light string) (*QRRenderer, error) {
	darkColor, err := parseHexColor(dark)
	if err != nil {
		return nil, fmt.Errorf("dark color: %w", err)
	}
	lightColor, err := parseHexColor(light)
	if err != nil {
		return nil, fmt.Errorf("light color: %w", err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", size)
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %d", margin)
	}
	return &QRRenderer{Size: size, Margin: margin, Dark: darkColor, Light: lightColor}, nil
}

func (r *QRRenderer) RenderPNG(content string) ([]byte, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}

	modules := code.Bounds().Dx()
	total := modules + 2*r.Margin
	if total > r.Size {
		return nil, fmt.Errorf("qr needs %d modules, image is only %d px", total, r.Size)
	}

	img := image.NewPaletted(image.Rect(0, 0, r.Size, r.Size), color.Palette{r.Light, r.Dark})
	for py := 0; py < r.Size; py++ {
		my := py*total/r.Size - r.Margin
		for px := 0; px < r.Size; px++ {
			mx := px*total/r.Size - r.Margin
			if mx < 0 || my < 0 || mx >= modules || my >= modules {
				continue
			}
			if isDark(code.At(mx, my)) {
				img.SetColorIndex(px, py, 1)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDataURL returns the PNG as a data:image/png;base64 URL.
func (r *QRRenderer) RenderDataURL(content string) (string, error) {
	data, err := r.RenderPNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func isDark(c color.Color) bool {
	red, green, blue, _ := c.RGBA()
	return (red+green+blue)/3 < 0x8000
}

func parseHexColor(value string) (color.RGBA, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(digits) == 6 {
		digits += "ff"
	}
	b, err := hex.DecodeString(digits)
	if err != nil || len(b) != 4 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", value)
	}
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
}
