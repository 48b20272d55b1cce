package calcstub

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

const (
	gaugeWidth  = 120
	gaugeHeight = 200
	gaugeBorder = 6
)

var (
	gaugeBackground = color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff}
	gaugeWall       = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	gaugeFill       = color.RGBA{R: 0xfa, G: 0xcc, B: 0x15, A: 0xff}
)

// renderGauge рисует контейнер, заполненный снизу на fill процентов.
func renderGauge(fill float64) ([]byte, error) {
	fill = min(max(fill, 0), 100)

	img := image.NewRGBA(image.Rect(0, 0, gaugeWidth, gaugeHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: gaugeWall}, image.Point{}, draw.Src)

	inner := image.Rect(gaugeBorder, gaugeBorder, gaugeWidth-gaugeBorder, gaugeHeight-gaugeBorder)
	draw.Draw(img, inner, &image.Uniform{C: gaugeBackground}, image.Point{}, draw.Src)

	level := int(float64(inner.Dy())*fill/100 + 0.5)
	filled := image.Rect(inner.Min.X, inner.Max.Y-level, inner.Max.X, inner.Max.Y)
	draw.Draw(img, filled, &image.Uniform{C: gaugeFill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
