// pkg/render/engo/sprites.go
package engo

import (
	"image"
	"image/color"

	"github.com/EngoEngine/engo/common"
)

// Sprite sizes in pixels.
const (
	CharacterWidth  = 8
	CharacterHeight = 12
)

// characterPattern is a skier with a pack: 1 body, 2 pack, 3 skis.
var characterPattern = [CharacterHeight][CharacterWidth]uint8{
	{0, 0, 0, 1, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 0, 0, 0},
	{0, 0, 1, 1, 1, 1, 0, 0},
	{0, 2, 1, 1, 1, 1, 1, 0},
	{0, 2, 1, 1, 1, 1, 0, 1},
	{0, 2, 1, 1, 1, 1, 0, 0},
	{0, 2, 0, 1, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 0, 0, 0},
	{0, 0, 1, 1, 0, 1, 0, 0},
	{0, 0, 1, 0, 0, 1, 0, 0},
	{0, 0, 1, 0, 0, 1, 0, 0},
	{3, 3, 3, 3, 3, 3, 3, 3},
}

// Palette used for sprites and the course.
var (
	BodyColor    = color.NRGBA{R: 230, G: 230, B: 240, A: 255}
	PackColor    = color.NRGBA{R: 220, G: 120, B: 40, A: 255}
	SkiColor     = color.NRGBA{R: 200, G: 40, B: 40, A: 255}
	SnowColor    = color.NRGBA{R: 245, G: 250, B: 255, A: 255}
	GaugeBack    = color.NRGBA{R: 40, G: 40, B: 48, A: 200}
	IndicatorOff = color.NRGBA{R: 70, G: 70, B: 80, A: 255}
)

// CharacterImage rasterises the character pattern.
func CharacterImage() *image.NRGBA {
	palette := [...]color.Color{color.Transparent, BodyColor, PackColor, SkiColor}
	img := image.NewNRGBA(image.Rect(0, 0, CharacterWidth, CharacterHeight))
	for y, row := range characterPattern {
		for x, px := range row {
			img.Set(x, y, palette[px])
		}
	}
	return img
}

// CharacterTexture uploads the character image. It needs a GL context.
func CharacterTexture() common.Drawable {
	return common.NewTextureSingle(common.NewImageObject(CharacterImage()))
}
