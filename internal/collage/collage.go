// Package collage composes the reference posture image and the current
// webcam frame into a single labeled comparison image for the vision model.
package collage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// borderWidth is the black frame drawn around each image.
	borderWidth = 2
	// stripHeight is the white separator between reference and current.
	stripHeight = 50
)

// Build stacks the reference image on top of the current frame, separated by
// a labeled white strip. Both images are resized to a common size first so
// the model compares like with like.
func Build(reference, current image.Image) image.Image {
	width := reference.Bounds().Dx()
	if w := current.Bounds().Dx(); w > width {
		width = w
	}
	height := reference.Bounds().Dy()
	if h := current.Bounds().Dy(); h > height {
		height = h
	}

	ref := imaging.Resize(reference, width, height, imaging.Lanczos)
	cur := imaging.Resize(current, width, height, imaging.Lanczos)

	panelW := width + 2*borderWidth
	panelH := height + 2*borderWidth
	canvas := image.NewRGBA(image.Rect(0, 0, panelW, 2*panelH+stripHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	pastePanel(canvas, ref, 0)
	pastePanel(canvas, cur, panelH+stripHeight)

	drawLabel(canvas, "Reference Posture", 10, panelH+stripHeight/2-5)
	drawLabel(canvas, "Current Posture", 10, panelH+stripHeight-8)

	return canvas
}

// pastePanel draws a black border rectangle at yOffset and the image inside.
func pastePanel(canvas *image.RGBA, img image.Image, yOffset int) {
	b := img.Bounds()
	frame := image.Rect(0, yOffset, b.Dx()+2*borderWidth, yOffset+b.Dy()+2*borderWidth)
	draw.Draw(canvas, frame, image.NewUniform(color.Black), image.Point{}, draw.Src)

	inner := image.Rect(borderWidth, yOffset+borderWidth, borderWidth+b.Dx(), yOffset+borderWidth+b.Dy())
	draw.Draw(canvas, inner, img, b.Min, draw.Src)
}

func drawLabel(canvas *image.RGBA, text string, x, y int) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// Save writes the image as a JPEG (or whatever the extension implies).
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("collage: save %s: %w", path, err)
	}
	return nil
}

// Load reads an image from disk.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("collage: open %s: %w", path, err)
	}
	return img, nil
}
