package phxbn

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

type PreviewOptions struct {
	Size        int
	Supersample int
}

var DefaultPreviewOptions = PreviewOptions{Size: 256, Supersample: 4}

var (
	previewBoneColor  = color.NRGBA{R: 0xe0, G: 0xa0, B: 0x30, A: 0xff}
	previewRootColor  = color.NRGBA{R: 0xd0, G: 0x40, B: 0x40, A: 0xff}
	previewPointColor = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
)

// front view: editor x to the right, editor z up
func previewProject(p mgl32.Vec3) (float32, float32) {
	return p[0], p[2]
}

// RenderPreview draws the bind pose as a stick figure on a transparent
// square, rendered at Size*Supersample and scaled down.
func (s *Skeleton) RenderPreview(opt PreviewOptions) *image.NRGBA {
	if opt.Supersample < 1 {
		opt.Supersample = 1
	}
	renderSize := opt.Size * opt.Supersample
	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	if len(s.Points) == 0 {
		return downsample(img, opt.Size)
	}

	points := s.EditorPoints()
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := -minX, -minY
	for _, p := range points {
		x, y := previewProject(p)
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	extent := max(maxX-minX, maxY-minY)
	if extent == 0 {
		extent = 1
	}
	margin := float32(renderSize) * 0.1
	scale := (float32(renderSize) - 2*margin) / extent
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	toImage := func(p mgl32.Vec3) (float32, float32) {
		x, y := previewProject(p)
		return float32(renderSize)/2 + (x-cx)*scale, float32(renderSize)/2 - (y-cy)*scale
	}

	radius := float32(opt.Supersample)
	for _, b := range s.Bones {
		c := previewBoneColor
		if b.Parent < 0 {
			c = previewRootColor
		}
		x0, y0 := toImage(points[b.Head])
		x1, y1 := toImage(points[b.Tail])
		drawSegment(img, x0, y0, x1, y1, radius, c)
	}
	for _, p := range points {
		x, y := toImage(p)
		drawDisc(img, x, y, radius*1.5, previewPointColor)
	}

	return downsample(img, opt.Size)
}

func drawDisc(img *image.NRGBA, cx, cy, r float32, c color.NRGBA) {
	b := img.Bounds()
	for y := int(cy - r); y <= int(cy+r+1); y++ {
		for x := int(cx - r); x <= int(cx+r+1); x++ {
			dx, dy := float32(x)+0.5-cx, float32(y)+0.5-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(b) {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawSegment(img *image.NRGBA, x0, y0, x1, y1, r float32, c color.NRGBA) {
	length := float32(math.Hypot(float64(x1-x0), float64(y1-y0)))
	steps := int(length/max(r*0.5, 0.5)) + 1
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		drawDisc(img, x0+(x1-x0)*t, y0+(y1-y0)*t, r, c)
	}
}

// downsample scales with premultiplied alpha so transparent edges keep
// their color
func downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(b)
	draw.Draw(premul, b, img, b.Min, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	result := image.NewNRGBA(dst.Bounds())
	draw.Draw(result, result.Bounds(), dst, image.Point{}, draw.Src)
	return result
}

func (s *Skeleton) WritePreview(w io.Writer, opt PreviewOptions) error {
	if opt.Size <= 0 {
		return errors.Errorf("invalid preview size %d", opt.Size)
	}
	if err := nativewebp.Encode(w, s.RenderPreview(opt), nil); err != nil {
		return errors.Wrapf(err, "webp encode")
	}
	return nil
}
