package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

// Recorder collects canvas snapshots and writes them as an animated GIF.
type Recorder struct {
	frames []*image.Paletted
	Delay  int // hundredths of a second between frames
}

func NewRecorder() *Recorder {
	return &Recorder{Delay: 2}
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Capture(c *Canvas) {
	r.frames = append(r.frames, CanvasToImage(c, 4))
}

// Save writes every captured frame to path and empties the recorder.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.Delay)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, &anim); err != nil {
		return err
	}
	r.frames = nil
	return nil
}

// CanvasToImage rasterizes every lit dot as a dot x dot square.
func CanvasToImage(c *Canvas, dot int) *image.Paletted {
	w, h := c.Dots()
	img := image.NewPaletted(image.Rect(0, 0, w*dot, h*dot), color.Palette{color.Black, color.White})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dot; py++ {
				for px := 0; px < dot; px++ {
					img.SetColorIndex(x*dot+px, y*dot+py, 1)
				}
			}
		}
	}
	return img
}
