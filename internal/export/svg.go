package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/viz"
)

// Palette cycles through stroke colors for multi-bone plots.
var Palette = []string{"#00ff00", "#00c8ff", "#ff7f50", "#ffd700", "#ff4fd8", "#b0ff57"}

// Plane selects which two world axes a trajectory is drawn on. Side view
// looks along +X (Z right, Y up), front view along -Z, top view down -Y.
type Plane int

const (
	Side Plane = iota
	Front
	Top
)

func ParsePlane(s string) (Plane, error) {
	switch s {
	case "side", "zy":
		return Side, nil
	case "front", "xy":
		return Front, nil
	case "top", "xz":
		return Top, nil
	}
	return Side, fmt.Errorf("unknown plane %q (want side, front or top)", s)
}

func (p Plane) project(v mgl64.Vec3) struct{ X, Y float64 } {
	switch p {
	case Front:
		return struct{ X, Y float64 }{v.X(), v.Y()}
	case Top:
		return struct{ X, Y float64 }{v.X(), -v.Z()}
	default:
		return struct{ X, Y float64 }{-v.Z(), v.Y()}
	}
}

// ProjectTails flattens the path of one bone's tail, tails[frame][bone],
// onto the plane. Frames without the bone are skipped.
func ProjectTails(tails [][]mgl64.Vec3, bone int, plane Plane) []struct{ X, Y float64 } {
	out := make([]struct{ X, Y float64 }, 0, len(tails))
	for _, frame := range tails {
		if bone < 0 || bone >= len(frame) {
			continue
		}
		out = append(out, plane.project(frame[bone]))
	}
	return out
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height))

	dotRadius := scale * 0.4

	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG creates an SVG from trajectory data
func TrajectoryToSVG(points []struct{ X, Y float64 }, width, height int, strokeColor string) string {
	return TrajectoriesToSVG([][]struct{ X, Y float64 }{points}, width, height, []string{strokeColor})
}

// TrajectoriesToSVG draws several paths on shared axes. Colors are reused
// cyclically; paths with fewer than two points are left out.
func TrajectoriesToSVG(paths [][]struct{ X, Y float64 }, width, height int, colors []string) string {
	var first *struct{ X, Y float64 }
	for _, p := range paths {
		if len(p) >= 2 {
			first = &p[0]
			break
		}
	}
	if first == nil {
		return ""
	}
	if len(colors) == 0 {
		colors = Palette
	}

	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, path := range paths {
		if len(path) < 2 {
			continue
		}
		for _, p := range path {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	drawn := 0
	for _, path := range paths {
		if len(path) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, colors[drawn%len(colors)]))
		for i, p := range path {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		drawn++
	}

	sb.WriteString("</svg>")
	return sb.String()
}
