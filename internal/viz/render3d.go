package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
)

// Camera orbits a target point. Yaw and Pitch are radians; at zero yaw the
// camera sits on +Z looking toward -Z.
type Camera struct {
	Target     mgl64.Vec3
	Distance   float64
	Yaw, Pitch float64
	FOV        float64
	Near, Far  float64
	Zoom       float64
}

const maxPitch = math.Pi/2 - 0.05

func NewCamera() *Camera {
	return &Camera{
		Target:   mgl64.Vec3{0, 1, 0},
		Distance: 3,
		Yaw:      0.6,
		Pitch:    0.2,
		FOV:      math.Pi / 4,
		Near:     0.01,
		Far:      100,
		Zoom:     1,
	}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Eye returns the camera position in world space.
func (c *Camera) Eye() mgl64.Vec3 {
	dir := mgl64.Vec3{
		math.Sin(c.Yaw) * math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		math.Cos(c.Yaw) * math.Cos(c.Pitch),
	}
	return c.Target.Add(dir.Mul(c.Distance / c.Zoom))
}

// ViewProjection is the combined clip-space transform for a screen with
// the given width/height ratio.
func (c *Camera) ViewProjection(aspect float64) mgl64.Mat4 {
	view := mgl64.LookAtV(c.Eye(), c.Target, dynamo.UnitY)
	proj := mgl64.Perspective(c.FOV, aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// Project converts a world point to screen coordinates on a sw x sh
// screen. It returns x, y, the view depth and whether the point is in front
// of the camera and on screen.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	x, y, depth, front := c.project(c.ViewProjection(float64(sw)/float64(sh)), p, sw, sh)
	return x, y, depth, front && x >= 0 && x < sw && y >= 0 && y < sh
}

func (c *Camera) project(vp mgl64.Mat4, p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= c.Near {
		return 0, 0, w, false
	}
	nx, ny := clip.X()/w, clip.Y()/w
	sx := int((nx + 1) / 2 * float64(sw))
	sy := int((1 - ny) / 2 * float64(sh))
	return sx, sy, w, true
}

// focal is the screen-space size of one world unit at depth 1.
func (c *Camera) focal(sh int) float64 {
	return float64(sh) / 2 / math.Tan(c.FOV/2)
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Circle struct {
	Center mgl64.Vec3
	Radius float64
}

type Wireframe struct {
	Edges   []Edge
	Circles []Circle
}

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) AddCircle(s dynamo.Sphere) {
	w.Circles = append(w.Circles, Circle{s.Center, s.Radius})
}

func (w *Wireframe) Clear() {
	w.Edges = w.Edges[:0]
	w.Circles = w.Circles[:0]
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe far to near. Spheres are drawn as their
// screen-space outline.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	vp := cam.ViewProjection(float64(cw) / float64(ch))

	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.project(vp, e.Start, cw, ch)
		x2, y2, d2, v2 := cam.project(vp, e.End, cw, ch)
		if v1 && v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}

	for _, s := range w.Circles {
		x, y, d, ok := cam.project(vp, s.Center, cw, ch)
		if !ok {
			continue
		}
		c.DrawCircle(x, y, int(math.Round(s.Radius*cam.focal(ch)/d)))
	}
}

// ChainWireframe draws every bone as a head-to-tail segment and every
// collider of the frame as a sphere. Hit radii are left out.
func ChainWireframe(f dynamo.Frame) *Wireframe {
	w := NewWireframe()
	for _, chain := range f.Chains {
		for _, b := range chain.Bones {
			w.AddEdge(b.Head, b.Tail)
		}
		for _, s := range chain.Colliders {
			w.AddCircle(s)
		}
	}
	return w
}

// GroundWireframe is a square grid on the XZ plane centred on the origin.
func GroundWireframe(size float64, lines int) *Wireframe {
	w := NewWireframe()
	if lines < 2 {
		lines = 2
	}
	h := size / 2
	step := size / float64(lines-1)
	for i := 0; i < lines; i++ {
		o := -h + float64(i)*step
		w.AddEdge(mgl64.Vec3{o, 0, -h}, mgl64.Vec3{o, 0, h})
		w.AddEdge(mgl64.Vec3{-h, 0, o}, mgl64.Vec3{h, 0, o})
	}
	return w
}
