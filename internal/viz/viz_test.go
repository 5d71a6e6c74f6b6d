package viz

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/scene"
	"github.com/san-kum/springsim/internal/sim"
	"github.com/san-kum/springsim/internal/springbone"
)

func near(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func nearQuat(a, b mgl64.Quat, tol float64) bool {
	return near(a.V, b.V, tol) && math.Abs(a.W-b.W) <= tol
}

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 2)

	c.Set(0, 0)
	c.Set(3, 7)
	if !c.IsSet(0, 0) || !c.IsSet(3, 7) {
		t.Error("expected dots to be set")
	}
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1 in first cell, got %U", c.Grid[0][0])
	}

	c.Unset(0, 0)
	if c.IsSet(0, 0) || c.Grid[0][0] != 0x2800 {
		t.Error("expected dot cleared")
	}

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(4, 0)
	if c.IsSet(-1, 0) || c.IsSet(4, 0) {
		t.Error("expected off-canvas dots to be ignored")
	}

	c.Clear()
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Errorf("expected blank canvas, got %q", c.String())
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 0)
	for x := 0; x < 20; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("expected (%d,0) set", x)
		}
	}
}

func TestCanvasDrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(20, 20, 8)

	for _, p := range [][2]int{{28, 20}, {12, 20}, {20, 12}, {20, 28}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected %v on circle", p)
		}
	}
	if c.IsSet(20, 20) {
		t.Error("expected hollow circle")
	}

	c.Clear()
	c.DrawCircle(5, 5, 0)
	if !c.IsSet(5, 5) {
		t.Error("expected single dot for zero radius")
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	cam.Yaw, cam.Pitch = 0, 0

	x, y, depth, ok := cam.Project(cam.Target, 100, 80)
	if !ok || x != 50 || y != 40 {
		t.Errorf("expected target at centre, got (%d,%d) visible=%v", x, y, ok)
	}
	if depth <= 0 {
		t.Errorf("expected positive depth, got %f", depth)
	}

	_, above, _, _ := cam.Project(cam.Target.Add(mgl64.Vec3{0, 0.2, 0}), 100, 80)
	if above >= 40 {
		t.Errorf("expected point above target higher on screen, got y=%d", above)
	}
	right, _, _, _ := cam.Project(cam.Target.Add(mgl64.Vec3{0.2, 0, 0}), 100, 80)
	if right <= 50 {
		t.Errorf("expected +X to the right from +Z, got x=%d", right)
	}

	behind := cam.Eye().Add(mgl64.Vec3{0, 0, 1})
	if _, _, _, ok := cam.Project(behind, 100, 80); ok {
		t.Error("expected point behind the camera to be hidden")
	}
}

func TestCameraOrbitClampsPitch(t *testing.T) {
	cam := NewCamera()
	cam.Orbit(0, 10)
	if cam.Pitch >= 1.5708 {
		t.Errorf("expected pitch clamped below vertical, got %f", cam.Pitch)
	}
	d := cam.Eye().Sub(cam.Target).Len()
	if d < cam.Distance-1e-9 || d > cam.Distance+1e-9 {
		t.Errorf("expected eye at distance %f, got %f", cam.Distance, d)
	}
}

func TestRenderChainWireframe(t *testing.T) {
	frame := dynamo.Frame{Chains: []dynamo.ChainSample{{
		Bones: []dynamo.BoneSample{
			{Head: mgl64.Vec3{0, 1.5, 0}, Tail: mgl64.Vec3{0, 1, 0}},
			{Head: mgl64.Vec3{0, 1, 0}, Tail: mgl64.Vec3{0, 0.5, 0}},
		},
		Colliders: []dynamo.Sphere{{Center: mgl64.Vec3{0.3, 1, 0}, Radius: 0.1}},
	}}}

	w := ChainWireframe(frame)
	if len(w.Edges) != 2 || len(w.Circles) != 1 {
		t.Fatalf("expected 2 edges and 1 circle, got %d and %d", len(w.Edges), len(w.Circles))
	}

	c := NewCanvas(40, 20)
	Render3D(c, w, NewCamera())
	lit := 0
	cw, ch := c.Dots()
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			if c.IsSet(x, y) {
				lit++
			}
		}
	}
	if lit < 10 {
		t.Errorf("expected the chain to be drawn, %d dots lit", lit)
	}

	w.Clear()
	if len(w.Edges) != 0 || len(w.Circles) != 0 {
		t.Error("expected empty wireframe after clear")
	}
}

func TestPlot(t *testing.T) {
	if PlotSeries(nil, "x", 20, 5) != "" {
		t.Error("expected empty plot for no data")
	}
	out := PlotSeries([]float64{0, 1, 2, 1, 0}, "swing", 20, 5)
	if !strings.Contains(out, "swing") {
		t.Errorf("expected caption in plot:\n%s", out)
	}
	if PlotMany([][]float64{{0, 1}, nil, {1, 0}}, "two", 20, 5) == "" {
		t.Error("expected plot of two series")
	}
}

func TestSparkline(t *testing.T) {
	s := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if s != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", s)
	}
	if got := []rune(Sparkline([]float64{1, 2, 3, 4}, 2)); len(got) != 2 {
		t.Errorf("expected most recent 2 values, got %q", string(got))
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(ThemeCyberpunk.Name)

	SetTheme("ocean")
	if CurrentTheme.Name != "ocean" {
		t.Errorf("expected ocean, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != ThemeNames()[0] {
		t.Errorf("expected wrap to %s, got %s", ThemeNames()[0], CurrentTheme.Name)
	}
	if GetTheme("nope").Name != ThemeCyberpunk.Name {
		t.Error("expected fallback theme")
	}
}

func TestRecorder(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)

	img := CanvasToImage(c, 2)
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("expected 16x16 image, got %v", b)
	}
	if img.ColorIndexAt(0, 0) != 1 || img.ColorIndexAt(15, 0) != 0 {
		t.Error("unexpected pixels")
	}

	r := NewRecorder()
	r.Capture(c)
	r.Capture(c)
	path := filepath.Join(t.TempDir(), "out.gif")
	if err := r.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected gif written, got %v", err)
	}
	if r.Len() != 0 {
		t.Error("expected recorder emptied after save")
	}
}

func liveModel(t *testing.T) LiveModel {
	t.Helper()
	g := scene.New()
	pivot := g.MustAdd("pivot", dynamo.NoNode, mgl64.Vec3{0, 1, 0})
	arm := g.MustAdd("arm", pivot, mgl64.Vec3{})
	g.MustAdd("bob", arm, mgl64.Vec3{0, 0, -0.5})

	c := springbone.NewChain(g)
	c.Comment = "arm"
	c.RootBones = []dynamo.NodeID{arm}
	c.GravityPower = 1

	s := sim.New(g, c)
	if err := s.Setup(false); err != nil {
		t.Fatal(err)
	}
	return NewLiveModel(s, "test", 1.0/60)
}

func send(m LiveModel, msg tea.Msg) LiveModel {
	next, _ := m.Update(msg)
	return next.(LiveModel)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLiveModelTicks(t *testing.T) {
	m := liveModel(t)

	m = send(m, TickMsg{})
	m = send(m, TickMsg{})
	if m.sim.Time() <= 0 {
		t.Error("expected time to advance while running")
	}
	if len(m.swing) != 2 {
		t.Errorf("expected 2 swing samples, got %d", len(m.swing))
	}

	m = send(m, tea.KeyMsg{Type: tea.KeySpace})
	before := m.sim.Time()
	m = send(m, TickMsg{})
	if m.running || m.sim.Time() != before {
		t.Error("expected paused model not to advance")
	}
}

func TestLiveModelKeys(t *testing.T) {
	m := liveModel(t)
	chain := m.sim.Chains()[0]

	m = send(m, key("g"))
	if chain.GravityPower != 0 {
		t.Errorf("expected gravity off, got %f", chain.GravityPower)
	}
	m = send(m, key("g"))
	if chain.GravityPower != 1 {
		t.Errorf("expected gravity restored, got %f", chain.GravityPower)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyUp})
	if chain.StiffnessForce <= 1 {
		t.Errorf("expected stiffness raised, got %f", chain.StiffnessForce)
	}

	yaw := m.camera.Yaw
	m = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.camera.Yaw >= yaw {
		t.Error("expected camera to orbit left")
	}

	for i := 0; i < 10; i++ {
		m = send(m, TickMsg{})
	}
	m = send(m, key("r"))
	if m.sim.Time() != 0 {
		t.Errorf("expected time 0 after reset, got %f", m.sim.Time())
	}
	arm := chain.Bones()[0].Node()
	if !nearQuat(m.sim.Hierarchy().LocalRotation(arm), mgl64.QuatIdent(), 1e-9) {
		t.Error("expected rest rotation after reset")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selected != 0 {
		t.Errorf("expected selection to wrap with one chain, got %d", m.selected)
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("expected quit command")
	}
}

func TestLiveModelView(t *testing.T) {
	m := liveModel(t)
	m = send(m, TickMsg{})

	view := m.View()
	for _, want := range []string{"TEST", "RUNNING", "arm"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}
