package springbone_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/scene"
	"github.com/san-kum/springsim/internal/springbone"
)

func near(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func nearQuat(a, b mgl64.Quat, tol float64) bool {
	return near(a.V, b.V, tol) && math.Abs(a.W-b.W) <= tol
}

func rotations(g *scene.Graph, ids []dynamo.NodeID) map[dynamo.NodeID]mgl64.Quat {
	out := make(map[dynamo.NodeID]mgl64.Quat, len(ids))
	for _, id := range ids {
		out[id] = g.LocalRotation(id)
	}
	return out
}

func matchRotations(g *scene.Graph, want map[dynamo.NodeID]mgl64.Quat) {
	GinkgoHelper()
	for id, q := range want {
		got := g.LocalRotation(id)
		Expect(nearQuat(got, q, 1e-9)).To(BeTrue(), "node %s: got %v, want %v", g.Name(id), got, q)
	}
}

var _ = Describe("Chain lifecycle", func() {
	var (
		g     *scene.Graph
		root  dynamo.NodeID
		chain *springbone.Chain
		nodes []dynamo.NodeID
	)

	BeforeEach(func() {
		g = scene.New()
		body := g.MustAdd("body", dynamo.NoNode, mgl64.Vec3{0, 1, 0})
		var err error
		root, err = g.AddEuler("skirt", body, mgl64.Vec3{0, -0.2, 0}, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{1, 1, 1})
		Expect(err).NotTo(HaveOccurred())
		mid, err := g.AddEuler("skirt_mid", root, mgl64.Vec3{0, -0.15, 0.05}, mgl64.Vec3{-5, 20, 0}, mgl64.Vec3{1, 1, 1})
		Expect(err).NotTo(HaveOccurred())
		_, err = g.AddEuler("skirt_end", mid, mgl64.Vec3{0, -0.15, 0.02}, mgl64.Vec3{0, 0, 15}, mgl64.Vec3{1, 1, 1})
		Expect(err).NotTo(HaveOccurred())

		chain = springbone.NewChain(g)
		chain.Logger = logr.Discard()
		chain.RootBones = []dynamo.NodeID{root}
		chain.GravityPower = 1
		nodes = g.Descendants(root)
	})

	Context("when uninitialized", func() {
		It("has no bones", func() {
			Expect(chain.Bones()).To(BeEmpty())
		})

		It("sets itself up on the first update", func() {
			chain.Update(1.0 / 60)
			Expect(chain.Bones()).To(HaveLen(3))
		})

		It("ignores updates without root bones", func() {
			chain.RootBones = nil
			chain.Update(1.0 / 60)
			Expect(chain.Bones()).To(BeEmpty())
		})
	})

	Context("when ready", func() {
		var rest map[dynamo.NodeID]mgl64.Quat

		BeforeEach(func() {
			rest = rotations(g, nodes)
			Expect(chain.Setup(false)).To(Succeed())
		})

		It("snapshots every descendant", func() {
			for id, q := range rest {
				got, ok := chain.InitialLocalRotation(id)
				Expect(ok).To(BeTrue())
				Expect(nearQuat(got, q, 1e-12)).To(BeTrue())
			}
		})

		It("moves the bones under gravity", func() {
			for i := 0; i < 30; i++ {
				chain.Update(1.0 / 30)
			}
			moved := false
			for id, q := range rest {
				if !nearQuat(g.LocalRotation(id), q, 1e-6) {
					moved = true
				}
			}
			Expect(moved).To(BeTrue())
		})

		It("restores the rest pose when set up again", func() {
			for i := 0; i < 30; i++ {
				chain.Update(1.0 / 30)
			}
			Expect(chain.Setup(false)).To(Succeed())
			matchRotations(g, rest)
		})

		It("keeps the simulated pose as the new rest pose when forced", func() {
			for i := 0; i < 30; i++ {
				chain.Update(1.0 / 30)
			}
			simulated := rotations(g, nodes)

			Expect(chain.Setup(true)).To(Succeed())
			matchRotations(g, simulated)
			for id, q := range simulated {
				got, _ := chain.InitialLocalRotation(id)
				Expect(nearQuat(got, q, 1e-12)).To(BeTrue())
			}
		})

		It("resets every simulated bone to identity", func() {
			chain.SetLocalRotationsIdentity()
			for _, id := range chain.Nodes() {
				Expect(g.LocalRotation(id)).To(Equal(mgl64.QuatIdent()))
			}
		})

		It("restores the snapshot after a forced setup and identity reset", func() {
			Expect(chain.Setup(true)).To(Succeed())
			chain.SetLocalRotationsIdentity()
			Expect(chain.Setup(false)).To(Succeed())
			matchRotations(g, rest)
		})

		It("rebuilds the bones in depth-first order", func() {
			Expect(chain.Setup(false)).To(Succeed())
			Expect(chain.Nodes()).To(Equal(nodes))
		})
	})

	Context("with a center node", func() {
		It("keeps tails in the center's space", func() {
			center := g.MustAdd("world", dynamo.NoNode, mgl64.Vec3{2, 0, 0})
			chain.Center = center
			Expect(chain.Setup(true)).To(Succeed())

			for _, b := range chain.Bones() {
				world := b.WorldTail(g, center)
				Expect(near(b.CurrentTail(), world.Sub(mgl64.Vec3{2, 0, 0}), 1e-9)).To(BeTrue())
			}
		})
	})
})
