package render

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/light"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// nearEpsilon keeps clipped vertices strictly in front of the eye.
const nearEpsilon = 1e-5

// seamWidth is the stroke drawn around opaque triangles to hide conflation seams between neighbours.
const seamWidth = 0.75

// meshJob is one visible mesh node captured on the calling goroutine.
type meshJob struct {
	mesh  *scene.Mesh
	world [16]float32
}

// shading is the per-frame lighting state shared by every mesh job.
type shading struct {
	viewProj    [16]float32
	lights      []light.Light
	environment *scene.Environment
	width       float32
	height      float32
}

// triangle is a screen-space polygon (3 or 4 vertices after near clipping) ready to fill.
type triangle struct {
	points [][2]float64
	depth  float32
	color  [4]float32
	opaque bool
}

type clipVertex struct {
	pos [4]float32
}

// rasterize draws the scene into a new image without post-processing.
func (r *renderer) rasterize(ctx context.Context, sc scene.Scene, cam camera.Camera, width, height int) (*image.RGBA, error) {
	aspect := float32(width) / float32(height)
	vp := cam.ViewProjectionForAspect(aspect)
	frustum := common.ExtractFrustumFromMatrix(vp[:])

	var jobs []meshJob
	for _, n := range sc.MeshNodes() {
		if !scene.VisibleAndEnabled(n) {
			continue
		}
		mesh := n.Mesh()
		if mesh.TriangleCount() == 0 {
			continue
		}
		world := n.WorldMatrix()
		if !frustum.IntersectsBox(mesh.Bounds.Transform(world[:])) {
			continue
		}
		jobs = append(jobs, meshJob{mesh: mesh, world: world})
	}

	sh := shading{
		viewProj:    vp,
		lights:      sc.Lights(),
		environment: sc.Environment(),
		width:       float32(width),
		height:      float32(height),
	}

	var tris []triangle
	if len(jobs) > 0 {
		groups, err := r.transformAll(ctx, jobs, sh.triangles)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			tris = append(tris, g...)
		}
	}
	// painter's order
	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth > tris[j].depth })

	dc := gg.NewContext(width, height)
	defer dc.Close()

	bg := sc.ClearColor()
	dc.ClearWithColor(gg.RGBA2(float64(bg.R), float64(bg.G), float64(bg.B), float64(bg.A)))
	dc.SetFillRule(gg.FillRuleNonZero)
	dc.SetLineWidth(seamWidth)

	for i := range tris {
		t := &tris[i]
		dc.SetRGBA(float64(t.color[0]), float64(t.color[1]), float64(t.color[2]), float64(t.color[3]))
		dc.MoveTo(t.points[0][0], t.points[0][1])
		for _, p := range t.points[1:] {
			dc.LineTo(p[0], p[1])
		}
		dc.ClosePath()
		if t.opaque {
			if err := dc.FillPreserve(); err != nil {
				return nil, fmt.Errorf("failed to fill triangle: %w", err)
			}
			if err := dc.Stroke(); err != nil {
				return nil, fmt.Errorf("failed to stroke triangle: %w", err)
			}
			continue
		}
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("failed to fill triangle: %w", err)
		}
	}

	return toRGBA(dc.Image()), nil
}

// triangles transforms a mesh to screen space and shades each surviving face.
func (sh shading) triangles(job meshJob) []triangle {
	mesh := job.mesh
	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultSceneMaterial()
	}

	var mvp [16]float32
	common.Mul4(mvp[:], sh.viewProj[:], job.world[:])

	var normalMatrix [16]float32
	if !common.Invert4(normalMatrix[:], job.world[:]) {
		normalMatrix = job.world
	} else {
		transpose(&normalMatrix)
	}

	clip := make([][4]float32, len(mesh.Positions))
	for i, p := range mesh.Positions {
		clip[i] = common.TransformVec4(mvp[:], p)
	}

	mode := strings.ToUpper(mat.AlphaMode)
	out := make([]triangle, 0, mesh.TriangleCount())
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		idx := [3]uint32{mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]}

		poly := clipNear([]clipVertex{{clip[idx[0]]}, {clip[idx[1]]}, {clip[idx[2]]}})
		if len(poly) < 3 {
			continue
		}

		ndc := make([][2]float32, len(poly))
		var depth float32
		for k, v := range poly {
			ndc[k] = [2]float32{v.pos[0] / v.pos[3], v.pos[1] / v.pos[3]}
			depth += v.pos[3]
		}
		depth /= float32(len(poly))

		// counter-clockwise in NDC is front facing
		area := signedArea(ndc)
		backFacing := area <= 0
		if backFacing && !mat.DoubleSided {
			continue
		}

		color := sh.shade(mesh, mat, idx, &normalMatrix, backFacing)
		switch mode {
		case "MASK":
			if color[3] < mat.AlphaCutoff {
				continue
			}
			color[3] = 1
		case "BLEND":
		default:
			color[3] = 1
		}
		if color[3] <= 0 {
			continue
		}

		points := make([][2]float64, len(ndc))
		for k, p := range ndc {
			points[k] = [2]float64{
				float64((p[0]*0.5 + 0.5) * sh.width),
				float64((0.5 - p[1]*0.5) * sh.height),
			}
		}
		out = append(out, triangle{points: points, depth: depth, color: color, opaque: color[3] >= 1})
	}
	return out
}

// shade computes the flat color of one face: lights and environment ambient over the
// base color, vertex color and texture sampled at the face centroid, plus emission.
func (sh shading) shade(mesh *scene.Mesh, mat *scene.Material, idx [3]uint32, normalMatrix *[16]float32, backFacing bool) [4]float32 {
	var normal [3]float32
	if len(mesh.Normals) == len(mesh.Positions) {
		for _, v := range idx {
			normal = common.Add(normal, mesh.Normals[v])
		}
	} else {
		a, b, c := mesh.Positions[idx[0]], mesh.Positions[idx[1]], mesh.Positions[idx[2]]
		normal = common.Cross(common.Sub(b, a), common.Sub(c, a))
	}
	normal = common.Normalize(common.TransformDirection(normalMatrix[:], normal))
	if normal == ([3]float32{}) {
		normal = [3]float32{0, 1, 0}
	}
	if backFacing {
		normal = common.Scale(normal, -1)
	}

	base := mat.BaseColor
	if len(mesh.Colors) == len(mesh.Positions) {
		var vc [4]float32
		for _, v := range idx {
			for k := range vc {
				vc[k] += mesh.Colors[v][k] / 3
			}
		}
		for k := range base {
			base[k] *= vc[k]
		}
	}
	if mat.Texture != nil && len(mesh.TexCoords) == len(mesh.Positions) {
		var u, v float32
		for _, i := range idx {
			u += mesh.TexCoords[i][0] / 3
			v += mesh.TexCoords[i][1] / 3
		}
		texel := mat.Texture.Sample(u, v)
		for k := range base {
			base[k] *= texel[k]
		}
	}

	energy := sh.environment.Ambient(normal)
	for _, l := range sh.lights {
		energy = common.Add(energy, l.Contribution(normal))
	}

	return [4]float32{
		common.Clamp(base[0]*energy[0]+mat.Emissive[0], 0, 1),
		common.Clamp(base[1]*energy[1]+mat.Emissive[1], 0, 1),
		common.Clamp(base[2]*energy[2]+mat.Emissive[2], 0, 1),
		common.Clamp(base[3], 0, 1),
	}
}

// clipNear clips a polygon against the near plane (z >= 0 in clip space).
func clipNear(in []clipVertex) []clipVertex {
	inside := func(v clipVertex) bool { return v.pos[2] >= 0 }

	out := make([]clipVertex, 0, len(in)+1)
	for i := range in {
		cur, next := in[i], in[(i+1)%len(in)]
		curIn, nextIn := inside(cur), inside(next)
		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := cur.pos[2] / (cur.pos[2] - next.pos[2])
			var v clipVertex
			for k := range v.pos {
				v.pos[k] = cur.pos[k] + (next.pos[k]-cur.pos[k])*t
			}
			if v.pos[3] <= nearEpsilon {
				v.pos[3] = nearEpsilon
			}
			out = append(out, v)
		}
	}
	return out
}

// signedArea returns twice the signed area of a polygon; positive when counter-clockwise.
func signedArea(p [][2]float32) float32 {
	var a float32
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i][0]*p[j][1] - p[j][0]*p[i][1]
	}
	return a
}

func transpose(m *[16]float32) {
	for r := 0; r < 4; r++ {
		for c := r + 1; c < 4; c++ {
			m[r*4+c], m[c*4+r] = m[c*4+r], m[r*4+c]
		}
	}
}

// toRGBA returns img as *image.RGBA, copying only when it has another concrete type.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
