package geom

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

// Default tessellation resolution for curved surfaces.
const (
	cylinderSegments = 32
	sphereStacks     = 16
	sphereSlices     = 32
)

// Triangle is a single mesh facet.
type Triangle [3]Vec3

// Normal returns the facet normal, or the zero vector for a degenerate facet.
func (t Triangle) Normal() Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.Norm() == 0 {
		return Vec3{}
	}
	return n.Normalized()
}

// Mesh is a triangle soup produced by tessellating a shape.
type Mesh struct {
	Triangles []Triangle
}

// Add appends a facet.
func (m *Mesh) Add(t Triangle) {
	m.Triangles = append(m.Triangles, t)
}

// Merge appends all facets of o into m.
func (m *Mesh) Merge(o *Mesh) {
	m.Triangles = append(m.Triangles, o.Triangles...)
}

// Len returns the facet count.
func (m *Mesh) Len() int {
	return len(m.Triangles)
}

// Transform returns a copy of m with every vertex mapped through p.
func (m *Mesh) Transform(p Placement) *Mesh {
	out := &Mesh{Triangles: make([]Triangle, len(m.Triangles))}
	for i, t := range m.Triangles {
		out.Triangles[i] = Triangle{p.Transform(t[0]), p.Transform(t[1]), p.Transform(t[2])}
	}
	return out
}

// BoxMesh tessellates an axis-aligned box with one corner at the origin.
// Length extends along X, width along Y, height along Z.
func BoxMesh(length, width, height float64) *Mesh {
	l, w, h := length, width, height
	v := [8]Vec3{
		{0, 0, 0}, {l, 0, 0}, {l, w, 0}, {0, w, 0},
		{0, 0, h}, {l, 0, h}, {l, w, h}, {0, w, h},
	}
	// Two triangles per face, wound outward.
	quads := [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{2, 3, 7, 6}, // back
		{1, 2, 6, 5}, // right
		{3, 0, 4, 7}, // left
	}
	m := &Mesh{}
	for _, q := range quads {
		m.Add(Triangle{v[q[0]], v[q[1]], v[q[2]]})
		m.Add(Triangle{v[q[0]], v[q[2]], v[q[3]]})
	}
	return m
}

// CylinderMesh tessellates a cylinder of the given radius and height, base
// centered at the origin, axis along +Z.
func CylinderMesh(radius, height float64) *Mesh {
	m := &Mesh{}
	bottom := Vec3{}
	top := Vec3{Z: height}
	for i := 0; i < cylinderSegments; i++ {
		a0 := 2 * math.Pi * float64(i) / cylinderSegments
		a1 := 2 * math.Pi * float64(i+1) / cylinderSegments
		b0 := Vec3{X: radius * math.Cos(a0), Y: radius * math.Sin(a0)}
		b1 := Vec3{X: radius * math.Cos(a1), Y: radius * math.Sin(a1)}
		t0 := Vec3{X: b0.X, Y: b0.Y, Z: height}
		t1 := Vec3{X: b1.X, Y: b1.Y, Z: height}

		m.Add(Triangle{bottom, b1, b0}) // bottom cap
		m.Add(Triangle{top, t0, t1})    // top cap
		m.Add(Triangle{b0, b1, t1})
		m.Add(Triangle{b0, t1, t0})
	}
	return m
}

// SphereMesh tessellates a sphere of the given radius centered at the origin.
func SphereMesh(radius float64) *Mesh {
	m := &Mesh{}
	point := func(stack, slice int) Vec3 {
		phi := math.Pi * float64(stack) / sphereStacks // 0..pi from +Z pole
		theta := 2 * math.Pi * float64(slice) / sphereSlices
		return Vec3{
			X: radius * math.Sin(phi) * math.Cos(theta),
			Y: radius * math.Sin(phi) * math.Sin(theta),
			Z: radius * math.Cos(phi),
		}
	}
	for stack := 0; stack < sphereStacks; stack++ {
		for slice := 0; slice < sphereSlices; slice++ {
			p00 := point(stack, slice)
			p01 := point(stack, slice+1)
			p10 := point(stack+1, slice)
			p11 := point(stack+1, slice+1)
			if stack != 0 {
				m.Add(Triangle{p00, p10, p11})
			}
			if stack != sphereStacks-1 {
				m.Add(Triangle{p00, p11, p01})
			}
		}
	}
	return m
}

// WriteSTL writes the mesh as ASCII STL under the given solid name.
func (m *Mesh) WriteSTL(w io.Writer, name string) error {
	if _, err := fmt.Fprintf(w, "solid %s\n", name); err != nil {
		return err
	}
	for _, t := range m.Triangles {
		n := t.Normal()
		if _, err := fmt.Fprintf(w, "  facet normal %e %e %e\n    outer loop\n", n.X, n.Y, n.Z); err != nil {
			return err
		}
		for _, v := range t {
			if _, err := fmt.Fprintf(w, "      vertex %e %e %e\n", v.X, v.Y, v.Z); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "    endloop\n  endfacet\n"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "endsolid %s\n", name); err != nil {
		return err
	}
	return nil
}

// WriteFile writes the mesh to filepath as ASCII STL.
func (m *Mesh) WriteFile(filepath, name string) error {
	f, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := m.WriteSTL(w, name); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write STL data: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush STL data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close STL file: %w", err)
	}
	return nil
}
