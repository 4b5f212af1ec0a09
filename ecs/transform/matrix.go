package transform

import "math"

// Matrix is a 2D affine transform:
//
//	x' = A*x + C*y + Tx
//	y' = B*x + D*y + Ty
type Matrix struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// Translate returns a translation by (x, y).
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, D: 1, Tx: x, Ty: y}
}

// Scale returns a scale by (sx, sy).
func Scale(sx, sy float64) Matrix {
	return Matrix{A: sx, D: sy}
}

// Rotate returns a counter-clockwise rotation by theta radians.
func Rotate(theta float64) Matrix {
	sin, cos := math.Sincos(theta)
	return Matrix{A: cos, B: sin, C: -sin, D: cos}
}

// Mul returns m composed with n: the result applies n first, then m.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A:  m.A*n.A + m.C*n.B,
		B:  m.B*n.A + m.D*n.B,
		C:  m.A*n.C + m.C*n.D,
		D:  m.B*n.C + m.D*n.D,
		Tx: m.A*n.Tx + m.C*n.Ty + m.Tx,
		Ty: m.B*n.Tx + m.D*n.Ty + m.Ty,
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.Tx, m.B*x + m.D*y + m.Ty
}

// IsZero reports whether m is the zero matrix, which is what a Transform's
// World holds before it has been propagated once.
func (m Matrix) IsZero() bool {
	return m == Matrix{}
}

// ApproxEqual reports whether every element of m and n differs by at most eps.
func (m Matrix) ApproxEqual(n Matrix, eps float64) bool {
	return math.Abs(m.A-n.A) <= eps && math.Abs(m.B-n.B) <= eps &&
		math.Abs(m.C-n.C) <= eps && math.Abs(m.D-n.D) <= eps &&
		math.Abs(m.Tx-n.Tx) <= eps && math.Abs(m.Ty-n.Ty) <= eps
}
