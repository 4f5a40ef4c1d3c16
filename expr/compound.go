package expr

import "fmt"

// Compound builders construct determinant, inverse and cross-product
// expressions from small matrices component by component. Finite element
// cells do not exceed dimension 3, so square sizes 1x1 through 3x3 are
// supported; tall matrices (manifold Jacobians) use the pseudo-determinant
// sqrt(det(A^T A)) and the left pseudo-inverse (A^T A)^-1 A^T.

// DeterminantExpr returns the (pseudo-)determinant of a scalar or matrix
// expression.
func DeterminantExpr(a *Node) *Node {
	sh := a.Shape()
	if sh.Rank() == 0 {
		return a
	}
	if sh.Rank() != 2 {
		panic(fmt.Sprintf("determinant of shape %s", sh))
	}
	m, n := sh[0], sh[1]
	c := func(r, s int) *Node { return At(a, FixedIdx(r), FixedIdx(s)) }
	if m == n {
		switch m {
		case 1:
			return c(0, 0)
		case 2:
			return Sub(Mul(c(0, 0), c(1, 1)), Mul(c(0, 1), c(1, 0)))
		case 3:
			return Add(
				Sub(
					Mul(c(0, 0), Sub(Mul(c(1, 1), c(2, 2)), Mul(c(1, 2), c(2, 1)))),
					Mul(c(0, 1), Sub(Mul(c(1, 0), c(2, 2)), Mul(c(1, 2), c(2, 0)))),
				),
				Mul(c(0, 2), Sub(Mul(c(1, 0), c(2, 1)), Mul(c(1, 1), c(2, 0)))),
			)
		}
		panic(fmt.Sprintf("determinant of %dx%d matrix", m, n))
	}
	if m < n {
		panic(fmt.Sprintf("pseudo-determinant of wide %dx%d matrix", m, n))
	}
	return SqrtValue(DeterminantExpr(gram(a)))
}

// gram returns A^T A for a tall matrix A, a square matrix of the column
// dimension.
func gram(a *Node) *Node {
	idx := NewIndices(3)
	i, j, k := idx[0], idx[1], idx[2]
	return AsTensor(
		Mul(At(a, FreeIdx(k), FreeIdx(i)), At(a, FreeIdx(k), FreeIdx(j))),
		i, j)
}

// InverseExpr returns the (pseudo-)inverse of a scalar or matrix expression.
// The inverse of an (m,n) matrix has shape (n,m).
func InverseExpr(a *Node) *Node {
	sh := a.Shape()
	if sh.Rank() == 0 {
		return Div(Scalar(1), a)
	}
	if sh.Rank() != 2 {
		panic(fmt.Sprintf("inverse of shape %s", sh))
	}
	m, n := sh[0], sh[1]
	c := func(r, s int) *Node { return At(a, FixedIdx(r), FixedIdx(s)) }
	if m == n {
		switch m {
		case 1:
			return AsMatrix([][]*Node{{Div(Scalar(1), c(0, 0))}})
		case 2:
			det := DeterminantExpr(a)
			return AsMatrix([][]*Node{
				{Div(c(1, 1), det), Div(Neg(c(0, 1)), det)},
				{Div(Neg(c(1, 0)), det), Div(c(0, 0), det)},
			})
		case 3:
			det := DeterminantExpr(a)
			cof := func(r0, r1, s0, s1 int) *Node {
				return Sub(Mul(c(r0, s0), c(r1, s1)), Mul(c(r0, s1), c(r1, s0)))
			}
			// Adjugate: transposed cofactors
			return AsMatrix([][]*Node{
				{Div(cof(1, 2, 1, 2), det), Div(Neg(cof(0, 2, 1, 2)), det), Div(cof(0, 1, 1, 2), det)},
				{Div(Neg(cof(1, 2, 0, 2)), det), Div(cof(0, 2, 0, 2), det), Div(Neg(cof(0, 1, 0, 2)), det)},
				{Div(cof(1, 2, 0, 1), det), Div(Neg(cof(0, 2, 0, 1)), det), Div(cof(0, 1, 0, 1), det)},
			})
		}
		panic(fmt.Sprintf("inverse of %dx%d matrix", m, n))
	}
	if m < n {
		panic(fmt.Sprintf("pseudo-inverse of wide %dx%d matrix", m, n))
	}
	// Left pseudo-inverse (A^T A)^-1 A^T, shape (n, m)
	inv := InverseExpr(gram(a))
	idx := NewIndices(3)
	i, j, k := idx[0], idx[1], idx[2]
	return AsTensor(
		Mul(At(inv, FreeIdx(i), FreeIdx(k)), At(a, FreeIdx(j), FreeIdx(k))),
		i, j)
}

// CrossExpr returns the cross product of two 3-vector expressions.
func CrossExpr(a, b *Node) *Node {
	if !a.Shape().Equal(Shape{3}) || !b.Shape().Equal(Shape{3}) {
		panic(fmt.Sprintf("cross product of shapes %s and %s", a.Shape(), b.Shape()))
	}
	ac := func(i int) *Node { return At(a, FixedIdx(i)) }
	bc := func(i int) *Node { return At(b, FixedIdx(i)) }
	return AsVector(
		Sub(Mul(ac(1), bc(2)), Mul(ac(2), bc(1))),
		Sub(Mul(ac(2), bc(0)), Mul(ac(0), bc(2))),
		Sub(Mul(ac(0), bc(1)), Mul(ac(1), bc(0))),
	)
}
