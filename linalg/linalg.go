// Package linalg is a small dense linear algebra layer over gonum. Matrices are passed as row-major
// float64 slices together with their dimensions, and every routine reports failure through one of the
// sentinel errors below instead of returning a silently wrong answer.
package linalg

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInput is returned when dimensions are non-positive or an input slice is too short.
	ErrInput = errors.New("invalid linear algebra input")
	// ErrWorkspaceTooSmall is returned when an output slice cannot hold the result.
	ErrWorkspaceTooSmall = errors.New("output workspace too small")
	// ErrFailedToConverge is returned when an iterative factorization does not converge.
	ErrFailedToConverge = errors.New("factorization failed to converge")
	// ErrSingular is returned when a square system has no unique solution.
	ErrSingular = errors.New("matrix is singular")
	// ErrNotPositiveDefinite is returned when a Cholesky factorization fails.
	ErrNotPositiveDefinite = errors.New("matrix is not positive definite")
)

func checkInput(rows, cols int, in ...[]float64) error {
	if rows <= 0 || cols <= 0 {
		return errors.Wrapf(ErrInput, "dimensions %dx%d", rows, cols)
	}
	if len(in) > 0 && len(in[0]) < rows*cols {
		return errors.Wrapf(ErrInput, "matrix has %d elements, need %d", len(in[0]), rows*cols)
	}
	return nil
}

func checkOutput(out []float64, need int) error {
	if len(out) < need {
		return errors.Wrapf(ErrWorkspaceTooSmall, "have %d elements, need %d", len(out), need)
	}
	return nil
}

// Solve solves the n by n system a*x = b by LU decomposition with partial pivoting.
func Solve(n int, a, b, x []float64) error {
	if err := checkInput(n, n, a); err != nil {
		return err
	}
	if len(b) < n {
		return errors.Wrapf(ErrInput, "right hand side has %d elements, need %d", len(b), n)
	}
	if err := checkOutput(x, n); err != nil {
		return err
	}
	var lu mat.LU
	lu.Factorize(mat.NewDense(n, n, copyOf(a[:n*n])))
	if math.IsInf(lu.Cond(), 1) {
		return ErrSingular
	}
	dst := mat.NewVecDense(n, x[:n])
	if err := lu.SolveVecTo(dst, false, mat.NewVecDense(n, copyOf(b[:n]))); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return errors.Wrapf(ErrSingular, "condition number %g", float64(cond))
		}
		return errors.Wrap(ErrSingular, err.Error())
	}
	return nil
}

// PseudoInverse writes the n by m Moore-Penrose pseudoinverse of the m by n matrix a into pinv.
// Singular values below eps*max(m,n)*sigma_max are treated as zero.
func PseudoInverse(m, n int, a, pinv []float64) error {
	if err := checkInput(m, n, a); err != nil {
		return err
	}
	if err := checkOutput(pinv, m*n); err != nil {
		return err
	}
	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(m, n, copyOf(a[:m*n])), mat.SVDThin); !ok {
		return ErrFailedToConverge
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.
	if len(values) > 0 {
		tol = eps * float64(max(m, n)) * values[0]
	}
	for i := range pinv[:m*n] {
		pinv[i] = 0
	}
	for k, s := range values {
		if s <= tol {
			continue
		}
		inv := 1 / s
		for r := 0; r < n; r++ {
			vr := v.At(r, k) * inv
			if vr == 0 {
				continue
			}
			for c := 0; c < m; c++ {
				pinv[r*m+c] += vr * u.At(c, k)
			}
		}
	}
	return nil
}

// LeastSquares writes into x the minimum norm solution of the possibly rank deficient m by n
// system a*x = b.
func LeastSquares(m, n int, a, b, x []float64) error {
	if err := checkInput(m, n, a); err != nil {
		return err
	}
	if len(b) < m {
		return errors.Wrapf(ErrInput, "right hand side has %d elements, need %d", len(b), m)
	}
	if err := checkOutput(x, n); err != nil {
		return err
	}
	pinv := make([]float64, m*n)
	if err := PseudoInverse(m, n, a, pinv); err != nil {
		return err
	}
	for r := 0; r < n; r++ {
		sum := 0.
		for c := 0; c < m; c++ {
			sum += pinv[r*m+c] * b[c]
		}
		x[r] = sum
	}
	return nil
}

// CheckPositiveDefinite returns ErrNotPositiveDefinite unless the symmetric n by n matrix a admits a
// Cholesky factorization. Only the upper triangle of a is read.
func CheckPositiveDefinite(n int, a []float64) error {
	if err := checkInput(n, n, a); err != nil {
		return err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(n, copyOf(a[:n*n]))); !ok {
		return ErrNotPositiveDefinite
	}
	return nil
}

// SymmetricEigen computes the eigen decomposition of the symmetric n by n matrix a. Eigenvalues are
// written to values in ascending order and the matching unit eigenvectors to the columns of the
// row-major n by n matrix vectors.
func SymmetricEigen(n int, a, values, vectors []float64) error {
	if err := checkInput(n, n, a); err != nil {
		return err
	}
	if err := checkOutput(values, n); err != nil {
		return err
	}
	if err := checkOutput(vectors, n*n); err != nil {
		return err
	}
	for _, v := range a[:n*n] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrap(ErrInput, "matrix has non-finite elements")
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(n, copyOf(a[:n*n])), true); !ok {
		return ErrFailedToConverge
	}
	es.Values(values[:n])
	var ev mat.Dense
	es.VectorsTo(&ev)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			vectors[r*n+c] = ev.At(r, c)
		}
	}
	return nil
}

const eps = 2.220446049250313e-16

// gonum takes ownership of backing slices, so callers' data is copied first.
func copyOf(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
