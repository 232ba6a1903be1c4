package fit

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// covariance estimates the parameter covariance at v as
//
//	pinv(J^T J) * ssr / (n - p)
//
// where J is the Jacobian of the residual function f. The pseudo-inverse
// drops singular values below eps*max(n, p)*s_max. With n <= p, or when the
// decomposition fails, every entry is +Inf.
func covariance(
	f func(dst, v []float64),
	v []float64,
	n int,
	ssr float64,
) (
	*mat.Dense,
) {

	p := len(v)
	cov := mat.NewDense(p, p, nil)

	fill := func(x float64) *mat.Dense {
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				cov.Set(i, j, x)
			}
		}
		return cov
	}
	if n <= p {
		return fill(math.Inf(1))
	}

	jac := mat.NewDense(n, p, nil)
	fd.Jacobian(jac, f, v, &fd.JacobianSettings{Formula: fd.Central})

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		return fill(math.Inf(1))
	}
	s := svd.Values(nil)
	var right mat.Dense
	svd.VTo(&right)

	threshold := 2.220446049250313e-16 * float64(max(n, p)) * s[0]
	scale := ssr / float64(n-p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			var c float64
			for k, sk := range s {
				if sk <= threshold {
					continue
				}
				c += right.At(i, k) * right.At(j, k) / (sk * sk)
			}
			cov.Set(i, j, c*scale)
		}
	}
	return cov
}

// standardErrors returns the square roots of the covariance diagonal.
func standardErrors(f func(dst, v []float64), v []float64, n int, ssr float64) []float64 {
	cov := covariance(f, v, n, ssr)
	sd := make([]float64, len(v))
	for i := range sd {
		sd[i] = math.Sqrt(cov.At(i, i))
	}
	return sd
}
