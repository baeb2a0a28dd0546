package system

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nadir-dynamics/nadir/joint"
	"github.com/nadir-dynamics/nadir/nadirerr"
	"github.com/nadir-dynamics/nadir/spatial"
)

// identitySubspace returns the six standard basis motion vectors, used as
// the Floating joint's subspace since its S matrix is the full 6x6
// identity rather than a small set of fixed axes.
func identitySubspace() []spatial.MotionVector {
	vs := make([]spatial.MotionVector, 6)
	for i := range vs {
		vs[i][i] = 1
	}
	return vs
}

func subspaceOf(j *joint.Joint) []spatial.MotionVector {
	if s := j.Model.Subspace(); s != nil {
		return s
	}
	return identitySubspace()
}

// Derivative runs the three-pass articulated body algorithm and leaves the
// resulting joint accelerations in each Joint's Cache.Qdd. baseAcceleration
// is the spatial acceleration of the base frame itself (zero for a fixed
// base, or the base's own floating-joint acceleration folded in by the
// caller when the whole tree is attached to an inertial frame through a
// root Floating joint).
//
// Callers must have already called ReadState (to refresh joint transforms)
// and applied all external forces for this evaluation via Body.ApplyForce
// before calling Derivative.
func (s *System) Derivative(baseAcceleration spatial.MotionVector) error {
	// Pass 1: outward, base to tips. Velocities and bias forces.
	parentVelocity := make([]spatial.MotionVector, len(s.Bodies))
	for _, j := range s.Joints {
		var vInner spatial.MotionVector
		if j.InnerJointIndex != nil {
			vInner = parentVelocity[s.Joints[*j.InnerJointIndex].OuterBodyIndex]
		}
		vFromInner := j.Transforms.JOFFromIJJOF.ActOnMotion(vInner)
		j.Cache.V = vFromInner.Add(j.Cache.VJ)
		j.Cache.C = spatial.CrossMotion(j.Cache.V, j.Cache.VJ)
		parentVelocity[j.OuterBodyIndex] = j.Cache.V

		outerBody := s.Bodies[j.OuterBodyIndex]
		j.Cache.IA = outerBody.SpatialInertia()
		biasForce := spatial.CrossForce(j.Cache.V, j.Cache.IA.MulVec(j.Cache.V))
		j.Cache.PA = biasForce.Sub(outerBody.ExternalForce())
	}

	// Pass 2: inward, tips to base. Articulated inertia and bias force
	// propagation, one joint's contribution folded into its parent's.
	childOf := make(map[int][]*joint.Joint)
	for i, j := range s.Joints {
		if j.InnerJointIndex != nil {
			parent := s.Joints[*j.InnerJointIndex]
			childOf[parent.OuterBodyIndex] = append(childOf[parent.OuterBodyIndex], s.Joints[i])
		}
	}
	for i := len(s.Joints) - 1; i >= 0; i-- {
		j := s.Joints[i]
		subspace := subspaceOf(j)
		ndof := j.NDOF()

		for c := 0; c < ndof; c++ {
			j.Cache.U[c] = j.Cache.IA.MulVec(subspace[c])
		}
		for r := 0; r < ndof; r++ {
			for c := 0; c < ndof; c++ {
				j.Cache.D[r][c] = subspace[r].Dot(j.Cache.U[c])
			}
		}
		tau := j.CalculateTau()
		for r := 0; r < ndof; r++ {
			j.Cache.u[r] = tau[r] - subspace[r].Dot(j.Cache.PA)
		}

		dInv, err := invert(j.Cache.D)
		if err != nil {
			return nadirerr.NewNumericalError("system",
				fmt.Sprintf("joint %q: singular articulated inertia: %v", j.Name, err))
		}
		for r := range dInv {
			copy(j.Cache.DInv[r], dInv[r])
		}

		if j.InnerJointIndex == nil {
			continue // base joint: nothing to propagate onto
		}
		parent := s.Joints[*j.InnerJointIndex]

		// IA_parent_contribution = IA - U DInv U^T, expressed in the
		// parent joint's outer frame via the similarity transform.
		var uDInvUT spatial.Mat6
		for r := 0; r < 6; r++ {
			for c := 0; c < 6; c++ {
				var acc float64
				for a := 0; a < ndof; a++ {
					for b := 0; b < ndof; b++ {
						acc += j.Cache.U[a][r] * dInv[a][b] * j.Cache.U[b][c]
					}
				}
				uDInvUT[r][c] = acc
			}
		}
		reduced := j.Cache.IA.Sub(uDInvUT)

		x := j.Transforms.JOFFromIJJOF
		var xMat spatial.Mat6
		x.Matrix6(&xMat)
		propagatedIA := spatial.Congruence(xMat, reduced)
		parent.Cache.IA = parent.Cache.IA.Add(propagatedIA)

		// PA_parent_contribution = PA + IA*c + U DInv u
		biasFromC := j.Cache.IA.MulVec(j.Cache.C)
		var uDInvU spatial.ForceVector
		for r := 0; r < 6; r++ {
			var acc float64
			for a := 0; a < ndof; a++ {
				var ua float64
				for b := 0; b < ndof; b++ {
					ua += dInv[a][b] * j.Cache.u[b]
				}
				acc += j.Cache.U[a][r] * ua
			}
			uDInvU[r] = acc
		}
		pPrime := j.Cache.PA.Add(biasFromC).Add(uDInvU)
		propagatedPA := x.ActOnForceInverse(pPrime)
		parent.Cache.PA = parent.Cache.PA.Add(propagatedPA)
	}

	// Pass 3: outward again, base to tips. Resolve joint accelerations.
	parentAccel := make([]spatial.MotionVector, len(s.Bodies))
	parentAccel[0] = baseAcceleration
	for _, j := range s.Joints {
		var aInner spatial.MotionVector
		if j.InnerJointIndex != nil {
			aInner = parentAccel[s.Joints[*j.InnerJointIndex].OuterBodyIndex]
		} else {
			aInner = baseAcceleration
		}
		x := j.Transforms.JOFFromIJJOF
		aFromInner := x.ActOnMotion(aInner)
		aPrime := aFromInner.Add(j.Cache.C)

		subspace := subspaceOf(j)
		ndof := j.NDOF()
		uTAPrime := make([]float64, ndof)
		for r := 0; r < ndof; r++ {
			var acc float64
			for c := 0; c < 6; c++ {
				acc += j.Cache.U[r][c] * aPrime[c]
			}
			uTAPrime[r] = acc
		}
		qdd := make([]float64, ndof)
		for r := 0; r < ndof; r++ {
			var acc float64
			for c := 0; c < ndof; c++ {
				acc += j.Cache.DInv[r][c] * (j.Cache.u[c] - uTAPrime[c])
			}
			qdd[r] = acc
		}
		copy(j.Cache.Qdd, qdd)

		var sQdd spatial.MotionVector
		for i := 0; i < ndof; i++ {
			sQdd = sQdd.Add(subspace[i].Scale(qdd[i]))
		}
		j.Cache.A = aPrime.Add(sQdd)
		parentAccel[j.OuterBodyIndex] = j.Cache.A
	}
	return nil
}

// invert computes the inverse of the articulated-body D matrix (1x1 for a
// Revolute/Prismatic joint, 6x6 for a Floating joint) via Cholesky
// decomposition: D is the projection of the articulated spatial inertia
// onto the joint's motion subspace, symmetric positive-definite whenever
// the joint's inertia is physical, so Cholesky is both the cheaper and the
// more numerically stable factorization to invert it with. A failed
// factorization means the articulated inertia degenerated to singular,
// which only happens for a non-physical mass/inertia configuration.
func invert(m [][]float64) ([][]float64, error) {
	n := len(m)
	sym := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			sym.SetSym(r, c, m[r][c])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("matrix is not symmetric positive-definite")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, err
	}

	out := make([][]float64, n)
	for r := range out {
		out[r] = make([]float64, n)
		for c := range out[r] {
			out[r][c] = inv.At(r, c)
		}
	}
	return out, nil
}
