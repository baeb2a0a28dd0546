package ode

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func sumFloats(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func checkRowSumsMatchC(t *testing.T, tab ButcherTableau) {
	for i, row := range tab.A {
		test.That(t, math.Abs(sumFloats(row)-tab.C[i]) < 1e-8, test.ShouldBeTrue)
	}
}

func TestRK4RowSumsMatchNodes(t *testing.T) {
	checkRowSumsMatchC(t, RK4)
	test.That(t, math.Abs(sumFloats(RK4.B)-1) < 1e-12, test.ShouldBeTrue)
	test.That(t, RK4.Embedded(), test.ShouldBeFalse)
	test.That(t, RK4.Stages(), test.ShouldEqual, 4)
}

func TestDormandPrince45RowSumsMatchNodes(t *testing.T) {
	checkRowSumsMatchC(t, DormandPrince45)
	test.That(t, math.Abs(sumFloats(DormandPrince45.B)-1) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(sumFloats(DormandPrince45.BStar)-1) < 1e-9, test.ShouldBeTrue)
	test.That(t, DormandPrince45.Embedded(), test.ShouldBeTrue)
}

func TestTsitouras54RowSumsMatchNodes(t *testing.T) {
	checkRowSumsMatchC(t, Tsitouras54)
	test.That(t, math.Abs(sumFloats(Tsitouras54.B)-1) < 1e-9, test.ShouldBeTrue)
	test.That(t, Tsitouras54.Embedded(), test.ShouldBeTrue)
}

func TestVerner6WeightsSumToOne(t *testing.T) {
	test.That(t, math.Abs(sumFloats(Verner6.B)-1) < 1e-9, test.ShouldBeTrue)
	test.That(t, Verner6.Embedded(), test.ShouldBeFalse)
}

func TestVerner9WeightsSumToOne(t *testing.T) {
	test.That(t, math.Abs(sumFloats(Verner9.B)-1) < 1e-6, test.ShouldBeTrue)
	test.That(t, Verner9.Stages(), test.ShouldEqual, 16)
}
