package massprops

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func unitBoxInertia() Inertia {
	return Inertia{Ixx: 1, Iyy: 1, Izz: 1}
}

func TestNewRejectsNonPositiveMass(t *testing.T) {
	_, err := New(0, r3.Vector{}, unitBoxInertia())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRejectsNonPositiveDefiniteInertia(t *testing.T) {
	_, err := New(1, r3.Vector{}, Inertia{Ixx: 1, Iyy: -1, Izz: 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewAcceptsValidInertia(t *testing.T) {
	mp, err := New(2, r3.Vector{X: 1}, unitBoxInertia())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Mass, test.ShouldEqual, 2.0)
}

func TestTranslatePreservesCenterOfMass(t *testing.T) {
	mp, err := New(1, r3.Vector{X: 1, Y: 2, Z: 3}, unitBoxInertia())
	test.That(t, err, test.ShouldBeNil)
	translated := mp.Translate(r3.Vector{X: 0.5, Y: 0, Z: 0})
	test.That(t, math.Abs(translated.CenterOfMass.X-mp.CenterOfMass.X) < 1e-12, test.ShouldBeTrue)
	test.That(t, math.Abs(translated.CenterOfMass.Y-mp.CenterOfMass.Y) < 1e-12, test.ShouldBeTrue)
	test.That(t, math.Abs(translated.CenterOfMass.Z-mp.CenterOfMass.Z) < 1e-12, test.ShouldBeTrue)
}

func TestTranslateAboutCenterOfMassIsNoOp(t *testing.T) {
	com := r3.Vector{X: 1, Y: -1, Z: 0.5}
	mp, err := New(3, com, Inertia{Ixx: 2, Iyy: 3, Izz: 4})
	test.That(t, err, test.ShouldBeNil)
	translated := mp.Translate(com)
	test.That(t, math.Abs(translated.Inertia.Ixx-mp.Inertia.Ixx) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(translated.Inertia.Iyy-mp.Inertia.Iyy) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(translated.Inertia.Izz-mp.Inertia.Izz) < 1e-9, test.ShouldBeTrue)
}

func TestSpatialInertiaAboutCenterOfMassIsBlockDiagonal(t *testing.T) {
	com := r3.Vector{X: 1, Y: 2, Z: 3}
	mp, err := New(5, com, Inertia{Ixx: 1, Iyy: 2, Izz: 3})
	test.That(t, err, test.ShouldBeNil)
	spi := mp.SpatialInertiaAbout(com)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, math.Abs(spi[i][j+3]) < 1e-9, test.ShouldBeTrue)
			test.That(t, math.Abs(spi[i+3][j]) < 1e-9, test.ShouldBeTrue)
		}
	}
	for i := 0; i < 3; i++ {
		test.That(t, math.Abs(spi[i+3][i+3]-5) < 1e-9, test.ShouldBeTrue)
	}
}

func TestInertiaMatrixRoundTrip(t *testing.T) {
	i := Inertia{Ixx: 1, Iyy: 2, Izz: 3, Ixy: 0.1, Ixz: 0.2, Iyz: 0.3}
	back := InertiaFromMatrix(i.Matrix())
	test.That(t, math.Abs(back.Ixx-i.Ixx) < 1e-12, test.ShouldBeTrue)
	test.That(t, math.Abs(back.Ixy-i.Ixy) < 1e-12, test.ShouldBeTrue)
	test.That(t, math.Abs(back.Iyz-i.Iyz) < 1e-12, test.ShouldBeTrue)
}
