package timeutil

import (
	"math"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestTTToTAIAppliesFixedOffset(t *testing.T) {
	tt := Epoch{System: TT, SinceJ2000: 0}
	tai, err := TTToTAI(tt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tai.System, test.ShouldEqual, TAI)
	test.That(t, math.Abs(tai.Seconds()+32.184) < 1e-9, test.ShouldBeTrue)
}

func TestTTToTAIRejectsWrongSystem(t *testing.T) {
	_, err := TTToTAI(Epoch{System: TAI})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTAIToTTRoundTrips(t *testing.T) {
	tai := Epoch{System: TAI, SinceJ2000: time.Duration(1000 * float64(time.Second))}
	tt, err := TAIToTT(tai)
	test.That(t, err, test.ShouldBeNil)
	back, err := TTToTAI(tt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.Abs(back.Seconds()-tai.Seconds()) < 1e-9, test.ShouldBeTrue)
}

func TestTAIToTTRejectsWrongSystem(t *testing.T) {
	_, err := TAIToTT(Epoch{System: UTC})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTAIToUTCAppliesLeapSeconds(t *testing.T) {
	tai := Epoch{System: TAI, SinceJ2000: time.Duration(37 * float64(time.Second))}
	utc, err := TAIToUTC(tai, 37)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, utc.System, test.ShouldEqual, UTC)
	test.That(t, math.Abs(utc.Seconds()) < 1e-9, test.ShouldBeTrue)
}

func TestTAIToUTCRejectsWrongSystem(t *testing.T) {
	_, err := TAIToUTC(Epoch{System: TT}, 37)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUTCToTAIRoundTrips(t *testing.T) {
	utc := Epoch{System: UTC, SinceJ2000: time.Duration(500 * float64(time.Second))}
	tai, err := UTCToTAI(utc, 37)
	test.That(t, err, test.ShouldBeNil)
	back, err := TAIToUTC(tai, 37)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.Abs(back.Seconds()-utc.Seconds()) < 1e-9, test.ShouldBeTrue)
}

func TestUTCToTAIRejectsWrongSystem(t *testing.T) {
	_, err := UTCToTAI(Epoch{System: TAI}, 37)
	test.That(t, err, test.ShouldNotBeNil)
}
