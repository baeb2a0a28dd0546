// Package timeutil provides the thin time-system surface the engine needs
// to label simulation epochs: conversions between Terrestrial Time (TT),
// International Atomic Time (TAI), and Coordinated Universal Time (UTC).
// It deliberately does not bundle a leap-second table: UTC<->TAI requires
// the current leap second count, which the caller must supply (from a
// standard IERS bulletin source), since hardcoding one would silently go
// stale.
package timeutil

import (
	"time"

	"github.com/nadir-dynamics/nadir/nadirerr"
)

// System names a time system.
type System int

const (
	TT System = iota
	TAI
	UTC
)

// ttMinusTAI is the fixed, never-changing offset between TT and TAI,
// defined by international agreement (TT = TAI + 32.184s exactly).
const ttMinusTAI = 32.184 * float64(time.Second)

// Epoch is an instant expressed in a specific time system, stored as a
// duration since the J2000 epoch (2000-01-01T12:00:00 TT).
type Epoch struct {
	System  System
	SinceJ2000 time.Duration
}

// TTToTAI converts a TT epoch to TAI.
func TTToTAI(e Epoch) (Epoch, error) {
	if e.System != TT {
		return Epoch{}, nadirerr.NewTopologyError("timeutil", "TTToTAI requires a TT epoch")
	}
	return Epoch{System: TAI, SinceJ2000: e.SinceJ2000 - time.Duration(ttMinusTAI)}, nil
}

// TAIToTT converts a TAI epoch to TT.
func TAIToTT(e Epoch) (Epoch, error) {
	if e.System != TAI {
		return Epoch{}, nadirerr.NewTopologyError("timeutil", "TAIToTT requires a TAI epoch")
	}
	return Epoch{System: TT, SinceJ2000: e.SinceJ2000 + time.Duration(ttMinusTAI)}, nil
}

// TAIToUTC converts a TAI epoch to UTC given the current TAI-UTC leap
// second offset (as of the epoch in question); the caller is responsible
// for sourcing leapSeconds from an up-to-date table.
func TAIToUTC(e Epoch, leapSeconds float64) (Epoch, error) {
	if e.System != TAI {
		return Epoch{}, nadirerr.NewTopologyError("timeutil", "TAIToUTC requires a TAI epoch")
	}
	return Epoch{System: UTC, SinceJ2000: e.SinceJ2000 - time.Duration(leapSeconds*float64(time.Second))}, nil
}

// UTCToTAI converts a UTC epoch to TAI given the current TAI-UTC leap
// second offset.
func UTCToTAI(e Epoch, leapSeconds float64) (Epoch, error) {
	if e.System != UTC {
		return Epoch{}, nadirerr.NewTopologyError("timeutil", "UTCToTAI requires a UTC epoch")
	}
	return Epoch{System: TAI, SinceJ2000: e.SinceJ2000 + time.Duration(leapSeconds*float64(time.Second))}, nil
}

// Seconds returns the epoch's offset from J2000 in seconds.
func (e Epoch) Seconds() float64 { return e.SinceJ2000.Seconds() }
