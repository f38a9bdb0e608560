package models

import (
	"math"
	"time"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func DurationHours(start, end time.Time) float64 {
	return Round2(end.Sub(start).Seconds() / 3600)
}

// TotalAmount bills the rounded duration, as printed on the receipt.
func TotalAmount(start, end time.Time, rate float64) float64 {
	return Round2(DurationHours(start, end) * rate)
}

// EffectiveRate is the slot override when set, else the place rate.
// Place must be preloaded when the slot has no override.
func (s *ParkingSlot) EffectiveRate() float64 {
	if s.PricePerHour != nil {
		return *s.PricePerHour
	}
	if s.Place == nil {
		return 0
	}
	return s.Place.PricePerHour
}
