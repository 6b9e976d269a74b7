// internal/models/money.go
package models

// Money is an amount in currency minor units (e.g. cents). All financial
// arithmetic in the engine runs on minor-unit integers so that schedule
// invariants hold exactly, with no float drift.
type Money int64

// MinorUnitsPerUnit is the number of minor units in one whole currency unit.
const MinorUnitsPerUnit = 100

// FromUnits converts a whole-unit amount to Money.
func FromUnits(units int64) Money {
	return Money(units * MinorUnitsPerUnit)
}

// Units returns the amount in whole currency units, truncated.
func (m Money) Units() int64 {
	return int64(m) / MinorUnitsPerUnit
}
