package entity

import "github.com/shopspring/decimal"

// CurvePoint is a (source amount, destination amount) coordinate.
type CurvePoint struct {
	SourceAmount      decimal.Decimal
	DestinationAmount decimal.Decimal
}

// Curve approximates the conversion function between two assets as a
// piecewise-linear set of amount points. The provider always emits two
// points: the origin and the spread-adjusted conversion of a probe amount.
type Curve struct {
	Points []CurvePoint
}
