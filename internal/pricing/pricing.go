// Package pricing turns hotel prices into the prices an agency displays.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

const DefaultRate = 0.10

var ErrInvalidRate = errors.New("discount rate must be in [0, 1)")

// Discount is the agency-wide markdown applied to displayed search prices.
type Discount struct {
	rate float64
}

func New(rate float64) (*Discount, error) {
	if math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("rate %v: %w", rate, ErrInvalidRate)
	}

	return &Discount{rate: rate}, nil
}

func (d *Discount) Rate() float64 {
	return d.rate
}

// Apply returns round(amount * (1 - rate)).
func (d *Discount) Apply(amount int) int {
	return int(math.Round(float64(amount) * (1 - d.rate)))
}

// Quote keeps the hotel price next to the displayed one. Final is always
// derived from Original.
type Quote struct {
	Original int     `json:"originalPrice"`
	Final    int     `json:"totalPrice"`
	Rate     float64 `json:"discountRate"`
}

func (d *Discount) Quote(original int) Quote {
	return Quote{
		Original: original,
		Final:    d.Apply(original),
		Rate:     d.rate,
	}
}
