// Package schema describes the two record kinds handled by the ingestion
// pipeline (market and climate), their canonical fields, the column alias
// tables used to resolve arbitrary CSV headers, and the date-keyed tables the
// cleaned records are written to.
package schema

import (
	"fmt"
	"strings"
)

// Kind selects which alias table, required-column contract and null policy
// apply to an import.
type Kind string

const (
	// Market is trading-day data: FX rate, equity price, cattle price.
	Market Kind = "market"
	// Climate is continuous daily data: temperature, rainfall, location.
	Climate Kind = "climate"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind { return []Kind{Market, Climate} }

// ParseKind resolves a user-supplied kind selector. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Market:
		return Market, nil
	case Climate:
		return Climate, nil
	}
	return "", fmt.Errorf("unknown kind %q (want %q or %q)", s, Market, Climate)
}

func (k Kind) String() string { return string(k) }
