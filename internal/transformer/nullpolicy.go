package transformer

import (
	"fmt"
	"strings"

	"agroetl/internal/schema"
	"agroetl/internal/transformer/builtin"
)

// NullPolicy decides what happens to null numeric values after field
// normalization.
type NullPolicy int

const (
	// policyUnset lets Clean pick PolicyFor(kind).
	policyUnset NullPolicy = iota
	// PreserveNull keeps input order and leaves nulls as they are.
	PreserveNull
	// ForwardFill sorts by date_key and lets each null numeric value inherit
	// the most recent non-null value of the same field.
	ForwardFill
)

// PolicyFor returns the null policy of kind: market series skip
// non-trading days and are forward-filled; climate readings are not.
func PolicyFor(k schema.Kind) NullPolicy {
	if k == schema.Market {
		return ForwardFill
	}
	return PreserveNull
}

// ParsePolicy accepts "forward_fill"/"ffill" and "preserve_null"/"preserve".
func ParsePolicy(s string) (NullPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward_fill", "forward-fill", "ffill":
		return ForwardFill, nil
	case "preserve_null", "preserve-null", "preserve":
		return PreserveNull, nil
	}
	return policyUnset, fmt.Errorf("unknown null policy %q", s)
}

func (p NullPolicy) String() string {
	switch p {
	case ForwardFill:
		return "forward_fill"
	case PreserveNull:
		return "preserve_null"
	}
	return fmt.Sprintf("NullPolicy(%d)", int(p))
}

// chain returns the record steps implementing p for the given fields.
func (p NullPolicy) chain(fields []schema.Field) Chain {
	if p == ForwardFill {
		return Chain{builtin.SortByDate{}, builtin.ForwardFill{Fields: fields}}
	}
	return nil
}
