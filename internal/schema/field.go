package schema

// Field is a canonical, alias-resolved column name.
type Field string

const (
	DateKey Field = "date_key"

	// Market fields.
	FXRate      Field = "fx_rate"
	EquityPrice Field = "equity_price"
	CattlePrice Field = "cattle_price"

	// Climate fields.
	MaxTemp    Field = "max_temp"
	RainfallMM Field = "rainfall_mm"
	Location   Field = "location"
)

// Fields returns every canonical field for kind, date key first.
func Fields(k Kind) []Field {
	switch k {
	case Market:
		return []Field{DateKey, FXRate, EquityPrice, CattlePrice}
	case Climate:
		return []Field{DateKey, MaxTemp, RainfallMM, Location}
	}
	return nil
}

// NumericFields returns the decimal-valued fields of kind.
func NumericFields(k Kind) []Field {
	switch k {
	case Market:
		return []Field{FXRate, EquityPrice, CattlePrice}
	case Climate:
		return []Field{MaxTemp, RainfallMM}
	}
	return nil
}

// RequiredFields returns the fields that must be present in an input header
// after alias resolution. Market data is only meaningful with all three
// series side by side; climate readings may be partial.
func RequiredFields(k Kind) []Field {
	switch k {
	case Market:
		return []Field{DateKey, FXRate, EquityPrice, CattlePrice}
	case Climate:
		return []Field{DateKey}
	}
	return nil
}

// IsNumeric reports whether f carries a decimal value.
func IsNumeric(f Field) bool {
	switch f {
	case FXRate, EquityPrice, CattlePrice, MaxTemp, RainfallMM:
		return true
	}
	return false
}
