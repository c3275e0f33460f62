package schema

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// aliases maps folded header names to canonical fields, per kind. Canonical
// names resolve to themselves and are not listed here.
var aliases = map[Kind]map[string]Field{
	Market: {
		"date":            DateKey,
		"data":            DateKey,
		"data_fk":         DateKey,
		"dolar":           FXRate,
		"valor_dolar":     FXRate,
		"usd":             FXRate,
		"usd_brl":         FXRate,
		"ptax":            FXRate,
		"jbs":             EquityPrice,
		"valor_jbs":       EquityPrice,
		"jbss3":           EquityPrice,
		"boi":             CattlePrice,
		"boi_gordo":       CattlePrice,
		"valor_boi_gordo": CattlePrice,
	},
	Climate: {
		"date":            DateKey,
		"data":            DateKey,
		"data_fk":         DateKey,
		"temp":            MaxTemp,
		"temp_max":        MaxTemp,
		"temperatura_max": MaxTemp,
		"chuva":           RainfallMM,
		"chuva_mm":        RainfallMM,
		"precipitacao":    RainfallMM,
		"local":           Location,
		"cidade":          Location,
		"localizacao":     Location,
	},
}

// Mapping is the resolved header of one input table.
type Mapping struct {
	Kind Kind

	// ByColumn maps an original header (as given) to its canonical field.
	// Headers that did not resolve are absent.
	ByColumn map[string]Field

	// Index maps a canonical field to the column position it is read from.
	Index map[Field]int
}

// Has reports whether f was resolved from some input column.
func (m Mapping) Has(f Field) bool {
	_, ok := m.Index[f]
	return ok
}

// MissingColumnsError reports required canonical fields that no input column
// resolved to.
type MissingColumnsError struct {
	Kind    Kind
	Missing []Field
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing columns: %s", e.list())
}

func (e *MissingColumnsError) list() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Resolve returns the canonical field for a single header name under kind.
func Resolve(k Kind, column string) (Field, bool) {
	name := FoldName(column)
	if f, ok := aliases[k][name]; ok {
		return f, true
	}
	for _, f := range Fields(k) {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// MapColumns resolves every input column through the alias table of kind and
// checks the required-column contract. Unresolved columns are ignored. When
// two columns resolve to the same field the first one wins.
//
// On a contract violation the partial Mapping is returned together with a
// *MissingColumnsError.
func MapColumns(k Kind, columns []string) (Mapping, error) {
	m := Mapping{
		Kind:     k,
		ByColumn: make(map[string]Field, len(columns)),
		Index:    make(map[Field]int, len(columns)),
	}
	if _, ok := aliases[k]; !ok {
		return m, fmt.Errorf("schema: unsupported kind %q", k)
	}
	for i, col := range columns {
		f, ok := Resolve(k, col)
		if !ok {
			continue
		}
		if _, dup := m.Index[f]; dup {
			continue
		}
		m.ByColumn[col] = f
		m.Index[f] = i
	}

	var missing []Field
	for _, f := range RequiredFields(k) {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return m, &MissingColumnsError{Kind: k, Missing: missing}
	}
	return m, nil
}

// FoldName converts a raw header into the key used for alias lookup:
//  1. trim, strip a UTF-8 BOM, lowercase
//  2. strip accents (NFD → remove Mn → NFC), so "Precipitação" → "precipitacao"
//  3. spaces, dashes and dots become a single underscore
func FoldName(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")
	s = strings.ToLower(s)

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '_':
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		default:
			b.WriteRune(r)
			prevUnderscore = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
