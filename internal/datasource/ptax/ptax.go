// Package ptax fetches the Banco Central do Brasil PTAX dollar rate through
// the Olinda OData service.
package ptax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"agroetl/internal/datasource/httpds"
	"agroetl/internal/schema"
	"agroetl/pkg/records"
)

// DefaultBaseURL is the OData service root.
const DefaultBaseURL = "https://olinda.bcb.gov.br/olinda/servico/PTAX/versao/v1/odata"

// odataDate is the MM-DD-YYYY form the service expects.
const odataDate = "01-02-2006"

// Source fetches buy-side PTAX quotes for a date window ending today.
type Source struct {
	HTTP     *httpds.Client
	BaseURL  string
	PastDays int

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

type quote struct {
	CotacaoCompra   json.Number `json:"cotacaoCompra"`
	DataHoraCotacao string      `json:"dataHoraCotacao"`
}

func (s *Source) Name() string { return "ptax" }

// URL returns the CotacaoDolarPeriodo request for [from, to].
func (s *Source) URL(from, to time.Time) string {
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("@dataInicial", "'"+from.Format(odataDate)+"'")
	q.Set("@dataFinalCotacao", "'"+to.Format(odataDate)+"'")
	q.Set("$format", "json")
	q.Set("$select", "cotacaoCompra,dataHoraCotacao")
	q.Set("$orderby", "dataHoraCotacao")
	q.Set("$top", "10000")
	return base + "/CotacaoDolarPeriodo(dataInicial=@dataInicial,dataFinalCotacao=@dataFinalCotacao)?" + q.Encode()
}

// Fetch returns a table with columns date_key and fx_rate. When the service
// publishes several bulletins on one day the last one wins.
func (s *Source) Fetch(ctx context.Context) (records.Table, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	to := now()
	days := s.PastDays
	if days <= 0 {
		days = 7
	}
	from := to.AddDate(0, 0, -days)

	body, err := s.HTTP.GetBytes(ctx, s.URL(from, to), nil, 0)
	if err != nil {
		return records.Table{}, fmt.Errorf("ptax: %w", err)
	}
	var payload struct {
		Value []quote `json:"value"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return records.Table{}, fmt.Errorf("ptax: decode: %w", err)
	}

	t := records.NewTable(string(schema.DateKey), string(schema.FXRate))
	index := make(map[string]int, len(payload.Value))
	for _, q := range payload.Value {
		day, _, _ := strings.Cut(strings.TrimSpace(q.DataHoraCotacao), " ")
		if day == "" || q.CotacaoCompra == "" {
			continue
		}
		if i, ok := index[day]; ok {
			t.Rows[i][1] = q.CotacaoCompra
			continue
		}
		index[day] = t.Len()
		if err := t.Append(day, q.CotacaoCompra); err != nil {
			return records.Table{}, err
		}
	}
	return t, nil
}
