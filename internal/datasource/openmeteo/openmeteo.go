// Package openmeteo fetches daily maximum temperature and precipitation from
// the Open-Meteo forecast API, which needs no API key.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"agroetl/internal/datasource/httpds"
	"agroetl/internal/schema"
	"agroetl/pkg/records"
)

// DefaultBaseURL is the public forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Source fetches one coordinate.
type Source struct {
	HTTP      *httpds.Client
	BaseURL   string
	Latitude  float64
	Longitude float64

	// Location labels every row; it is what lands in the location column.
	Location string
	Timezone string

	// PastDays includes that many days before today (the API caps it at 92).
	PastDays int
}

type response struct {
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func (s *Source) Name() string { return "open-meteo" }

// URL returns the request URL.
func (s *Source) URL() string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	tz := s.Timezone
	if tz == "" {
		tz = "America/Sao_Paulo"
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(s.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(s.Longitude, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,precipitation_sum")
	q.Set("timezone", tz)
	q.Set("past_days", strconv.Itoa(s.PastDays))
	q.Set("forecast_days", "1")
	return base + "?" + q.Encode()
}

// Fetch returns a climate table with columns date_key, max_temp,
// rainfall_mm and location. Missing readings are nil cells.
func (s *Source) Fetch(ctx context.Context) (records.Table, error) {
	body, err := s.HTTP.GetBytes(ctx, s.URL(), nil, 0)
	if err != nil {
		return records.Table{}, fmt.Errorf("open-meteo: %w", err)
	}
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return records.Table{}, fmt.Errorf("open-meteo: decode: %w", err)
	}
	if r.Error {
		return records.Table{}, fmt.Errorf("open-meteo: %s", r.Reason)
	}

	t := records.NewTable(string(schema.DateKey), string(schema.MaxTemp), string(schema.RainfallMM), string(schema.Location))
	for i, day := range r.Daily.Time {
		var loc any
		if s.Location != "" {
			loc = s.Location
		}
		if err := t.Append(day, reading(r.Daily.TemperatureMax, i), reading(r.Daily.PrecipitationSum, i), loc); err != nil {
			return records.Table{}, err
		}
	}
	return t, nil
}

func reading(vals []*float64, i int) any {
	if i >= len(vals) || vals[i] == nil {
		return nil
	}
	return *vals[i]
}
