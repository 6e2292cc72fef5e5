package weather

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/synthetic"
)

// DefaultOpenWeatherURL is the OpenWeatherMap API base.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeather reads 3-hour forecast slices from OpenWeatherMap and folds them into days.
type OpenWeather struct {
	client *upstream.Client
	base   string
	apiKey string
	now    func() time.Time
}

// NewOpenWeather returns nil when apiKey is empty.
func NewOpenWeather(baseURL, apiKey string, opts upstream.Options) *OpenWeather {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeather{
		client: upstream.New("openweathermap", opts),
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		now:    time.Now,
	}
}

type owmForecast struct {
	List []owmSlice `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Coord   struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	} `json:"city"`
}

type owmSlice struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain map[string]float64 `json:"rain"`
	Snow map[string]float64 `json:"snow"`
}

// Forecast fetches up to days days of forecast for location.
func (o *OpenWeather) Forecast(ctx context.Context, location string, days int) (*models.Forecast, *apperr.UpstreamError) {
	query := url.Values{
		"q":     {location},
		"appid": {o.apiKey},
		"units": {"metric"},
		"cnt":   {strconv.Itoa(days * 8)},
	}
	var resp owmForecast
	if uerr := o.client.GetJSON(ctx, "forecast", o.base+"/forecast", query, nil, &resp); uerr != nil {
		return nil, uerr
	}

	name := resp.City.Name
	if name == "" {
		name = location
	}
	out := &models.Forecast{
		Location: models.Location{
			Name:    name,
			Country: resp.City.Country,
			Lat:     resp.City.Coord.Lat,
			Lon:     resp.City.Coord.Lon,
		},
		Days:      groupSlices(resp.List),
		Alerts:    []models.WeatherWarning{},
		Source:    "openweathermap",
		Timestamp: o.now().UTC(),
	}
	if len(out.Days) > days {
		out.Days = out.Days[:days]
	}
	return out, nil
}

// groupSlices folds consecutive slices of the same UTC date into one day. The first
// slice's description, humidity and wind are kept; temperatures are tracked across the
// day and precipitation is summed.
func groupSlices(slices []owmSlice) []models.ForecastDay {
	days := []models.ForecastDay{}
	var cur *models.ForecastDay
	var tempSum float64
	var n int

	flush := func() {
		if cur == nil {
			return
		}
		cur.Temperature.Avg = synthetic.Round1(tempSum / float64(n))
		cur.Precipitation = synthetic.Round1(cur.Precipitation)
		days = append(days, *cur)
	}

	for _, s := range slices {
		date := time.Unix(s.Dt, 0).UTC().Format("2006-01-02")
		precip := s.Rain["3h"] + s.Snow["3h"]

		if cur == nil || cur.Date != date {
			flush()
			desc := ""
			if len(s.Weather) > 0 {
				desc = s.Weather[0].Description
			}
			cur = &models.ForecastDay{
				Date:        date,
				Temperature: models.Temperature{Min: s.Main.TempMin, Max: s.Main.TempMax},
				Conditions: models.Conditions{
					Description: desc,
					Humidity:    s.Main.Humidity,
					WindSpeed:   s.Wind.Speed,
				},
				Precipitation: precip,
			}
			tempSum, n = s.Main.Temp, 1
			continue
		}

		cur.Temperature.Min = min(cur.Temperature.Min, s.Main.TempMin, s.Main.Temp)
		cur.Temperature.Max = max(cur.Temperature.Max, s.Main.TempMax, s.Main.Temp)
		cur.Precipitation += precip
		tempSum += s.Main.Temp
		n++
	}
	flush()
	return days
}
