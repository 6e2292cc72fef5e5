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
)

// DefaultWeatherAPIURL is the WeatherAPI.com base.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1"

// maxWeatherAPIDays is the longest forecast WeatherAPI.com serves.
const maxWeatherAPIDays = 10

// WeatherAPI reads daily forecasts and provider alerts from WeatherAPI.com.
type WeatherAPI struct {
	client *upstream.Client
	base   string
	apiKey string
	now    func() time.Time
}

// NewWeatherAPI returns nil when apiKey is empty.
func NewWeatherAPI(baseURL, apiKey string, opts upstream.Options) *WeatherAPI {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	return &WeatherAPI{
		client: upstream.New("weatherapi", opts),
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		now:    time.Now,
	}
}

type waForecast struct {
	Location struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	} `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MinTempC    float64 `json:"mintemp_c"`
				MaxTempC    float64 `json:"maxtemp_c"`
				AvgTempC    float64 `json:"avgtemp_c"`
				MaxWindKph  float64 `json:"maxwind_kph"`
				TotalPrecip float64 `json:"totalprecip_mm"`
				AvgHumidity float64 `json:"avghumidity"`
				Condition   struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
	Alerts struct {
		Alert []struct {
			Headline string `json:"headline"`
			Severity string `json:"severity"`
			Desc     string `json:"desc"`
		} `json:"alert"`
	} `json:"alerts"`
}

// Forecast fetches up to days days (capped at 10) of forecast for location.
func (w *WeatherAPI) Forecast(ctx context.Context, location string, days int) (*models.Forecast, *apperr.UpstreamError) {
	query := url.Values{
		"key":    {w.apiKey},
		"q":      {location},
		"days":   {strconv.Itoa(min(days, maxWeatherAPIDays))},
		"aqi":    {"no"},
		"alerts": {"yes"},
	}
	var resp waForecast
	if uerr := w.client.GetJSON(ctx, "forecast", w.base+"/forecast.json", query, nil, &resp); uerr != nil {
		return nil, uerr
	}

	name := resp.Location.Name
	if name == "" {
		name = location
	}
	out := &models.Forecast{
		Location: models.Location{
			Name:    name,
			Country: resp.Location.Country,
			Lat:     resp.Location.Lat,
			Lon:     resp.Location.Lon,
		},
		Days:      make([]models.ForecastDay, 0, len(resp.Forecast.ForecastDay)),
		Alerts:    make([]models.WeatherWarning, 0, len(resp.Alerts.Alert)),
		Source:    "weatherapi",
		Timestamp: w.now().UTC(),
	}
	for _, d := range resp.Forecast.ForecastDay {
		out.Days = append(out.Days, models.ForecastDay{
			Date: d.Date,
			Temperature: models.Temperature{
				Min: d.Day.MinTempC,
				Max: d.Day.MaxTempC,
				Avg: d.Day.AvgTempC,
			},
			Conditions: models.Conditions{
				Description: d.Day.Condition.Text,
				Humidity:    d.Day.AvgHumidity,
				WindSpeed:   d.Day.MaxWindKph,
			},
			Precipitation: d.Day.TotalPrecip,
		})
	}
	for _, a := range resp.Alerts.Alert {
		out.Alerts = append(out.Alerts, models.WeatherWarning{
			Headline:    a.Headline,
			Severity:    a.Severity,
			Description: a.Desc,
		})
	}
	return out, nil
}
