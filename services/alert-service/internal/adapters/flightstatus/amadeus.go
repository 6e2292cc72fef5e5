package flightstatus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/token"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// DefaultAmadeusURL is the production API host.
const DefaultAmadeusURL = "https://api.amadeus.com"

// AmadeusConfig configures the live flight-status source.
type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Options      upstream.Options
}

// Amadeus fetches flight schedules from the Amadeus API using client-credentials OAuth.
type Amadeus struct {
	client *upstream.Client
	base   string
	id     string
	secret string
	tokens *token.Cache
}

// NewAmadeus creates the live source. It returns nil when credentials are missing.
func NewAmadeus(cfg AmadeusConfig) *Amadeus {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultAmadeusURL
	}
	a := &Amadeus{
		client: upstream.New("amadeus", cfg.Options),
		base:   base,
		id:     cfg.ClientID,
		secret: cfg.ClientSecret,
	}
	a.tokens = token.NewCache(a.fetchToken, token.DefaultMargin)
	return a
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (a *Amadeus) fetchToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {a.id},
		"client_secret": {a.secret},
	}
	var resp tokenResponse
	if uerr := a.client.PostForm(ctx, "token", a.base+"/v1/security/oauth2/token", form, &resp); uerr != nil {
		return "", 0, uerr
	}
	return resp.AccessToken, time.Duration(resp.ExpiresIn) * time.Second, nil
}

type scheduleResponse struct {
	Data []datedFlight `json:"data"`
}

type datedFlight struct {
	ScheduledDepartureDate string        `json:"scheduledDepartureDate"`
	FlightPoints           []flightPoint `json:"flightPoints"`
}

type flightPoint struct {
	IATACode  string `json:"iataCode"`
	Departure *leg   `json:"departure"`
	Arrival   *leg   `json:"arrival"`
}

type leg struct {
	Timings  []timing `json:"timings"`
	Terminal *struct {
		Code string `json:"code"`
	} `json:"terminal"`
	Gate *struct {
		MainGate string `json:"mainGate"`
	} `json:"gate"`
}

type timing struct {
	Qualifier string `json:"qualifier"`
	Value     string `json:"value"`
	Delays    []struct {
		Duration string `json:"duration"`
	} `json:"delays"`
}

// Status returns the live status of a flight. A nil status with a nil error means the
// provider knows no such flight.
func (a *Amadeus) Status(ctx context.Context, carrier, number, date string) (*models.FlightStatus, *apperr.UpstreamError) {
	tok, err := a.tokens.Token(ctx)
	if err != nil {
		var uerr *apperr.UpstreamError
		if errors.As(err, &uerr) {
			return nil, uerr
		}
		return nil, &apperr.UpstreamError{Provider: "amadeus", Op: "token", Err: err}
	}

	query := url.Values{
		"carrierCode":            {carrier},
		"flightNumber":           {number},
		"scheduledDepartureDate": {date},
	}
	headers := map[string]string{"Authorization": "Bearer " + tok}

	var resp scheduleResponse
	if uerr := a.client.GetJSON(ctx, "schedule", a.base+"/v2/schedule/flights", query, headers, &resp); uerr != nil {
		if uerr.StatusCode == http.StatusUnauthorized {
			a.tokens.Invalidate()
		}
		return nil, uerr
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return parseDatedFlight(resp.Data[0], carrier, number, date), nil
}

func parseDatedFlight(f datedFlight, carrier, number, date string) *models.FlightStatus {
	st := &models.FlightStatus{
		CarrierCode:  carrier,
		FlightNumber: number,
		Date:         date,
		Source:       "amadeus",
	}
	if f.ScheduledDepartureDate != "" {
		st.Date = f.ScheduledDepartureDate
	}

	for _, p := range f.FlightPoints {
		if p.Departure != nil && st.Departure == "" {
			st.Departure, st.DelayMinutes = firstTiming(p.Departure.Timings)
			if p.Departure.Terminal != nil {
				st.Terminal = p.Departure.Terminal.Code
			}
			if p.Departure.Gate != nil {
				st.Gate = p.Departure.Gate.MainGate
			}
		}
		if p.Arrival != nil {
			st.Arrival, _ = firstTiming(p.Arrival.Timings)
		}
	}

	st.Status = "On Time"
	if st.DelayMinutes > 0 {
		st.Status = "Delayed"
	}
	return st
}

func firstTiming(timings []timing) (string, int) {
	if len(timings) == 0 {
		return "", 0
	}
	t := timings[0]
	delay := 0
	for _, d := range t.Delays {
		if m, err := parseISODurationMinutes(d.Duration); err == nil {
			delay += m
		}
	}
	return t.Value, delay
}

// parseISODurationMinutes handles the PTnHnM form Amadeus uses for delays.
func parseISODurationMinutes(s string) (int, error) {
	rest, ok := strings.CutPrefix(strings.ToUpper(s), "PT")
	if !ok || rest == "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	total := 0
	num := ""
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			if num == "" {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", s, err)
			}
			switch r {
			case 'H':
				total += n * 60
			case 'M':
				total += n
			}
			num = ""
		default:
			return 0, fmt.Errorf("invalid duration %q", s)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return total, nil
}
