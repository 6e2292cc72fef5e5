package models

import "time"

// SourceMock tags adapter output that was synthesized rather than fetched.
const SourceMock = "mock"

// FlightStatus is the normalized flight-status record.
type FlightStatus struct {
	CarrierCode  string `json:"carrier_code"`
	FlightNumber string `json:"flight_number"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	Departure    string `json:"departure,omitempty"`
	Arrival      string `json:"arrival,omitempty"`
	Gate         string `json:"gate,omitempty"`
	Terminal     string `json:"terminal,omitempty"`
	DelayMinutes int    `json:"delay_minutes"`
	Source       string `json:"source"`
}

// Temperature is a day's temperature range in Celsius.
type Temperature struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Conditions describes the weather for a day.
type Conditions struct {
	Description string  `json:"description"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// ForecastDay is one normalized forecast day.
type ForecastDay struct {
	Date          string      `json:"date"`
	Temperature   Temperature `json:"temperature"`
	Conditions    Conditions  `json:"conditions"`
	Precipitation float64     `json:"precipitation"`
}

// Location identifies where a forecast applies.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// WeatherWarning is a provider-issued weather alert.
type WeatherWarning struct {
	Headline    string `json:"headline"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
}

// Forecast is the normalized output of the weather adapter.
type Forecast struct {
	Location  Location         `json:"location"`
	Days      []ForecastDay    `json:"forecast"`
	Alerts    []WeatherWarning `json:"alerts"`
	Source    string           `json:"source"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewsCategory classifies a news article.
type NewsCategory string

const (
	CategorySecurity       NewsCategory = "security"
	CategoryTransportation NewsCategory = "transportation"
	CategoryWeather        NewsCategory = "weather"
	CategoryAccommodation  NewsCategory = "accommodation"
	CategoryTourism        NewsCategory = "tourism"
	CategoryGeneral        NewsCategory = "general"
)

// NewsArticle is one normalized, scored article. PublishedAt keeps the provider's raw value.
type NewsArticle struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	URL            string       `json:"url"`
	Source         string       `json:"source"`
	PublishedAt    string       `json:"published_at"`
	RelevanceScore float64      `json:"relevance_score"`
	Category       NewsCategory `json:"category"`
}

// NewsResult is the normalized output of the news adapter.
type NewsResult struct {
	Location   string        `json:"location"`
	Articles   []NewsArticle `json:"articles"`
	TotalFound int           `json:"total_found"`
	Source     string        `json:"source"`
	Timestamp  time.Time     `json:"timestamp"`
}

// DocumentType is the category assigned to an uploaded document.
type DocumentType string

const (
	DocIdentification DocumentType = "identification"
	DocFlight         DocumentType = "flight_document"
	DocAccommodation  DocumentType = "accommodation"
	DocInsurance      DocumentType = "insurance"
	DocItinerary      DocumentType = "itinerary"
	DocOther          DocumentType = "other"
)

// Document is the metadata of one stored travel document.
type Document struct {
	Key          string       `json:"key"`
	Filename     string       `json:"filename"`
	DocumentType DocumentType `json:"document_type"`
	Size         int64        `json:"size"`
	UploadedAt   time.Time    `json:"upload_timestamp"`
	ExpiryDate   *time.Time   `json:"expiry_date,omitempty"`
}

// DocumentListing is the normalized output of the document store adapter.
type DocumentListing struct {
	Documents []Document `json:"documents"`
	Source    string     `json:"source"`
}
