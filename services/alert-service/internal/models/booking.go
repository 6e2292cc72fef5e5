package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// BookingType is the kind of reservation.
type BookingType string

const (
	BookingFlight    BookingType = "flight"
	BookingHotel     BookingType = "hotel"
	BookingCarRental BookingType = "car_rental"
)

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingPending   BookingStatus = "pending"
)

// Valid reports whether t is a known booking type.
func (t BookingType) Valid() bool {
	switch t {
	case BookingFlight, BookingHotel, BookingCarRental:
		return true
	}
	return false
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingPending:
		return true
	}
	return false
}

// Booking is a confirmed (or pending) reservation. Details keep the vendor payload as
// received; the typed accessors decode it on demand.
type Booking struct {
	BookingID     string         `json:"booking_id"`
	Type          BookingType    `json:"type"`
	Status        BookingStatus  `json:"status"`
	Details       map[string]any `json:"details,omitempty"`
	PaymentStatus string         `json:"payment_status,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
}

// FlightDetails is the typed view of a flight booking.
type FlightDetails struct {
	Carrier       string `mapstructure:"carrier"`
	FlightNumber  string `mapstructure:"flight_number"`
	Origin        string `mapstructure:"origin"`
	Destination   string `mapstructure:"destination"`
	DepartureDate string `mapstructure:"departure_date"`
	ArrivalDate   string `mapstructure:"arrival_date"`
	Gate          string `mapstructure:"gate"`
	Terminal      string `mapstructure:"terminal"`
}

// HotelDetails is the typed view of a hotel booking.
type HotelDetails struct {
	HotelName    string `mapstructure:"hotel_name"`
	Address      string `mapstructure:"address"`
	CheckInDate  string `mapstructure:"check_in_date"`
	CheckOutDate string `mapstructure:"check_out_date"`
	Guests       int    `mapstructure:"guests"`
}

// CarRentalDetails is the typed view of a car rental booking.
type CarRentalDetails struct {
	Company        string `mapstructure:"company"`
	PickupLocation string `mapstructure:"pickup_location"`
	PickupDate     string `mapstructure:"pickup_date"`
	DropoffDate    string `mapstructure:"dropoff_date"`
}

func decodeDetails(details map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create details decoder: %w", err)
	}
	if err := dec.Decode(details); err != nil {
		return fmt.Errorf("failed to decode booking details: %w", err)
	}
	return nil
}

// Flight decodes the booking details as a flight.
func (b Booking) Flight() (*FlightDetails, error) {
	if b.Type != BookingFlight {
		return nil, fmt.Errorf("booking %s is a %s booking, not a flight", b.BookingID, b.Type)
	}
	var d FlightDetails
	if err := decodeDetails(b.Details, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Hotel decodes the booking details as a hotel stay.
func (b Booking) Hotel() (*HotelDetails, error) {
	if b.Type != BookingHotel {
		return nil, fmt.Errorf("booking %s is a %s booking, not a hotel", b.BookingID, b.Type)
	}
	var d HotelDetails
	if err := decodeDetails(b.Details, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CarRental decodes the booking details as a car rental.
func (b Booking) CarRental() (*CarRentalDetails, error) {
	if b.Type != BookingCarRental {
		return nil, fmt.Errorf("booking %s is a %s booking, not a car rental", b.BookingID, b.Type)
	}
	var d CarRentalDetails
	if err := decodeDetails(b.Details, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// IsConfirmedFlight reports whether the booking is a flight that is still confirmed.
func (b Booking) IsConfirmedFlight() bool {
	return b.Type == BookingFlight && b.Status == BookingConfirmed
}

// Departure parses the scheduled departure time.
func (d FlightDetails) Departure() (time.Time, error) {
	return ParseTimestamp(d.DepartureDate)
}

// DisplayNumber is the flight number shown in alert messages.
func (d FlightDetails) DisplayNumber() string {
	if d.FlightNumber == "" {
		return "N/A"
	}
	return d.FlightNumber
}

// CarrierAndNumber splits the flight into an IATA carrier code and numeric part.
// "BA117" becomes ("BA", "117") when no carrier is set explicitly.
func (d FlightDetails) CarrierAndNumber() (string, string) {
	number := strings.ToUpper(strings.ReplaceAll(d.FlightNumber, " ", ""))
	carrier := strings.ToUpper(strings.TrimSpace(d.Carrier))
	if carrier != "" {
		return carrier, strings.TrimPrefix(number, carrier)
	}
	if len(number) > 2 && hasLetter(number[:2]) && isDigits(number[2:]) {
		return number[:2], number[2:]
	}
	return "", number
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
