package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/app"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/synthetic"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/trips"
)

var (
	seedUsers   int
	seedRefresh bool
)

var seedDestinations = []models.Destination{
	{Location: "Lisbon", Country: "PT"},
	{Location: "Tokyo", Country: "JP"},
	{Location: "New York", Country: "US"},
	{Location: "Reykjavik", Country: "IS"},
	{Location: "Cape Town", Country: "ZA"},
	{Location: "Bangkok", Country: "TH"},
	{Location: "Mexico City", Country: "MX"},
	{Location: "Berlin", Country: "DE"},
}

var seedCarriers = []string{"TP", "NH", "UA", "FI", "LH", "TG"}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate users with itineraries and bookings for local testing",
	Long: `seed creates user-001..user-N, each with an itinerary of one to three destinations
departing within the next ten days and a flight, hotel and optional car rental booking.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedUsers <= 0 {
			return fmt.Errorf("--users must be > 0")
		}
		src := synthetic.NewRand(cfg.SyntheticSeed)
		return withEngine(cmd.Context(), func(a *app.App) error {
			bookings, alerts := 0, 0
			for i := 1; i <= seedUsers; i++ {
				userID := fmt.Sprintf("user-%03d", i)
				n, err := seedUser(cmd, a.Trips, src, userID)
				if err != nil {
					return fmt.Errorf("failed to seed %s: %w", userID, err)
				}
				bookings += n

				if seedRefresh {
					set, err := a.Aggregator.Refresh(cmd.Context(), userID)
					if err != nil {
						return fmt.Errorf("failed to refresh %s: %w", userID, err)
					}
					alerts += set.Count
				}
			}
			fmt.Printf("Seeded %d users with %d bookings", seedUsers, bookings)
			if seedRefresh {
				fmt.Printf(" and %d alerts", alerts)
			}
			fmt.Println()
			return nil
		})
	},
}

func seedUser(cmd *cobra.Command, svc *trips.Service, src synthetic.Source, userID string) (int, error) {
	ctx := cmd.Context()
	start := time.Now().UTC().AddDate(0, 0, 1+src.Intn(10))
	days := 3 + src.Intn(8)

	var dests []models.Destination
	for _, i := range pick(src, len(seedDestinations), 1+src.Intn(3)) {
		dests = append(dests, seedDestinations[i])
	}
	if _, err := svc.CreateItinerary(ctx, userID, trips.ItinerarySpec{
		Destinations: dests,
		StartDate:    start.Format("2006-01-02"),
		EndDate:      start.AddDate(0, 0, days).Format("2006-01-02"),
		Travelers:    1 + src.Intn(4),
	}); err != nil {
		return 0, err
	}

	specs := []trips.BookingSpec{
		{
			Type: models.BookingFlight,
			Details: map[string]any{
				"carrier":        seedCarriers[src.Intn(len(seedCarriers))],
				"flight_number":  fmt.Sprintf("%d", 100+src.Intn(900)),
				"origin":         "TLV",
				"destination":    dests[0].Location,
				"departure_date": start.Format("2006-01-02"),
				"gate":           fmt.Sprintf("%c%d", 'A'+rune(src.Intn(6)), 1+src.Intn(40)),
			},
		},
		{
			Type: models.BookingHotel,
			Details: map[string]any{
				"hotel_name":     "Hotel " + dests[0].Location,
				"check_in_date":  start.Format("2006-01-02"),
				"check_out_date": start.AddDate(0, 0, days).Format("2006-01-02"),
				"guests":         1 + src.Intn(3),
			},
		},
	}
	if src.Intn(2) == 0 {
		specs = append(specs, trips.BookingSpec{
			Type: models.BookingCarRental,
			Details: map[string]any{
				"company":         "Rentals Inc",
				"pickup_location": dests[0].Location,
				"pickup_date":     start.Format("2006-01-02"),
				"dropoff_date":    start.AddDate(0, 0, days).Format("2006-01-02"),
			},
		})
	}
	for _, spec := range specs {
		if _, err := svc.ConfirmBooking(ctx, userID, spec); err != nil {
			return 0, err
		}
	}
	return len(specs), nil
}

// pick returns k distinct indexes below n.
func pick(src synthetic.Source, n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k && i < n; i++ {
		j := i + src.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	if k > n {
		k = n
	}
	return idx[:k]
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 10, "Number of users to generate")
	seedCmd.Flags().BoolVar(&seedRefresh, "refresh", false, "Refresh each user's alerts after seeding")
	rootCmd.AddCommand(seedCmd)
}
