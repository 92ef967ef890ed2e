// internal/cli/catalog.go
package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"ebeauty-client/internal/domain/catalog"
	"ebeauty-client/internal/navigation"

	"github.com/spf13/cobra"
)

var artistsCategory string

var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "List artists, optionally by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		artists, err := client.API.GetArtists(cmd.Context(), artistsCategory)
		if err != nil {
			return userError(err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tRATING\tCATEGORIES\tSERVICES")
		for _, a := range artists {
			services := make([]string, 0, len(a.Services))
			for _, s := range a.Services {
				services = append(services, fmt.Sprintf("%s %s $%.2f", s.ID, s.Name, float64(s.Price)/100))
			}
			fmt.Fprintf(w, "%s\t%s %s\t%.1f (%d)\t%s\t%s\n",
				a.ID, a.FirstName, a.LastName, a.AverageRating, a.ReviewCount,
				strings.Join(a.Categories, ","), strings.Join(services, "; "))
		}
		return w.Flush()
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List service categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := client.API.GetCategories(cmd.Context())
		if err != nil {
			return userError(err)
		}
		for _, c := range categories {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var bookFlags struct {
	artist  string
	service string
	address string
	at      string
}

var bookCmd = &cobra.Command{
	Use:     "book",
	Short:   "Request a booking (clients only)",
	Example: `  ebeauty book --artist 2 --service s1 --address "12 Main St" --at 2026-11-02T15:00:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := time.Parse(time.RFC3339, bookFlags.at)
		if err != nil {
			return fmt.Errorf("--at must be an RFC3339 time: %w", err)
		}

		// the booking form only exists in the client graph
		if err := client.Navigator.Push(navigation.ScreenBookingForm); err != nil {
			return fmt.Errorf("booking is not available: %w", err)
		}
		defer client.Navigator.Pop()

		booking, err := client.API.CreateBooking(cmd.Context(), client.Session.View().Token, catalog.CreateBookingRequest{
			ArtistID:    bookFlags.artist,
			ServiceID:   bookFlags.service,
			Address:     bookFlags.address,
			BookingTime: at,
		})
		if err != nil {
			return userError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is %s ($%.2f)\n",
			booking.ID, booking.Status, float64(booking.TotalAmount)/100)
		return nil
	},
}

func init() {
	artistsCmd.Flags().StringVarP(&artistsCategory, "category", "c", "", "only artists offering this category")

	bookCmd.Flags().StringVar(&bookFlags.artist, "artist", "", "artist id")
	bookCmd.Flags().StringVar(&bookFlags.service, "service", "", "service id")
	bookCmd.Flags().StringVar(&bookFlags.address, "address", "", "where the appointment takes place")
	bookCmd.Flags().StringVar(&bookFlags.at, "at", "", "appointment time (RFC3339)")
	for _, f := range []string{"artist", "service", "address", "at"} {
		_ = bookCmd.MarkFlagRequired(f)
	}
}
