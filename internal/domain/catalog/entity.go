// internal/domain/catalog/entity.go
package catalog

import "time"

// ArtistProfile is the public card shown in artist listings
type ArtistProfile struct {
	ID              string    `json:"_id" db:"id"`
	FirstName       string    `json:"firstName" db:"first_name"`
	LastName        string    `json:"lastName" db:"last_name"`
	ProfileImage    string    `json:"profileImage" db:"profile_image"`
	Bio             string    `json:"bio" db:"bio"`
	ExperienceYears int       `json:"experienceYears" db:"experience_years"`
	AverageRating   float64   `json:"averageRating" db:"average_rating"`
	ReviewCount     int       `json:"reviewCount" db:"review_count"`
	Categories      []string  `json:"categories,omitempty" db:"categories"`
	Services        []Service `json:"services,omitempty"`
}

// Service is a bookable offering of an artist
type Service struct {
	ID          string `json:"_id" db:"id"`
	Artist      string `json:"artist" db:"artist_id"`
	Category    string `json:"category" db:"category"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Price       int64  `json:"price" db:"price"`       // in cents
	Duration    int    `json:"duration" db:"duration"` // in minutes
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"
)

// Location where the appointment takes place
type Location struct {
	Address string `json:"address"`
}

// Booking is an appointment request from a client to an artist
type Booking struct {
	ID          string        `json:"_id"`
	ClientID    string        `json:"client"`
	ArtistID    string        `json:"artist"`
	ServiceID   string        `json:"service"`
	Location    Location      `json:"location"`
	BookingTime time.Time     `json:"bookingTime"`
	Status      BookingStatus `json:"status"`
	TotalAmount int64         `json:"totalAmount"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// DefaultCategories is shown when no artist advertises any service yet
var DefaultCategories = []string{"Nails", "Lashes", "Hair", "Makeup", "Facials", "Massage"}
