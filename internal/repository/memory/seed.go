// internal/repository/memory/seed.go
package memory

import (
	"fmt"

	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/domain/catalog"

	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is shared by every seeded account
const SeedPassword = "password"

// Seed fills the store with the demo accounts and artists
func Seed(s *Store) error {
	accounts, artists, err := Fixtures()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		s.AddAccount(a)
	}
	for _, p := range artists {
		s.AddArtist(p)
	}
	return nil
}

// Fixtures returns the demo accounts and artist profiles. Artist profiles
// share the id of their account.
func Fixtures() ([]auth.Account, []catalog.ArtistProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	var accounts []auth.Account
	for _, u := range []auth.UserRecord{
		{ID: "1", Email: "client@test.com", Role: auth.RoleClient, FirstName: "Test", LastName: "Client"},
		{ID: "2", Email: "artist@test.com", Role: auth.RoleArtist, FirstName: "Bob", LastName: "Stylist"},
		{ID: "3", Email: "admin@test.com", Role: auth.RoleAdmin, FirstName: "Admin", LastName: "User"},
		{ID: "4", Email: "alice@test.com", Role: auth.RoleArtist, FirstName: "Alice", LastName: "Nails"},
	} {
		accounts = append(accounts, auth.Account{UserRecord: u, PasswordHash: string(hash), Status: "active"})
	}

	artists := []catalog.ArtistProfile{{
		ID:              "2",
		FirstName:       "Bob",
		LastName:        "Stylist",
		Bio:             "Hair and makeup for weddings and events.",
		ExperienceYears: 5,
		AverageRating:   4.8,
		ReviewCount:     32,
		Categories:      []string{"Hair", "Makeup"},
		Services: []catalog.Service{
			{ID: "s1", Artist: "2", Category: "Hair", Name: "Blowout", Description: "Wash and blow-dry", Price: 4500, Duration: 45},
			{ID: "s2", Artist: "2", Category: "Makeup", Name: "Bridal Makeup", Description: "Full bridal look", Price: 12000, Duration: 90},
		},
	}, {
		ID:              "4",
		FirstName:       "Alice",
		LastName:        "Nails",
		Bio:             "Gel and acrylic nail art.",
		ExperienceYears: 3,
		AverageRating:   4.6,
		ReviewCount:     18,
		Categories:      []string{"Nails"},
		Services: []catalog.Service{
			{ID: "s3", Artist: "4", Category: "Nails", Name: "Gel Manicure", Description: "Long-lasting gel polish", Price: 3500, Duration: 60},
		},
	}}
	return accounts, artists, nil
}
