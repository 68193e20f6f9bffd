package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// UserID identifies a user document. Format: user_<ordinal>.
type UserID string

// TripID identifies a trip document. Format: trip_<ordinal>.
type TripID string

// PhotoID identifies a photo within a trip. Format: photo_<tripOrdinal>_<photoOrdinal>.
type PhotoID string

const (
	userIDPrefix  = "user_"
	tripIDPrefix  = "trip_"
	photoIDPrefix = "photo_"
)

func NewUserID(ordinal int) UserID { return UserID(userIDPrefix + strconv.Itoa(ordinal)) }

func NewTripID(ordinal int) TripID { return TripID(tripIDPrefix + strconv.Itoa(ordinal)) }

// NewPhotoID derives a photo id from the owning trip and the photo's per-trip ordinal.
func NewPhotoID(trip TripID, photoOrdinal int) (PhotoID, error) {
	tripOrdinal, err := trip.Ordinal()
	if err != nil {
		return "", err
	}
	return PhotoID(fmt.Sprintf("%s%d_%d", photoIDPrefix, tripOrdinal, photoOrdinal)), nil
}

// Ordinal returns the numeric part of a trip id.
func (id TripID) Ordinal() (int, error) {
	return parseOrdinal(string(id), tripIDPrefix)
}

// Ordinal returns the numeric part of a user id.
func (id UserID) Ordinal() (int, error) {
	return parseOrdinal(string(id), userIDPrefix)
}

// Valid reports whether the id has the user_<n> shape.
func (id UserID) Valid() bool {
	_, err := id.Ordinal()
	return err == nil
}

// Valid reports whether the id has the trip_<n> shape.
func (id TripID) Valid() bool {
	_, err := id.Ordinal()
	return err == nil
}

// Valid reports whether the id has the photo_<n>_<m> shape.
func (id PhotoID) Valid() bool {
	rest, ok := strings.CutPrefix(string(id), photoIDPrefix)
	if !ok {
		return false
	}
	trip, photo, ok := strings.Cut(rest, "_")
	if !ok {
		return false
	}
	return isPositiveInt(trip) && isPositiveInt(photo)
}

func parseOrdinal(s, prefix string) (int, error) {
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok || !isPositiveInt(rest) {
		return 0, fmt.Errorf("malformed id %q: want %s<n>", s, prefix)
	}
	return strconv.Atoi(rest)
}

func isPositiveInt(s string) bool {
	if s == "" || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
