package docstore

import "github.com/Overland-East-Bay/trip-journal-api/internal/domain"

// Layout of the document tree. All paths are relative to the store root.
const (
	CounterPath    = "data-counter.json"
	UsersDir       = "users"
	UsersIndexPath = "users/users.json"
	TripsDir       = "trips"
)

func UserDir(id domain.UserID) string         { return UsersDir + "/" + string(id) }
func UserPath(id domain.UserID) string        { return UserDir(id) + "/user.json" }
func CredentialsPath(id domain.UserID) string { return UserDir(id) + "/authen.json" }

func TripDir(id domain.TripID) string      { return TripsDir + "/" + string(id) }
func TripPath(id domain.TripID) string     { return TripDir(id) + "/trip.json" }
func PhotosPath(id domain.TripID) string   { return TripDir(id) + "/photos.json" }
func CommentsPath(id domain.TripID) string { return TripDir(id) + "/comments.json" }

// PhotoAssetKey is the media key of an uploaded photo, relative to the media root.
func PhotoAssetKey(trip domain.TripID, photo domain.PhotoID) string {
	return TripDir(trip) + "/" + string(photo) + ".png"
}

// ThumbnailAssetKey is the media key of a photo's thumbnail.
func ThumbnailAssetKey(trip domain.TripID, photo domain.PhotoID) string {
	return TripDir(trip) + "/" + string(photo) + "_thumb.png"
}
