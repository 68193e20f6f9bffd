package domain

// Trip is the persisted trip document (trips/<id>/trip.json).
type Trip struct {
	ID           TripID      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Users        []UserID    `json:"users"`
	PhotoNb      int         `json:"photoNb"`
	CoverPhotoID PhotoID     `json:"coverPhotoId"`
	DailyInfos   []DailyInfo `json:"dailyInfos"`
}

// HasMember reports whether id is part of the trip's membership.
func (t Trip) HasMember(id UserID) bool {
	for _, u := range t.Users {
		if u == id {
			return true
		}
	}
	return false
}

// DailyInfo is the itinerary entry for one calendar date.
type DailyInfo struct {
	Date string          `json:"date"`
	Locs []LocationGroup `json:"locs"`
}

// LocationGroup groups the covers of one location within a day.
type LocationGroup struct {
	Name   string  `json:"name"`
	Covers []Cover `json:"covers"`
}

// Cover designates a representative photo for a date x location pairing.
type Cover struct {
	PhotoID PhotoID `json:"photoId"`
	Comment string  `json:"comment"`
}

// Photo is one entry of the trip photo collection (trips/<id>/photos.json).
type Photo struct {
	ID       PhotoID `json:"id"`
	Loc      string  `json:"loc"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Src      string  `json:"src"`
	ThumbSrc string  `json:"thumbSrc,omitempty"`
	Owner    UserID  `json:"owner"`
}

// PhotoCollection is keyed by photo id.
type PhotoCollection map[PhotoID]Photo

// Comment is one comment left on a photo.
type Comment struct {
	ID        string `json:"id,omitempty"`
	UserID    UserID `json:"userId"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CommentCollection maps a photo id to its comments in posting order (trips/<id>/comments.json).
type CommentCollection map[PhotoID][]Comment
