package domain

// ReducedUser is the projection embedded wherever a user appears inside another entity.
type ReducedUser struct {
	ID            UserID `json:"id"`
	Name          string `json:"name"`
	Signature     string `json:"signature,omitempty"`
	AvatarSrc     string `json:"avatarSrc"`
	ProfileBkgSrc string `json:"profileBkgSrc"`
}

// FullUser is a user with friends and trips expanded into reduced views.
type FullUser struct {
	ID            UserID        `json:"id"`
	Name          string        `json:"name"`
	Signature     string        `json:"signature,omitempty"`
	AvatarSrc     string        `json:"avatarSrc"`
	ProfileBkgSrc string        `json:"profileBkgSrc"`
	Friends       []ReducedUser `json:"friends"`
	Trips         []ReducedTrip `json:"trips"`
}

// ReducedTrip is the trip projection embedded in user views.
type ReducedTrip struct {
	ID            TripID        `json:"id"`
	Name          string        `json:"name"`
	Users         []ReducedUser `json:"users"`
	BeginDate     string        `json:"beginDate"`
	EndDate       string        `json:"endDate"`
	CoverPhotoID  PhotoID       `json:"coverPhotoId"`
	CoverPhotoSrc string        `json:"coverPhotoSrc"`
}

// FullTrip is a trip with members resolved and the itinerary projected for display.
type FullTrip struct {
	ID           TripID          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Users        []ReducedUser   `json:"users"`
	PhotoNb      int             `json:"photoNb"`
	CoverPhotoID PhotoID         `json:"coverPhotoId"`
	DailyInfos   []DailyInfoView `json:"dailyInfos"`
}

type DailyInfoView struct {
	Date string              `json:"date"`
	Locs []LocationGroupView `json:"locs"`
}

type LocationGroupView struct {
	Name   string      `json:"name"`
	Covers []CoverView `json:"covers"`
}

// CoverView is a cover entry with its photo resolved to servable sources.
type CoverView struct {
	PhotoID PhotoID `json:"photoId"`
	Comment string  `json:"comment"`
	Src     string  `json:"src"`
	Photo   Photo   `json:"photo"`
}

// PhotoComment is a comment enriched with its author's display info.
type PhotoComment struct {
	Comment
	UserName      string `json:"userName"`
	UserAvatarSrc string `json:"userAvatarSrc"`
}
