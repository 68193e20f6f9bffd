// Package itinerary folds photos into a trip's day and location grouping and projects the
// stored grouping for display. It performs no I/O.
package itinerary

import (
	"fmt"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// Resolver turns a stored relative source into a servable one.
type Resolver func(src string) string

// Fold adds photo to the itinerary and returns the new itinerary; dailyInfos is not modified.
//
// A new date appends a DailyInfo at the end. A new location on a known date appends a
// LocationGroup to that date. The first photo of a date and location stays its only cover:
// later photos with the same pair are not added.
func Fold(dailyInfos []domain.DailyInfo, photo domain.Photo) []domain.DailyInfo {
	out := cloneDays(dailyInfos)

	for i := range out {
		if out[i].Date != photo.Date {
			continue
		}
		for _, loc := range out[i].Locs {
			if loc.Name == photo.Loc {
				return out
			}
		}
		out[i].Locs = append(out[i].Locs, newGroup(photo))
		return out
	}

	return append(out, domain.DailyInfo{
		Date: photo.Date,
		Locs: []domain.LocationGroup{newGroup(photo)},
	})
}

// FoldAll folds photos in order.
func FoldAll(dailyInfos []domain.DailyInfo, photos []domain.Photo) []domain.DailyInfo {
	out := dailyInfos
	for _, p := range photos {
		out = Fold(out, p)
	}
	if out == nil {
		out = []domain.DailyInfo{}
	}
	return out
}

// Project resolves every cover against photos. A cover whose photo id is missing from the
// collection fails the whole projection with DanglingReference.
func Project(dailyInfos []domain.DailyInfo, photos domain.PhotoCollection, resolve Resolver) ([]domain.DailyInfoView, error) {
	if resolve == nil {
		resolve = func(s string) string { return s }
	}
	out := make([]domain.DailyInfoView, 0, len(dailyInfos))
	for _, day := range dailyInfos {
		dv := domain.DailyInfoView{Date: day.Date, Locs: make([]domain.LocationGroupView, 0, len(day.Locs))}
		for _, loc := range day.Locs {
			lv := domain.LocationGroupView{Name: loc.Name, Covers: make([]domain.CoverView, 0, len(loc.Covers))}
			for _, c := range loc.Covers {
				p, ok := photos[c.PhotoID]
				if !ok {
					return nil, &apperr.Error{
						Kind:    apperr.DanglingReference,
						Message: "itinerary references a missing photo",
						Details: map[string]any{"photoId": string(c.PhotoID), "date": day.Date},
						Err:     fmt.Errorf("cover %s on %s not in photo collection", c.PhotoID, day.Date),
					}
				}
				p = ResolvePhoto(p, resolve)
				lv.Covers = append(lv.Covers, domain.CoverView{
					PhotoID: c.PhotoID,
					Comment: c.Comment,
					Src:     p.Src,
					Photo:   p,
				})
			}
			dv.Locs = append(dv.Locs, lv)
		}
		out = append(out, dv)
	}
	return out, nil
}

// ResolvePhoto returns p with src and thumbSrc resolved.
func ResolvePhoto(p domain.Photo, resolve Resolver) domain.Photo {
	p.Src = resolve(p.Src)
	if p.ThumbSrc != "" {
		p.ThumbSrc = resolve(p.ThumbSrc)
	}
	return p
}

func newGroup(photo domain.Photo) domain.LocationGroup {
	return domain.LocationGroup{
		Name:   photo.Loc,
		Covers: []domain.Cover{{PhotoID: photo.ID, Comment: ""}},
	}
}

func cloneDays(in []domain.DailyInfo) []domain.DailyInfo {
	out := make([]domain.DailyInfo, len(in))
	for i, d := range in {
		locs := make([]domain.LocationGroup, len(d.Locs))
		for j, l := range d.Locs {
			locs[j] = domain.LocationGroup{Name: l.Name, Covers: append([]domain.Cover(nil), l.Covers...)}
		}
		out[i] = domain.DailyInfo{Date: d.Date, Locs: locs}
	}
	return out
}
