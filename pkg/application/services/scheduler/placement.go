package scheduler

import (
	"sort"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/services"
)

// Placement is a whole campaign assigned to one production date
type Placement struct {
	Campaign *entities.Campaign
	Date     time.Time
	// Fits is false when no date had room and the campaign was forced onto the last one
	Fits bool
}

// PlacementOrder sorts campaigns by earliest delivery, then creation sequence.
// Campaigns without a delivery date go last.
func PlacementOrder(campaigns []*entities.Campaign) []*entities.Campaign {
	ordered := make([]*entities.Campaign, len(campaigns))
	copy(ordered, campaigns)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].Deadline(), ordered[j].Deadline()
		switch {
		case di.IsZero() != dj.IsZero():
			return dj.IsZero()
		case !di.Equal(dj):
			return di.Before(dj)
		default:
			return ordered[i].Sequence < ordered[j].Sequence
		}
	})
	return ordered
}

// PlaceCampaigns puts each campaign on the earliest date with room for it
func PlaceCampaigns(days []services.CalendarDay, campaigns []*entities.Campaign) []Placement {
	if len(days) == 0 {
		return []Placement{}
	}

	used := make([]entities.Drums, len(days))
	placements := make([]Placement, 0, len(campaigns))
	for _, campaign := range PlacementOrder(campaigns) {
		placed := false
		for i, day := range days {
			if used[i]+campaign.PlannedDrums <= day.Capacity {
				used[i] += campaign.PlannedDrums
				placements = append(placements, Placement{Campaign: campaign, Date: day.Date, Fits: true})
				placed = true
				break
			}
		}
		if !placed {
			last := len(days) - 1
			used[last] += campaign.PlannedDrums
			placements = append(placements, Placement{Campaign: campaign, Date: days[last].Date, Fits: false})
		}
	}

	// production order: by date, then placement order
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].Date.Before(placements[j].Date)
	})
	return placements
}
