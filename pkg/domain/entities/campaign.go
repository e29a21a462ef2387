package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// scheduleNamespace seeds the name-based IDs of campaigns and schedule days
var scheduleNamespace = uuid.MustParse("6f1c2b1e-9d3a-4c57-8a0e-3f2d7b9c4e10")

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignDraft    CampaignStatus = "DRAFT"
	CampaignApproved CampaignStatus = "APPROVED"
)

// JobLink records how many drums of a campaign fill one job order
type JobLink struct {
	JobNumber    string    `json:"job_number"`
	Drums        Drums     `json:"drums"`
	DeliveryDate time.Time `json:"delivery_date"`
}

// Campaign is a consolidated production run of one product into one packaging
type Campaign struct {
	ID           string         `json:"id"`
	WeekStart    time.Time      `json:"week_start"`
	ProductID    ProductID      `json:"product_id"`
	PackagingID  PackagingID    `json:"packaging_id"`
	PlannedDrums Drums          `json:"planned_drums"`
	Sequence     int            `json:"sequence"`
	Status       CampaignStatus `json:"status"`
	JobLinks     []JobLink      `json:"job_links"`
	Requirements []Requirement  `json:"requirements"`
}

// CampaignID derives the stable ID of a week's campaign for product+packaging
func CampaignID(weekStart time.Time, productID ProductID, packagingID PackagingID) string {
	name := fmt.Sprintf("campaign|%s|%s|%s", WeekKey(weekStart), productID, packagingID)
	return uuid.NewSHA1(scheduleNamespace, []byte(name)).String()
}

// NewCampaign creates a new empty draft campaign
func NewCampaign(weekStart time.Time, productID ProductID, packagingID PackagingID, sequence int) (*Campaign, error) {
	if err := ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if packagingID == "" {
		return nil, fmt.Errorf("packaging id cannot be empty")
	}

	return &Campaign{
		ID:           CampaignID(weekStart, productID, packagingID),
		WeekStart:    weekStart,
		ProductID:    productID,
		PackagingID:  packagingID,
		Sequence:     sequence,
		Status:       CampaignDraft,
		JobLinks:     make([]JobLink, 0),
		Requirements: make([]Requirement, 0),
	}, nil
}

// AddJobLine folds a job order line into the campaign
func (c *Campaign) AddJobLine(line JobOrderLine) error {
	if c.Status != CampaignDraft {
		return fmt.Errorf("campaign %s: %w", c.ID, ErrCampaignLocked)
	}
	if line.ProductID != c.ProductID || line.PackagingID != c.PackagingID {
		return fmt.Errorf("job %s is %s/%s, campaign is %s/%s",
			line.JobNumber, line.ProductID, line.PackagingID, c.ProductID, c.PackagingID)
	}
	if line.Drums <= 0 {
		return fmt.Errorf("drums must be positive, got %d", line.Drums)
	}

	c.PlannedDrums += line.Drums
	c.JobLinks = append(c.JobLinks, JobLink{
		JobNumber:    line.JobNumber,
		Drums:        line.Drums,
		DeliveryDate: line.DeliveryDate,
	})
	return nil
}

// Deadline returns the earliest delivery date among the linked jobs
func (c *Campaign) Deadline() time.Time {
	var earliest time.Time
	for _, link := range c.JobLinks {
		if link.DeliveryDate.IsZero() {
			continue
		}
		if earliest.IsZero() || link.DeliveryDate.Before(earliest) {
			earliest = link.DeliveryDate
		}
	}
	return earliest
}

// JobNumbers lists the linked job numbers in link order
func (c *Campaign) JobNumbers() []string {
	numbers := make([]string, 0, len(c.JobLinks))
	for _, link := range c.JobLinks {
		numbers = append(numbers, link.JobNumber)
	}
	return numbers
}

// SetRequiredBy stamps every requirement with the production date
func (c *Campaign) SetRequiredBy(date time.Time) {
	for i := range c.Requirements {
		c.Requirements[i].RequiredBy = date
	}
}

// Shortages returns the campaign's uncovered requirements
func (c *Campaign) Shortages() []ShortageDetail {
	return ShortageDetails(c.Requirements)
}

// HasShortage reports whether any requirement is short
func (c *Campaign) HasShortage() bool {
	for _, r := range c.Requirements {
		if r.HasShortage() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the campaign
func (c *Campaign) Clone() Campaign {
	out := *c
	out.JobLinks = make([]JobLink, len(c.JobLinks))
	copy(out.JobLinks, c.JobLinks)
	out.Requirements = make([]Requirement, len(c.Requirements))
	copy(out.Requirements, c.Requirements)
	return out
}
