package output

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/services"
)

// WeekChart is a Gantt-style chart of one week: a row per campaign, a column per day
type WeekChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	ColumnWidth  int

	week *entities.WeekSchedule
	days []services.CalendarDay
	rows []string
}

// ChartBar is one scheduled day of a campaign
type ChartBar struct {
	Label  string
	Drums  entities.Drums
	Status entities.DayStatus
	X      int
	Y      int
	Width  int
	Color  string
	Title  string
}

// NewWeekChart lays out the week's days against its capacity calendar
func NewWeekChart(week *entities.WeekSchedule) (*WeekChart, error) {
	calendar, err := services.NewCapacityCalendar(week.DailyCapacity, week.CapacityOverrides)
	if err != nil {
		return nil, fmt.Errorf("failed to build capacity calendar: %w", err)
	}
	days, err := calendar.Days(week.WeekStart)
	if err != nil {
		return nil, err
	}

	// rows follow the order campaigns were placed in
	seen := make(map[string]bool)
	var rows []string
	for _, d := range week.Days {
		if !seen[d.CampaignID] {
			seen[d.CampaignID] = true
			rows = append(rows, d.CampaignID)
		}
	}

	rowHeight := 30
	marginTop := 60
	marginBottom := 60
	height := marginTop + marginBottom + len(rows)*rowHeight
	if len(rows) == 0 {
		height = marginTop + marginBottom + rowHeight
	}

	return &WeekChart{
		Width:        1000,
		Height:       height,
		MarginLeft:   200,
		MarginTop:    marginTop,
		MarginRight:  30,
		MarginBottom: marginBottom,
		RowHeight:    rowHeight,
		ColumnWidth:  (1000 - 200 - 30) / entities.DaysPerWeek,
		week:         week,
		days:         days,
		rows:         rows,
	}, nil
}

// GenerateSVG renders the chart
func (wc *WeekChart) GenerateSVG() string {
	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, wc.Width, wc.Height))
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.day-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.day-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.bar-text { font-family: Arial, sans-serif; font-size: 10px; fill: white; }`)
	svg.WriteString(`</style></defs>`)
	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, wc.Width, wc.Height))

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Drum Schedule - Week %s (%s)</text>`,
		wc.Width/2, entities.FormatDate(wc.week.WeekStart), wc.week.Status))

	if len(wc.rows) == 0 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="middle">No campaigns scheduled</text>`,
			wc.Width/2, wc.MarginTop+wc.RowHeight/2))
		svg.WriteString(`</svg>`)
		return svg.String()
	}

	wc.drawDayAxis(&svg)
	wc.drawRows(&svg)
	for _, bar := range wc.Bars() {
		wc.drawBar(&svg, bar)
	}
	wc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

// Bars positions every schedule day of the week
func (wc *WeekChart) Bars() []ChartBar {
	rowIndex := make(map[string]int, len(wc.rows))
	for i, id := range wc.rows {
		rowIndex[id] = i
	}

	bars := make([]ChartBar, 0, len(wc.week.Days))
	for _, d := range wc.week.Days {
		column := int(d.Date.Sub(entities.DateOnly(wc.week.WeekStart)) / (24 * time.Hour))
		if column < 0 || column >= entities.DaysPerWeek {
			continue
		}
		bars = append(bars, ChartBar{
			Label:  fmt.Sprintf("%s/%s", d.ProductID, d.PackagingID),
			Drums:  d.PlannedDrums,
			Status: d.Status,
			X:      wc.MarginLeft + column*wc.ColumnWidth + 2,
			Y:      wc.MarginTop + rowIndex[d.CampaignID]*wc.RowHeight + 2,
			Width:  wc.ColumnWidth - 4,
			Color:  statusColor(d.Status),
			Title:  fmt.Sprintf("%s/%s %d drums on %s: %s %s",
				d.ProductID, d.PackagingID, d.PlannedDrums, entities.FormatDate(d.Date), d.Status, d.BlockingReason),
		})
	}
	return bars
}

// drawDayAxis labels each column with its date and planned/capacity load
func (wc *WeekChart) drawDayAxis(svg *strings.Builder) {
	gridBottom := wc.MarginTop + len(wc.rows)*wc.RowHeight

	for i, day := range wc.days {
		x := wc.MarginLeft + i*wc.ColumnWidth
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			x, wc.MarginTop, x, gridBottom))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="day-label" text-anchor="middle">%s</text>`,
			x+wc.ColumnWidth/2, wc.MarginTop-8, day.Date.Format("Mon Jan 2")))

		planned := wc.week.PlannedOn(day.Date)
		fill := "#666"
		if planned > day.Capacity {
			fill = "#F44336"
		}
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="day-label" fill="%s" text-anchor="middle">%d / %d</text>`,
			x+wc.ColumnWidth/2, gridBottom+15, fill, planned, day.Capacity))
	}

	right := wc.MarginLeft + len(wc.days)*wc.ColumnWidth
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		right, wc.MarginTop, right, gridBottom))
}

func (wc *WeekChart) drawRows(svg *strings.Builder) {
	right := wc.MarginLeft + len(wc.days)*wc.ColumnWidth
	for i, id := range wc.rows {
		y := wc.MarginTop + i*wc.RowHeight
		label := id
		if c := wc.week.CampaignByID(id); c != nil {
			label = fmt.Sprintf("%s / %s", c.ProductID, c.PackagingID)
		}
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
			wc.MarginLeft-15, y+wc.RowHeight/2+4, html.EscapeString(label)))
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			wc.MarginLeft, y+wc.RowHeight, right, y+wc.RowHeight))
	}
}

func (wc *WeekChart) drawBar(svg *strings.Builder, bar ChartBar) {
	barHeight := wc.RowHeight - 4
	svg.WriteString(fmt.Sprintf(`<g><rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="day-bar"/>`,
		bar.X, bar.Y, bar.Width, barHeight, bar.Color))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="bar-text" text-anchor="middle">%d</text>`,
		bar.X+bar.Width/2, bar.Y+barHeight/2+3, bar.Drums))
	svg.WriteString(fmt.Sprintf(`<title>%s</title></g>`, html.EscapeString(bar.Title)))
}

func (wc *WeekChart) drawLegend(svg *strings.Builder) {
	items := []entities.DayStatus{
		entities.DayReady,
		entities.DayBlocked,
		entities.DayOverCapacity,
		entities.DayReserved,
	}

	y := wc.Height - 20
	for i, status := range items {
		x := wc.MarginLeft + i*120
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`,
			x, y, statusColor(status)))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="day-label">%s</text>`,
			x+18, y+8, status))
	}
}

func statusColor(status entities.DayStatus) string {
	switch status {
	case entities.DayReady:
		return "#4CAF50"
	case entities.DayBlocked:
		return "#F44336"
	case entities.DayOverCapacity:
		return "#FF9800"
	case entities.DayReserved:
		return "#2196F3"
	default:
		return "#9E9E9E"
	}
}
