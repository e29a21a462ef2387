package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/drumsched/pkg/application/dto"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/services"
)

var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func sampleWeek(t *testing.T) *entities.WeekSchedule {
	t.Helper()
	week, err := entities.NewWeekSchedule(monday, 600)
	require.NoError(t, err)

	week.Days = []entities.ScheduleDay{
		{
			ID:           "day-1",
			Date:         monday,
			CampaignID:   "c-caustic",
			ProductID:    "P-CAUSTIC",
			PackagingID:  "DRUM-200",
			PlannedDrums: 400,
			Status:       entities.DayReady,
		},
		{
			ID:             "day-2",
			Date:           monday.AddDate(0, 0, 1),
			CampaignID:     "c-acid",
			ProductID:      "P-ACID",
			PackagingID:    "DRUM-200",
			PlannedDrums:   500,
			Status:         entities.DayBlocked,
			BlockingReason: entities.ReasonMaterialShortage,
			Shortages:      []entities.ShortageDetail{{
				ItemID:    "RM-ACID",
				ItemType:  entities.ItemTypeRaw,
				UOM:       entities.UnitKG,
				Required:  decimal.NewFromInt(106250),
				Available: decimal.NewFromInt(100000),
				Shortage:  decimal.NewFromInt(6250),
			}},
		},
	}
	week.Unplanned = []entities.UnplannedCampaign{{
		ProductID:   "P-NOBOM",
		PackagingID: "DRUM-200",
		Drums:       50,
		JobNumbers:  []string{"JO-1006"},
		Reason:      "BOM_MISSING",
	}}
	week.Status = entities.WeekBlocked
	return week
}

func TestNewPrinter_RejectsUnknownFormat(t *testing.T) {
	_, err := NewPrinter(&bytes.Buffer{}, Config{Format: "csv"})
	assert.Error(t, err)

	p, err := NewPrinter(&bytes.Buffer{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, FormatText, p.config.Format)
}

func TestPrinter_WeekText(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, Config{Format: FormatText})
	require.NoError(t, err)

	require.NoError(t, p.Week(sampleWeek(t)))
	out := buf.String()

	assert.Contains(t, out, "Week 2025-01-06  status BLOCKED")
	assert.Contains(t, out, "2025-01-07 Tue  P-ACID")
	assert.Contains(t, out, "short 6250 KG of RM-ACID")
	assert.Contains(t, out, "P-NOBOM/DRUM-200 50 drums: BOM_MISSING (JO-1006)")
}

func TestPrinter_ApprovalText(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, Config{})
	require.NoError(t, err)

	require.NoError(t, p.Approval(&dto.ApprovalResult{
		Week:    sampleWeek(t),
		Summary: "Week 2025-01-06 approved",
		Reservations: []entities.Reservation{
			{ID: "res-1", Kind: entities.ReservationKindStock, ItemID: "RM-ACID", Quantity: decimal.NewFromInt(40), CampaignID: "c-1"},
			{ID: "res-2", Kind: entities.ReservationKindHold, ItemID: "RM-ACID", Quantity: decimal.NewFromInt(60), PONumber: "PO-9002", CampaignID: "c-1"},
		},
	}))

	out := buf.String()
	assert.Contains(t, out, "Week 2025-01-06 approved")
	lines := strings.Split(out, "\n")
	var stockLine, holdLine string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "res-1"):
			stockLine = line
		case strings.HasPrefix(line, "res-2"):
			holdLine = line
		}
	}
	assert.Contains(t, stockLine, "stock")
	assert.Contains(t, holdLine, "PO-9002")
}

func TestPrinter_StructuredFormats(t *testing.T) {
	result := &dto.ArrivalsResult{
		WeekStart: "2025-01-06",
		Arrivals: []entities.ArrivalRecord{{
			ItemID:       "RM-ACID",
			PONumber:     "PO-9002",
			RemainingQty: decimal.NewFromInt(10000),
			PromisedDate: monday.AddDate(0, 0, 4),
			RequiredBy:   monday.AddDate(0, 0, 1),
		}},
		Late: 1,
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, Config{Format: FormatJSON})
		require.NoError(t, err)
		require.NoError(t, p.Arrivals(result))

		var decoded dto.ArrivalsResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 1, decoded.Late)
		assert.Equal(t, "PO-9002", decoded.Arrivals[0].PONumber)
	})

	t.Run("yaml keeps json field names in order", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, Config{Format: FormatYAML})
		require.NoError(t, err)
		require.NoError(t, p.Arrivals(result))

		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "week_start: "), out)
		assert.Less(t, strings.Index(out, "arrivals:"), strings.Index(out, "late: 1"))

		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		arrivals := decoded["arrivals"].([]interface{})
		first := arrivals[0].(map[string]interface{})
		assert.Equal(t, "PO-9002", first["po_number"])
		assert.Equal(t, "10000", first["remaining_qty"])
		assert.Equal(t, false, first["in_time"])
	})
}

func TestPrinter_WritesToOutputDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, Config{Format: FormatJSON, OutputDir: dir})
	require.NoError(t, err)

	require.NoError(t, p.Validation(&services.ValidationResult{
		Warnings: []string{"product P-X has no BOM lines"},
	}))
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(filepath.Join(dir, "validation.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"product P-X has no BOM lines"`)
}

func TestWeekChart(t *testing.T) {
	week := sampleWeek(t)
	chart, err := NewWeekChart(week)
	require.NoError(t, err)

	bars := chart.Bars()
	require.Len(t, bars, 2)
	assert.Equal(t, "#4CAF50", bars[0].Color)
	assert.Equal(t, "#F44336", bars[1].Color)
	assert.Equal(t, bars[0].X+chart.ColumnWidth, bars[1].X)
	assert.Equal(t, bars[0].Y+chart.RowHeight, bars[1].Y)

	svg := chart.GenerateSVG()
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "400 / 600")
	assert.Contains(t, svg, "Week 2025-01-06 (BLOCKED)")
}

func TestWeekChart_Empty(t *testing.T) {
	week, err := entities.NewWeekSchedule(monday, 600)
	require.NoError(t, err)

	chart, err := NewWeekChart(week)
	require.NoError(t, err)
	assert.Empty(t, chart.Bars())
	assert.Contains(t, chart.GenerateSVG(), "No campaigns scheduled")
}
