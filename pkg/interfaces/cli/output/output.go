package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/drumsched/pkg/application/dto"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/services"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatSVG  = "svg"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
}

// Printer renders scheduler results in one format
type Printer struct {
	out    io.Writer
	config Config
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer, config Config) (*Printer, error) {
	if config.Format == "" {
		config.Format = FormatText
	}
	switch config.Format {
	case FormatText, FormatJSON, FormatYAML, FormatSVG:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", config.Format)
	}
	return &Printer{out: out, config: config}, nil
}

// ScheduleResult prints the outcome of a regeneration
func (p *Printer) ScheduleResult(result *dto.ScheduleResult) error {
	switch p.config.Format {
	case FormatText:
		fmt.Fprintf(p.out, "%s\n\n", result.Summary)
		p.writeWeek(result.Week)
		p.writeRequisitions(result.Requisitions)
		for _, w := range result.Warnings {
			fmt.Fprintf(p.out, "warning: %s\n", w)
		}
		if p.config.Verbose {
			for _, issue := range result.Issues {
				fmt.Fprintf(p.out, "issue: %s\n", issue)
			}
		}
		return nil
	case FormatSVG:
		return p.writeSVG(result.Week)
	default:
		return p.structured(result, "schedule_result")
	}
}

// Week prints a stored week schedule
func (p *Printer) Week(week *entities.WeekSchedule) error {
	switch p.config.Format {
	case FormatText:
		p.writeWeek(week)
		return nil
	case FormatSVG:
		return p.writeSVG(week)
	default:
		return p.structured(week, "week_schedule")
	}
}

// Approval prints the committed reservations of an approved week
func (p *Printer) Approval(result *dto.ApprovalResult) error {
	if p.config.Format != FormatText && p.config.Format != FormatSVG {
		return p.structured(result, "approval")
	}

	fmt.Fprintf(p.out, "%s\n\n", result.Summary)
	if len(result.Reservations) == 0 {
		return nil
	}
	fmt.Fprintf(p.out, "%-36s %-12s %-14s %-12s %-36s\n", "Reservation", "Item", "Quantity", "Source", "Campaign")
	fmt.Fprintf(p.out, "%-36s %-12s %-14s %-12s %-36s\n",
		strings.Repeat("-", 36), strings.Repeat("-", 12), strings.Repeat("-", 14),
		strings.Repeat("-", 12), strings.Repeat("-", 36))
	for _, r := range result.Reservations {
		source := "stock"
		if r.IsHold() {
			source = r.PONumber
		}
		fmt.Fprintf(p.out, "%-36s %-12s %-14s %-12s %-36s\n", r.ID, r.ItemID, r.Quantity.String(), source, r.CampaignID)
	}
	fmt.Fprintln(p.out)
	return nil
}

// Reopen prints the outcome of returning a week to draft
func (p *Printer) Reopen(result *dto.ReopenResult) error {
	if p.config.Format != FormatText && p.config.Format != FormatSVG {
		return p.structured(result, "reopen")
	}
	fmt.Fprintf(p.out, "Week %s reopened as %s, %d reservations released\n",
		entities.FormatDate(result.Week.WeekStart), result.Week.Status, result.Released)
	return nil
}

// Arrivals prints the open purchase lines matched to the week's needs
func (p *Printer) Arrivals(result *dto.ArrivalsResult) error {
	if p.config.Format != FormatText && p.config.Format != FormatSVG {
		return p.structured(result, "arrivals")
	}

	fmt.Fprintf(p.out, "Expected arrivals for week %s (%d late)\n\n", result.WeekStart, result.Late)
	if len(result.Arrivals) == 0 {
		fmt.Fprintln(p.out, "No open purchase lines")
		return nil
	}
	fmt.Fprintf(p.out, "%-12s %-12s %-14s %-12s %-12s %-6s\n",
		"PO", "Item", "Remaining", "Promised", "Required", "Late")
	fmt.Fprintf(p.out, "%-12s %-12s %-14s %-12s %-12s %-6s\n",
		strings.Repeat("-", 12), strings.Repeat("-", 12), strings.Repeat("-", 14),
		strings.Repeat("-", 12), strings.Repeat("-", 12), strings.Repeat("-", 6))
	for _, a := range result.Arrivals {
		late := ""
		if !a.InTime {
			late = "yes"
		}
		fmt.Fprintf(p.out, "%-12s %-12s %-14s %-12s %-12s %-6s\n",
			a.PONumber, a.ItemID, a.RemainingQty.String(),
			entities.FormatDate(a.PromisedDate), entities.FormatDate(a.RequiredBy), late)
	}
	return nil
}

// Validation prints master data validation findings
func (p *Printer) Validation(result *services.ValidationResult) error {
	if p.config.Format != FormatText && p.config.Format != FormatSVG {
		return p.structured(result, "validation")
	}
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Fprintln(p.out, "Master data is consistent")
		return nil
	}
	fmt.Fprintf(p.out, "%d errors, %d warnings\n", len(result.Errors), len(result.Warnings))
	for _, e := range result.Errors {
		fmt.Fprintf(p.out, "  error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(p.out, "  warning: %s\n", w)
	}
	return nil
}

func (p *Printer) writeWeek(week *entities.WeekSchedule) {
	fmt.Fprintf(p.out, "Week %s  status %s  capacity %d drums/day\n\n",
		entities.FormatDate(week.WeekStart), week.Status, week.DailyCapacity)

	if len(week.Days) > 0 {
		fmt.Fprintf(p.out, "%-10s %-4s %-12s %-12s %-8s %-14s %-18s\n",
			"Date", "Day", "Product", "Packaging", "Drums", "Status", "Blocking")
		fmt.Fprintf(p.out, "%-10s %-4s %-12s %-12s %-8s %-14s %-18s\n",
			strings.Repeat("-", 10), strings.Repeat("-", 4), strings.Repeat("-", 12),
			strings.Repeat("-", 12), strings.Repeat("-", 8), strings.Repeat("-", 14), strings.Repeat("-", 18))
		for _, d := range week.Days {
			fmt.Fprintf(p.out, "%-10s %-4s %-12s %-12s %-8d %-14s %-18s\n",
				entities.FormatDate(d.Date), d.Date.Weekday().String()[:3],
				d.ProductID, d.PackagingID, d.PlannedDrums, d.Status, d.BlockingReason)
			for _, s := range d.Shortages {
				fmt.Fprintf(p.out, "%12s short %s %s of %s (need %s, have %s)\n",
					"", s.Shortage.String(), s.UOM, s.ItemID, s.Required.String(), s.Available.String())
			}
		}
		fmt.Fprintln(p.out)
	}

	if len(week.Unplanned) > 0 {
		fmt.Fprintf(p.out, "Unplanned:\n")
		for _, u := range week.Unplanned {
			fmt.Fprintf(p.out, "  %s/%s %d drums: %s (%s)\n",
				u.ProductID, u.PackagingID, u.Drums, u.Reason, strings.Join(u.JobNumbers, ", "))
		}
		fmt.Fprintln(p.out)
	}
}

func (p *Printer) writeRequisitions(reqs []entities.ProcurementRequisition) {
	for _, req := range reqs {
		fmt.Fprintf(p.out, "Requisition %s (%s)\n", req.ID, req.Status)
		for _, line := range req.Lines {
			fmt.Fprintf(p.out, "  %-12s %-5s %14s %-3s by %s\n",
				line.ItemID, line.ItemType, line.Quantity.String(), line.UOM, entities.FormatDate(line.RequiredBy))
		}
		fmt.Fprintln(p.out)
	}
}

// structured renders JSON or YAML to the writer, or to OutputDir when set
func (p *Printer) structured(v interface{}, name string) error {
	var (
		data []byte
		err  error
	)
	if p.config.Format == FormatYAML {
		data, err = toYAML(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", p.config.Format, err)
	}
	return p.emit(data, name+"."+p.config.Format)
}

func (p *Printer) writeSVG(week *entities.WeekSchedule) error {
	chart, err := NewWeekChart(week)
	if err != nil {
		return err
	}
	return p.emit([]byte(chart.GenerateSVG()), "week_"+entities.WeekKey(week.WeekStart)+".svg")
}

func (p *Printer) emit(data []byte, filename string) error {
	if p.config.OutputDir == "" {
		_, err := p.out.Write(data)
		return err
	}

	if err := os.MkdirAll(p.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(p.config.OutputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if p.config.Verbose {
		fmt.Fprintf(p.out, "Results saved to: %s\n", path)
	}
	return nil
}

// toYAML goes through JSON so field names and order follow the json tags
func toYAML(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
