package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	fixtures "github.com/vsinha/drumsched/pkg/infrastructure/testing"
)

// buildWideWeek creates products campaigns spread over the week, each with
// its own raw material plus shared water and drums
func buildWideWeek(products int) *fixtures.Scenario {
	s := fixtures.NewScenario(fixtures.PlantWeek)
	s.AddPackaging("DRUM-200", "200", "0", "PK-DRUM200", "PK-CAP")
	s.SetStock("PK-DRUM200", 100000)
	s.SetStock("PK-CAP", 100000)
	s.SetStock("RM-WATER", 10000000)

	for i := 0; i < products; i++ {
		product := entities.ProductID(fmt.Sprintf("P-%03d", i))
		raw := entities.ItemID(fmt.Sprintf("RM-%03d", i))
		s.AddProduct(product, "1.1",
			map[entities.ItemID]string{raw: "0.7", "RM-WATER": "0.3"}, raw, "RM-WATER")
		// every third material runs short
		if i%3 != 0 {
			s.SetStock(raw, 100000)
		}
		s.AddJob(fmt.Sprintf("JO-%04d", i), product, "DRUM-200",
			entities.Drums(10+i%40), s.Day(i%7), entities.JobOrderPending)
	}
	return s
}

func benchmarkRegenerate(b *testing.B, products int) {
	ctx := context.Background()
	scenario := buildWideWeek(products)
	s, err := NewScheduler(dependencies(scenario), DefaultConfig())
	if err != nil {
		b.Fatalf("NewScheduler failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Regenerate(ctx, scenario.WeekStart); err != nil {
			b.Fatalf("Regenerate failed: %v", err)
		}
	}
}

func BenchmarkScheduler_Regenerate_Plant(b *testing.B) {
	ctx := context.Background()
	scenario := fixtures.BuildPlantScenario()
	s, err := NewScheduler(dependencies(scenario), DefaultConfig())
	if err != nil {
		b.Fatalf("NewScheduler failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Regenerate(ctx, scenario.WeekStart); err != nil {
			b.Fatalf("Regenerate failed: %v", err)
		}
	}
}

func BenchmarkScheduler_Regenerate_50Campaigns(b *testing.B) {
	benchmarkRegenerate(b, 50)
}

func BenchmarkScheduler_Regenerate_200Campaigns(b *testing.B) {
	benchmarkRegenerate(b, 200)
}

func TestScheduler_WideWeek(t *testing.T) {
	ctx := context.Background()
	scenario := buildWideWeek(60)
	s := newTestScheduler(t, dependencies(scenario), DefaultConfig())

	result, err := s.Regenerate(ctx, scenario.WeekStart)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if got := len(result.Week.Campaigns); got != 60 {
		t.Fatalf("Expected 60 campaigns, got %d", got)
	}
	if result.BlockedCount != 20 {
		t.Errorf("Expected 20 blocked days, got %d", result.BlockedCount)
	}
	if result.ReadyCount+result.BlockedCount+result.OverCapacityCount != len(result.Week.Days) {
		t.Errorf("Day counts %d/%d/%d do not add up to %d days",
			result.ReadyCount, result.BlockedCount, result.OverCapacityCount, len(result.Week.Days))
	}

	for _, day := range result.Week.Days {
		if planned := result.Week.PlannedOn(day.Date); planned > entities.DefaultDailyCapacity && !day.CapacityExceeded {
			t.Errorf("Day %s plans %d drums without being flagged", entities.FormatDate(day.Date), planned)
		}
	}
}
