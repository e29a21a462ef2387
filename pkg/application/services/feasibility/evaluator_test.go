package feasibility

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vsinha/drumsched/pkg/application/services/availability"
	"github.com/vsinha/drumsched/pkg/domain/entities"
)

var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

type stubResolver struct {
	mu       sync.Mutex
	stock    map[entities.ItemID]int64
	degraded map[entities.ItemID]bool
	calls    map[entities.ItemID]int
}

func newStubResolver(stock map[entities.ItemID]int64) *stubResolver {
	return &stubResolver{
		stock:    stock,
		degraded: make(map[entities.ItemID]bool),
		calls:    make(map[entities.ItemID]int),
	}
}

func (s *stubResolver) Resolve(ctx context.Context, itemID entities.ItemID, requiredBy time.Time) availability.Availability {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[itemID]++

	if s.degraded[itemID] {
		return availability.Availability{
			ItemID:     itemID,
			RequiredBy: requiredBy,
			Degraded:   true,
			Err:        errors.Join(entities.ErrResolverDegraded, errors.New("timeout")),
		}
	}
	return availability.Availability{
		ItemID:     itemID,
		RequiredBy: requiredBy,
		OnHand:     decimal.NewFromInt(s.stock[itemID]),
	}
}

func campaign(id string, date time.Time, reqs map[entities.ItemID]int64) *entities.Campaign {
	c := &entities.Campaign{ID: id, WeekStart: monday, Status: entities.CampaignDraft}
	for _, item := range []entities.ItemID{"PK-DRUM", "RM-ACID", "RM-WATER"} {
		qty, ok := reqs[item]
		if !ok {
			continue
		}
		itemType := entities.ItemTypeRaw
		if item == "PK-DRUM" {
			itemType = entities.ItemTypePack
		}
		c.Requirements = append(c.Requirements, entities.Requirement{
			ItemID:      item,
			ItemType:    itemType,
			RequiredQty: decimal.NewFromInt(qty),
			RequiredBy:  date,
		})
	}
	return c
}

func TestEvaluator_ReadyAndBlocked(t *testing.T) {
	resolver := newStubResolver(map[entities.ItemID]int64{"RM-ACID": 1000, "RM-WATER": 10, "PK-DRUM": 0})
	evaluator := NewEvaluator(resolver, Config{Concurrency: 2}, nil)

	ready, err := evaluator.Evaluate(context.Background(), campaign("c1", monday, map[entities.ItemID]int64{"RM-ACID": 500}))
	require.NoError(t, err)
	assert.Equal(t, entities.DayReady, ready.Status)
	assert.Equal(t, entities.ReasonNone, ready.BlockingReason)
	assert.Empty(t, ready.Shortages)

	blocked, err := evaluator.Evaluate(context.Background(), campaign("c2", monday, map[entities.ItemID]int64{
		"RM-ACID": 500, "RM-WATER": 40, "PK-DRUM": 50,
	}))
	require.NoError(t, err)
	assert.Equal(t, entities.DayBlocked, blocked.Status)
	assert.Equal(t, entities.ReasonMaterialShortage, blocked.BlockingReason)
	require.Len(t, blocked.Shortages, 2)
	assert.Equal(t, entities.ItemID("PK-DRUM"), blocked.Shortages[0].ItemID)
	assert.True(t, blocked.Shortages[0].Shortage.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, entities.ItemID("RM-WATER"), blocked.Shortages[1].ItemID)
	assert.True(t, blocked.Shortages[1].Shortage.Equal(decimal.NewFromInt(30)))
}

func TestEvaluator_LedgerPreventsDoubleCounting(t *testing.T) {
	resolver := newStubResolver(map[entities.ItemID]int64{"RM-ACID": 100})
	evaluator := NewEvaluator(resolver, Config{}, nil)

	results, err := evaluator.EvaluateAll(context.Background(), []*entities.Campaign{
		campaign("first", monday, map[entities.ItemID]int64{"RM-ACID": 60}),
		campaign("second", monday, map[entities.ItemID]int64{"RM-ACID": 60}),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Ready())
	assert.False(t, results[1].Ready())
	assert.True(t, results[1].Requirements[0].AvailableQty.Equal(decimal.NewFromInt(40)))
	assert.True(t, results[1].Requirements[0].ShortageQty.Equal(decimal.NewFromInt(20)))

	// one item on one date is resolved once per pass
	assert.Equal(t, 1, resolver.calls["RM-ACID"])
}

func TestEvaluator_DegradedBlocksAndClaimsNothing(t *testing.T) {
	resolver := newStubResolver(map[entities.ItemID]int64{"RM-ACID": 100})
	resolver.degraded["RM-WATER"] = true
	evaluator := NewEvaluator(resolver, Config{}, nil)

	result, err := evaluator.Evaluate(context.Background(), campaign("c1", monday, map[entities.ItemID]int64{
		"RM-ACID": 10, "RM-WATER": 5,
	}))
	require.NoError(t, err)

	assert.Equal(t, entities.DayBlocked, result.Status)
	require.Len(t, result.Degraded, 1)
	assert.ErrorIs(t, result.Degraded[0], entities.ErrResolverDegraded)
	require.Len(t, result.Shortages, 1)
	assert.True(t, result.Shortages[0].Degraded)
}

func TestEvaluator_Idempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	resolver := newStubResolver(map[entities.ItemID]int64{"RM-ACID": 300, "RM-WATER": 5, "PK-DRUM": 12})
	evaluator := NewEvaluator(resolver, Config{Concurrency: 3}, nil)
	campaigns := []*entities.Campaign{
		campaign("a", monday, map[entities.ItemID]int64{"RM-ACID": 200, "PK-DRUM": 10}),
		campaign("b", monday.AddDate(0, 0, 1), map[entities.ItemID]int64{"RM-ACID": 200, "RM-WATER": 1, "PK-DRUM": 10}),
	}

	first, err := evaluator.EvaluateAll(context.Background(), campaigns)
	require.NoError(t, err)
	second, err := evaluator.EvaluateAll(context.Background(), campaigns)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("EvaluateAll not idempotent (-first +second):\n%s", diff)
	}
	// inputs are never mutated
	assert.True(t, campaigns[0].Requirements[0].AvailableQty.IsZero())
}

func TestEvaluator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evaluator := NewEvaluator(newStubResolver(nil), Config{}, nil)
	_, err := evaluator.Evaluate(ctx, campaign("c1", monday, map[entities.ItemID]int64{"RM-ACID": 1}))
	assert.ErrorIs(t, err, context.Canceled)
}
