package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const incrementRulesKey = "bid_increment_rules"

// DefaultIncrementRules apply when nothing is stored under incrementRulesKey.
var DefaultIncrementRules = domain.IncrementRules{
	Rules: map[string]decimal.Decimal{
		"0-100":   decimal.NewFromInt(5),
		"100-500": decimal.NewFromInt(10),
		"500+":    decimal.NewFromInt(25),
	},
}

type incrementTier struct {
	lower     decimal.Decimal
	upper     decimal.NullDecimal
	increment decimal.Decimal
}

// BiddingRuleDaoImpl resolves the default bid increment for a starting price
// from tiered rules kept in Redis.
type BiddingRuleDaoImpl struct {
	client *redis.Client
	mu     sync.RWMutex
	tiers  []incrementTier
}

func NewBiddingRuleDao(client *redis.Client) *BiddingRuleDaoImpl {
	return &BiddingRuleDaoImpl{
		client: client,
	}
}

func (v *BiddingRuleDaoImpl) LoadRules(ctx context.Context) error {
	rules := DefaultIncrementRules

	data, err := v.client.Get(ctx, incrementRulesKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		if err := v.saveRules(ctx, rules); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("load increment rules: %w", err)
	default:
		var stored domain.IncrementRules
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return fmt.Errorf("decode increment rules: %w", err)
		}
		rules = stored
	}

	tiers, err := parseIncrementTiers(rules)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.tiers = tiers
	v.mu.Unlock()
	return nil
}

func (v *BiddingRuleDaoImpl) saveRules(ctx context.Context, rules domain.IncrementRules) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}

	return v.client.Set(ctx, incrementRulesKey, string(data), 0).Err()
}

// GetIncrementRule returns the increment of the tier containing amount. Amounts
// above every bounded tier fall into the open-ended one.
func (v *BiddingRuleDaoImpl) GetIncrementRule(amount decimal.Decimal) decimal.Decimal {
	v.mu.RLock()
	tiers := v.tiers
	v.mu.RUnlock()

	if len(tiers) == 0 {
		tiers, _ = parseIncrementTiers(DefaultIncrementRules)
	}
	for _, tier := range tiers {
		if amount.LessThan(tier.lower) {
			continue
		}
		if !tier.upper.Valid || amount.LessThan(tier.upper.Decimal) {
			return tier.increment
		}
	}
	return tiers[len(tiers)-1].increment
}

// parseIncrementTiers turns band keys such as "0-100" and "500+" into tiers
// sorted by lower bound.
func parseIncrementTiers(rules domain.IncrementRules) ([]incrementTier, error) {
	if len(rules.Rules) == 0 {
		return nil, errors.New("increment rules: no tiers")
	}

	tiers := make([]incrementTier, 0, len(rules.Rules))
	for band, increment := range rules.Rules {
		if !increment.IsPositive() {
			return nil, fmt.Errorf("increment rules: tier %q has non-positive increment", band)
		}

		var tier incrementTier
		tier.increment = increment
		if lower, ok := strings.CutSuffix(band, "+"); ok {
			d, err := decimal.NewFromString(lower)
			if err != nil {
				return nil, fmt.Errorf("increment rules: tier %q: %w", band, err)
			}
			tier.lower = d
		} else {
			lower, upper, found := strings.Cut(band, "-")
			if !found {
				return nil, fmt.Errorf("increment rules: malformed tier %q", band)
			}
			lo, err := decimal.NewFromString(lower)
			if err != nil {
				return nil, fmt.Errorf("increment rules: tier %q: %w", band, err)
			}
			hi, err := decimal.NewFromString(upper)
			if err != nil {
				return nil, fmt.Errorf("increment rules: tier %q: %w", band, err)
			}
			tier.lower = lo
			tier.upper = decimal.NewNullDecimal(hi)
		}
		tiers = append(tiers, tier)
	}

	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].lower.LessThan(tiers[j].lower)
	})
	return tiers, nil
}
