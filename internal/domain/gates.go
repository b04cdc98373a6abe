// Package domain – gate criteria.
//
// A gate criterion is a named boolean condition attached to a phase. Auto
// gates are recomputed from venture/artifact state on every evaluation;
// self-reported gates only change through an explicit caller action. The
// criteria set of a phase is fixed in count and keys once seeded; only the
// satisfied values mutate afterwards.
package domain

import (
	"encoding/json"
	"fmt"
)

// Gate kinds.
const (
	GateAuto         = "auto"
	GateSelfReported = "self_reported"
)

// GateCriterion is a single named boolean gate condition.
type GateCriterion struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
	Satisfied bool   `json:"satisfied"`
}

// GateCriteria is an ordered criteria set. Declaration order is preserved
// for output; lookups go through ByKey/Set so callers never scan by hand.
type GateCriteria []GateCriterion

// ByKey returns a pointer to the criterion with the given key, or nil.
func (g GateCriteria) ByKey(key string) *GateCriterion {
	for i := range g {
		if g[i].Key == key {
			return &g[i]
		}
	}
	return nil
}

// Set updates the satisfied value of the named gate. It reports whether the
// key exists in the set.
func (g GateCriteria) Set(key string, satisfied bool) bool {
	c := g.ByKey(key)
	if c == nil {
		return false
	}
	c.Satisfied = satisfied
	return true
}

// AllSatisfied reports whether every gate in the set holds.
func (g GateCriteria) AllSatisfied() bool {
	for i := range g {
		if !g[i].Satisfied {
			return false
		}
	}
	return true
}

// Missing returns the keys of unsatisfied gates, in declaration order.
func (g GateCriteria) Missing() []string {
	out := make([]string, 0, len(g))
	for i := range g {
		if !g[i].Satisfied {
			out = append(out, g[i].Key)
		}
	}
	return out
}

// Clone returns an independent copy of the criteria set.
func (g GateCriteria) Clone() GateCriteria {
	out := make(GateCriteria, len(g))
	copy(out, g)
	return out
}

// Encode serializes the criteria set for storage on the phase row.
func (g GateCriteria) Encode() (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode gate criteria: %w", err)
	}
	return string(b), nil
}

// DecodeCriteria parses a stored criteria JSON array. An empty string
// decodes to an empty set.
func DecodeCriteria(raw string) (GateCriteria, error) {
	if raw == "" {
		return GateCriteria{}, nil
	}
	var g GateCriteria
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode gate criteria: %w", err)
	}
	return g, nil
}

// PhaseCount is the fixed number of workflow phases per venture.
const PhaseCount = 5

// PhaseTitle returns the display title of a phase number.
func PhaseTitle(number int) string {
	switch number {
	case 1:
		return "Idea & Validation"
	case 2:
		return "Offer & Business Plan"
	case 3:
		return "Legal & Finances"
	case 4:
		return "Launch & First Customer"
	case 5:
		return "Growth & Optimization"
	default:
		return fmt.Sprintf("Phase %d", number)
	}
}

// SeedCriteria returns the fixed gate set for a phase number. Unknown phase
// numbers yield an empty set (they pass through evaluation unchanged).
func SeedCriteria(number int) GateCriteria {
	switch number {
	case 1:
		return GateCriteria{
			{Key: "problem_statement", Label: "Problem statement defined", Kind: GateAuto},
			{Key: "competitors_identified", Label: "At least 3 competitors identified", Kind: GateAuto},
			{Key: "customer_conversations", Label: "Customer conversations held", Kind: GateSelfReported},
		}
	case 2:
		return GateCriteria{
			{Key: "business_plan_complete", Label: "Business plan fields complete", Kind: GateAuto},
			{Key: "offer_created", Label: "Offer document created", Kind: GateAuto},
			{Key: "pricing_set", Label: "Pricing decided", Kind: GateSelfReported},
		}
	case 3:
		return GateCriteria{
			{Key: "entity_chosen", Label: "Legal entity chosen or skipped", Kind: GateAuto},
			{Key: "bookkeeping_setup", Label: "Bookkeeping method chosen", Kind: GateSelfReported},
			{Key: "bank_account", Label: "Bank status logged", Kind: GateSelfReported},
		}
	case 4:
		return GateCriteria{
			{Key: "distribution_active", Label: "Distribution channel active", Kind: GateSelfReported},
			{Key: "first_outreach", Label: "First outreach sent", Kind: GateSelfReported},
			{Key: "first_customer", Label: "First customer acquired", Kind: GateSelfReported},
		}
	case 5:
		return GateCriteria{
			{Key: "revenue_positive", Label: "Revenue positive", Kind: GateSelfReported},
			{Key: "growth_plan", Label: "Growth plan created", Kind: GateAuto},
		}
	default:
		return GateCriteria{}
	}
}
