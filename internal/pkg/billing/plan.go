package billing

import (
	"strings"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

// TierConfig holds the configured provider plan IDs per paid tier. The lists
// mix Stripe price IDs and Mercado Pago preapproval-plan IDs; a plan ID that
// appears in none of them maps to the free tier.
type TierConfig struct {
	StarterPlanIDs    []string
	ProPlanIDs        []string
	EnterprisePlanIDs []string
}

// LoadTierConfig reads the per-tier plan ID lists from the environment.
func LoadTierConfig() TierConfig {
	return TierConfig{
		StarterPlanIDs:    env.GetEnvList("BILLING_STARTER_PLAN_IDS"),
		ProPlanIDs:        env.GetEnvList("BILLING_PRO_PLAN_IDS"),
		EnterprisePlanIDs: env.GetEnvList("BILLING_ENTERPRISE_PLAN_IDS"),
	}
}

// ResolvePlanTier maps a provider plan ID to an internal tier. Absent or
// unmatched IDs resolve to free.
func (c TierConfig) ResolvePlanTier(providerPlanID string) string {
	id := strings.TrimSpace(providerPlanID)
	if id == "" {
		return models.PlanTierFree
	}
	if containsPlanID(c.EnterprisePlanIDs, id) {
		return models.PlanTierEnterprise
	}
	if containsPlanID(c.ProPlanIDs, id) {
		return models.PlanTierPro
	}
	if containsPlanID(c.StarterPlanIDs, id) {
		return models.PlanTierStarter
	}
	return models.PlanTierFree
}

// KnownPlanID reports whether the ID is configured for any paid tier. Used
// by the checkout initiator to reject plans we would bill for but never
// entitle.
func (c TierConfig) KnownPlanID(providerPlanID string) bool {
	return c.ResolvePlanTier(providerPlanID) != models.PlanTierFree
}

func containsPlanID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// TierRank orders tiers for comparisons (upgrade/downgrade surfaces).
func TierRank(tier string) int {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case models.PlanTierEnterprise:
		return 3
	case models.PlanTierPro:
		return 2
	case models.PlanTierStarter:
		return 1
	default:
		return 0
	}
}
