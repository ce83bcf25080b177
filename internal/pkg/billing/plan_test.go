package billing

import (
	"testing"

	"github.com/flowdeskhq/flowdesk/app/models"
)

func testTierConfig() TierConfig {
	return TierConfig{
		StarterPlanIDs:    []string{"price_starter_m", "2c93808497code"},
		ProPlanIDs:        []string{"price_pro_m", "price_pro_y"},
		EnterprisePlanIDs: []string{"price_ent_m"},
	}
}

func TestResolvePlanTier(t *testing.T) {
	cfg := testTierConfig()

	tests := []struct {
		in   string
		want string
	}{
		{in: "price_starter_m", want: models.PlanTierStarter},
		{in: "2c93808497code", want: models.PlanTierStarter},
		{in: "price_pro_y", want: models.PlanTierPro},
		{in: "price_ent_m", want: models.PlanTierEnterprise},
		// unmatched and absent IDs default to free
		{in: "price_unknown", want: models.PlanTierFree},
		{in: "", want: models.PlanTierFree},
		{in: "   ", want: models.PlanTierFree},
	}

	for _, tt := range tests {
		if got := cfg.ResolvePlanTier(tt.in); got != tt.want {
			t.Fatalf("ResolvePlanTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolvePlanTier_HighestTierWins(t *testing.T) {
	// the same ID configured for two tiers resolves to the higher one
	cfg := TierConfig{
		StarterPlanIDs: []string{"price_dup"},
		ProPlanIDs:     []string{"price_dup"},
	}
	if got := cfg.ResolvePlanTier("price_dup"); got != models.PlanTierPro {
		t.Fatalf("ResolvePlanTier(duplicated) = %q, want pro", got)
	}
}

func TestKnownPlanID(t *testing.T) {
	cfg := testTierConfig()
	if !cfg.KnownPlanID("price_pro_m") {
		t.Fatal("configured plan must be known")
	}
	if cfg.KnownPlanID("price_unknown") {
		t.Fatal("unconfigured plan must not be known")
	}
	if cfg.KnownPlanID("") {
		t.Fatal("empty plan must not be known")
	}
}

func TestTierRank(t *testing.T) {
	if TierRank(models.PlanTierEnterprise) <= TierRank(models.PlanTierPro) {
		t.Fatal("enterprise must outrank pro")
	}
	if TierRank(models.PlanTierPro) <= TierRank(models.PlanTierStarter) {
		t.Fatal("pro must outrank starter")
	}
	if TierRank(models.PlanTierStarter) <= TierRank(models.PlanTierFree) {
		t.Fatal("starter must outrank free")
	}
	if TierRank("garbage") != TierRank(models.PlanTierFree) {
		t.Fatal("unknown tiers rank as free")
	}
}
