package entitlements

import (
	"strings"

	"github.com/flowdeskhq/flowdesk/app/models"
)

type Tier string

const (
	TierFree       Tier = models.PlanTierFree
	TierStarter    Tier = models.PlanTierStarter
	TierPro        Tier = models.PlanTierPro
	TierEnterprise Tier = models.PlanTierEnterprise
)

// NormalizeTier folds unknown tier strings to free.
func NormalizeTier(tier string) Tier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case string(TierStarter):
		return TierStarter
	case string(TierPro):
		return TierPro
	case string(TierEnterprise):
		return TierEnterprise
	default:
		return TierFree
	}
}

// MaxProjects returns the project limit per workspace. 0 means unlimited.
func MaxProjects(tier Tier) int64 {
	switch tier {
	case TierEnterprise:
		return 0
	case TierPro:
		return 100
	case TierStarter:
		return 10
	default:
		return 3
	}
}

// MaxMembers returns the member limit per workspace. 0 means unlimited.
func MaxMembers(tier Tier) int64 {
	switch tier {
	case TierEnterprise:
		return 0
	case TierPro:
		return 50
	case TierStarter:
		return 10
	default:
		return 5
	}
}

// StorageQuotaBytes returns the resource-storage quota per workspace.
// 0 means unlimited.
func StorageQuotaBytes(tier Tier) int64 {
	const gb = int64(1024 * 1024 * 1024)
	switch tier {
	case TierEnterprise:
		return 0
	case TierPro:
		return 100 * gb
	case TierStarter:
		return 10 * gb
	default:
		return 1 * gb
	}
}

// AllowsAI reports whether AI-assisted features are available. Any paid
// tier qualifies; the HTTP layer additionally requires the subscription to
// be premium-active via billing.IsPremium.
func AllowsAI(tier Tier) bool {
	return tier != TierFree
}
