package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTier(t *testing.T) {
	assert.Equal(t, TierStarter, NormalizeTier("starter"))
	assert.Equal(t, TierPro, NormalizeTier("  PRO "))
	assert.Equal(t, TierEnterprise, NormalizeTier("enterprise"))
	assert.Equal(t, TierFree, NormalizeTier("free"))
	assert.Equal(t, TierFree, NormalizeTier(""))
	assert.Equal(t, TierFree, NormalizeTier("unknown"))
}

func TestLimitsGrowWithTier(t *testing.T) {
	assert.Less(t, MaxProjects(TierFree), MaxProjects(TierStarter))
	assert.Less(t, MaxProjects(TierStarter), MaxProjects(TierPro))
	assert.Zero(t, MaxProjects(TierEnterprise), "enterprise is unlimited")

	assert.Less(t, MaxMembers(TierFree), MaxMembers(TierStarter))
	assert.Zero(t, MaxMembers(TierEnterprise))

	assert.Less(t, StorageQuotaBytes(TierFree), StorageQuotaBytes(TierStarter))
	assert.Less(t, StorageQuotaBytes(TierStarter), StorageQuotaBytes(TierPro))
	assert.Zero(t, StorageQuotaBytes(TierEnterprise))
}

func TestAllowsAI(t *testing.T) {
	assert.False(t, AllowsAI(TierFree))
	assert.True(t, AllowsAI(TierStarter))
	assert.True(t, AllowsAI(TierPro))
	assert.True(t, AllowsAI(TierEnterprise))
}
