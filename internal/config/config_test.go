package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeline/internal/fee"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, fee.DefaultPolicy(), cfg.Distribution)
	assert.Equal(t, 327.5, cfg.ProjectDefaults.EstimatedTotalWeight)
	assert.Equal(t, fee.Percent(50), cfg.ProjectDefaults.DPPercent)
	assert.Contains(t, cfg.RBAC.Roles, "admin")
	assert.Equal(t, "/v0", cfg.Server.BasePath)
}

func TestFromYAMLKeepsDefaultsForOmittedSections(t *testing.T) {
	cfg, err := FromYAML([]byte("distribution:\n  denominator: estimated\n"))
	require.NoError(t, err)
	assert.Equal(t, fee.ManagementNet, cfg.Distribution.ManagementBase)
	assert.Equal(t, fee.DenominatorEstimated, cfg.Distribution.Denominator)
	assert.Equal(t, fee.Percent(10), cfg.ProjectDefaults.SafetyNetPercent)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"policy":  "distribution:\n  management_base: sideways\n",
		"percent": "project_defaults:\n  safety_net_percent: 120\n",
		"weight":  "project_defaults:\n  estimated_total_weight: 0\n",
		"webhook": "webhooks:\n  - url: ftp://example.com\n",
		"rbac":    "rbac:\n  roles:\n    admin:\n      permissions: [\"\"]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(Path(dir), []byte("server:\n  addr: 0.0.0.0:9090\n"), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
}
