package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeline/internal/config"
	"feeline/internal/engine"
	"feeline/internal/fee"
)

func TestOpenUsesDefaultsWithoutConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")
	ws, err := Open(context.Background(), dir, "")
	require.NoError(t, err)
	defer ws.Close()

	assert.Equal(t, fee.DefaultPolicy(), ws.Config.Distribution)
	p, err := ws.Engine.CreateProject(context.Background(), engine.ProjectInput{Name: stringPtr("Site")})
	require.NoError(t, err)
	assert.Equal(t, 12, p.DaysDuration)
}

func TestOpenReadsWorkspaceConfig(t *testing.T) {
	dir := t.TempDir()
	yml := "distribution:\n  management_base: gross\n  denominator: estimated\n"
	require.NoError(t, os.WriteFile(config.Path(dir), []byte(yml), 0o644))

	ws, err := Open(context.Background(), dir, "")
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, fee.ManagementGross, ws.Config.Distribution.ManagementBase)
	assert.Equal(t, fee.DenominatorEstimated, ws.Config.Distribution.Denominator)

	// reopening applies no migrations twice
	ws2, err := Open(context.Background(), dir, "")
	require.NoError(t, err)
	ws2.Close()
}

func TestOpenMissingExplicitConfig(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func stringPtr(s string) *string { return &s }
