package main

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeline/internal/app"
	"feeline/internal/repo"
)

var setupOnce sync.Once

func run(t *testing.T, args ...string) {
	t.Helper()
	setupOnce.Do(func() {
		cobra.OnInitialize(initConfig)
		addPersistentFlags()
		registerCommands()
	})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
}

func TestIfChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Int("n", 3, "")
	cmd.Flags().String("s", "", "")
	require.NoError(t, cmd.Flags().Set("n", "4"))

	assert.Equal(t, 4, *ifChanged(cmd, "n", 4))
	assert.Nil(t, ifChanged(cmd, "s", ""))
}

func TestCommandsWriteToWorkspace(t *testing.T) {
	dir := t.TempDir()
	run(t, "--workspace", dir, "--json", "project", "create", "--name", "Site", "--budget", "50000", "--days", "20")
	run(t, "--workspace", dir, "--json", "dev", "add", "--name", "Alice")

	ws, err := app.Open(context.Background(), dir, "")
	require.NoError(t, err)
	defer ws.Close()

	projects, err := ws.Engine.ListProjects(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Site", projects[0].Name)
	assert.EqualValues(t, 50000, projects[0].TotalBudget)
	assert.Equal(t, 20, projects[0].DaysDuration)

	devs, err := ws.Engine.ListDevelopers(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "Alice", devs[0].Name)

	events, err := ws.Engine.Repo.LatestEvents(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "local-user", events[0].ActorID)

	_, err = ws.Engine.Repo.GetAPIKeyByHash(context.Background(), repo.HashAPIKey("none"))
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
