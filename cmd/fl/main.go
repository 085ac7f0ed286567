package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"feeline/internal/app"
	"feeline/internal/fee"
	"feeline/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "fl",
	Short: "Feeline CLI",
	Long: `Feeline splits a project's budget into a safety net, a management fee, a
deployment fee and a team fee pool, then shares the pool between developers by
the weight of the tasks they own.
- Workspace: the .feeline directory holding the database; feeline.yml next to it holds config.
- Project: budget and fee terms; phases group its tasks on a day schedule.
- Task weight: complexity*2 + time*1.5 + risk*1.5 + dependency + skill, each scored 1-5.
- Fee distribution: read-only report; 'fl fee show' prints it and 'fl payment issue' records it.
- Event log: every change is appended, view with 'fl log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FEELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.String("config", "", "config file (defaults to <workspace>/feeline.yml)")
	flags.Bool("json", false, "output JSON")
	flags.String("actor-id", "local-user", "actor identifier recorded in the event log")
	flags.String("log-level", "", "log level override (debug, info, warn, error)")
	for _, name := range []string{"workspace", "config", "json", "actor-id", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(phaseCmd())
	rootCmd.AddCommand(developerCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(paymentCmd())
	rootCmd.AddCommand(feeCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(earningsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- helpers ---

func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	ws, err := app.Open(ctx, viper.GetString("workspace"), viper.GetString("config"))
	if err != nil {
		return err
	}
	defer ws.Close()
	opts := logging.FromConfig(ws.Config.Log)
	if lvl := viper.GetString("log-level"); lvl != "" {
		opts.Level = lvl
	}
	_, closer := logging.New(opts)
	defer closer.Close()
	return fn(ctx, ws)
}

func actorID() string {
	return viper.GetString("actor-id")
}

// ifChanged returns &v when the flag was set on the command line.
func ifChanged[T any](cmd *cobra.Command, name string, v T) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(out io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

func money(m fee.Money) string {
	return fmt.Sprintf("%.2f", float64(m))
}

func percent(p fee.Percent) string {
	return fmt.Sprintf("%.1f%%", float64(p))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
