// Package main provides the entry point for the Blueprint Review application.
package main

import (
	"fmt"
	"os"

	"blueprint-review/internal/app"
	"blueprint-review/internal/config"
	"blueprint-review/internal/job"
	"blueprint-review/internal/version"
	"blueprint-review/pkg/log"
	"blueprint-review/ui/mainwindow"
	"blueprint-review/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
)

const appID = "dev.blueprint-review"

var (
	cfgFile  string
	jobID    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "blueprint-review",
	Short: "Review AI findings on construction drawings",
	Long: `Blueprint Review shows the results of drawing analysis jobs as an
annotation overlay on top of the drawing. Findings can be confirmed, flagged,
commented on, redrawn and saved back to the job.`,
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blueprint-review %s\n", version.Version)
		fmt.Printf("  Commit: %s\n", version.GitCommit)
		fmt.Printf("  Built:  %s\n", version.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./blueprint.yaml or ~/.config/blueprint-review/blueprint.yaml)",
	)
	rootCmd.Flags().StringVar(&jobID, "job", "", "job to open on startup (default: the last opened job)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn or error")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return err
	}
	cfg := cm.Get()

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log.Init(log.Options{Level: level, File: cfg.Log.File})
	log.Info(log.Fields{"version": version.String(), "config": cm.ConfigFile()}, "Starting Blueprint Review")

	store, err := job.NewMockStore()
	if err != nil {
		return fmt.Errorf("failed to load job fixtures: %w", err)
	}

	state := app.NewState(store)
	state.SetScanMargin(cfg.ScanBox.Margin)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.BlueprintTheme{})

	win := mainwindow.New(fyneApp, state, cfg, prefs.Load())

	cm.OnChange(win.ApplyConfig)
	cm.WatchConfig()

	if jobID != "" {
		win.OpenJob(jobID)
	} else {
		win.RestoreLastJob()
	}

	win.ShowAndRun()
	return nil
}
