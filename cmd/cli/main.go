// Command fitness-cli works on the local snapshot without starting the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"alcyxob/fitness-tracker/internal/backup"
	"alcyxob/fitness-tracker/internal/cloudsync"
	"alcyxob/fitness-tracker/internal/config"
	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/localstore"
	"alcyxob/fitness-tracker/internal/notify"
	"alcyxob/fitness-tracker/internal/repository/memory"
	"alcyxob/fitness-tracker/internal/service"
	"alcyxob/fitness-tracker/internal/state"
)

type logNotifier struct{}

func (logNotifier) Notify(level notify.Level, message string) {
	log.Printf("INFO: [%s] %s", level, message)
}

// openTracker loads the local snapshot. The session is never signed in, so every
// operation stays local.
func openTracker(configPath string) (service.TrackerService, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	slot, err := localstore.OpenSQLiteSlot(cfg.Local.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open local storage: %w", err)
	}

	st := state.New(domain.Snapshot{})
	remote := cloudsync.NewRemote(memory.NewDocumentStore())
	orchestrator := cloudsync.NewOrchestrator(remote, st, logNotifier{})
	session := identity.NewSession(nil)

	tracker := service.NewTrackerService(st, localstore.NewStore(slot), remote, orchestrator, session, logNotifier{}, service.ExportOptions{})
	if _, err := tracker.Init(); err != nil {
		slot.Close()
		return nil, nil, err
	}
	return tracker, func() { slot.Close() }, nil
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "fitness-cli",
		Short:         "Work with the local fitness tracker data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	root.AddCommand(
		newProfilesCmd(&configPath),
		newStatsCmd(&configPath),
		newExportCmd(&configPath),
		newImportCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newProfilesCmd(configPath *string) *cobra.Command {
	var selectID string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List profiles, or select the current one with --select",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, closeFn, err := openTracker(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			if selectID != "" {
				if err := tracker.SwitchProfile(context.Background(), selectID); err != nil {
					return err
				}
			}
			for _, p := range tracker.ListProfiles() {
				marker := " "
				if p.Current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s (%d workouts)\n", marker, p.ID, p.Emoji, p.Name, p.WorkoutCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&selectID, "select", "", "profile id to make current")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counters and personal records of the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, closeFn, err := openTracker(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := tracker.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			c := stats.Counters
			fmt.Fprintf(out, "Workouts: %d total, %d this week, %d gym, %d cardio\n", c.Total, c.ThisWeek, c.Gym, c.Cardio)
			if stats.SuggestedBodyPart != "" {
				fmt.Fprintf(out, "Suggested next: %s\n", stats.SuggestedBodyPart)
			}

			names := make([]string, 0, len(stats.Records))
			for name := range stats.Records {
				names = append(names, name)
			}
			sort.Strings(names)
			if len(names) > 0 {
				fmt.Fprintln(out, "Personal records:")
			}
			for _, name := range names {
				r := stats.Records[name]
				fmt.Fprintf(out, "  %-24s %8.1f  %s\n", name, r.Weight, r.Date.Format("2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full statistics as JSON")
	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the backup artifact to stdout or a file",
		Long: `Write every profile with its workouts and templates as a backup artifact.

Examples:
  fitness-cli export                                  # JSON to stdout
  fitness-cli export -o fitnessTrackerBackup.json     # JSON to file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, closeFn, err := openTracker(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			data, err := tracker.Export()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outputFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(configPath *string) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply a backup artifact to the local data",
		Long: `Apply a backup artifact.

Modes:
  replace  discard local data and use the backup as-is
  merge    add profiles, workouts and templates whose ids are not present yet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := backup.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			tracker, closeFn, err := openTracker(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := tracker.Import(context.Background(), data, mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s): %d profiles\n", args[0], mode, len(tracker.ListProfiles()))
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(backup.ModeMerge), "replace or merge")
	return cmd
}
