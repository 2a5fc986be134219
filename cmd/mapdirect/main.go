package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"mapdirect/internal/bootstrap"
	"mapdirect/internal/modules/route/dto"
	"mapdirect/internal/platform/config"
	"mapdirect/internal/platform/logging"
	"mapdirect/internal/ui/views/itinerary"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir    string
	configPath string
	serviceURL string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "mapdirect",
		Short:         "Terminal map with driving, cycling and walking directions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", ".", "directory holding .mapdirect state")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file (default <data-dir>/mapdirect.yaml when present)")
	root.PersistentFlags().StringVar(&flags.serviceURL, "service-url", "", "routing service template containing {profile}")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "trace|debug|info|warn|error")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newRouteCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newProfilesCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	path := flags.configPath
	if path == "" {
		candidate := filepath.Join(flags.dataDir, "mapdirect.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	cfg, err := config.Load(flags.dataDir, path)
	if err != nil {
		return config.Config{}, err
	}
	if flags.serviceURL != "" {
		cfg.ServiceURL = flags.serviceURL
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, cfg.Validate()
}

func loadApp(flags *rootFlags, logger hclog.Logger) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logger)
}

// withCLIApp runs fn against an app logging to stderr.
func withCLIApp(flags *rootFlags, stderr io.Writer, fn func(app *bootstrap.App) error) error {
	level := flags.logLevel
	if level == "" {
		level = "warn"
	}
	app, err := loadApp(flags, logging.New("mapdirect", level, stderr))
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive map",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger, closer, err := logging.OpenFile("mapdirect", cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()
			app, err := bootstrap.New(cfg, logger)
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(app)
		},
	}
}

func newRouteCmd(flags *rootFlags) *cobra.Command {
	var from, to, profileName string
	var vias []string
	var asGeoJSON bool

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute a route between two points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCLIApp(flags, cmd.ErrOrStderr(), func(app *bootstrap.App) error {
				out, err := app.RouteCLI.Plan(context.Background(), from, to, vias, profileName)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asGeoJSON {
					_, _ = fmt.Fprintln(w, string(out.GeoJSON))
					return nil
				}
				printPlan(w, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start as lat,lng")
	cmd.Flags().StringVar(&to, "to", "", "end as lat,lng")
	cmd.Flags().StringArrayVar(&vias, "via", nil, "intermediate stop as lat,lng (repeatable)")
	cmd.Flags().StringVar(&profileName, "profile", "car", "car|bike|foot")
	cmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "print the route as a GeoJSON FeatureCollection")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printPlan(w io.Writer, out dto.PlanOutput) {
	_, _ = fmt.Fprintf(w, "%s via %s (session %d)\n", out.Profile, out.ServicePath, out.SessionID)
	_, _ = fmt.Fprintf(w, "route: %s, %s\n", itinerary.FormatDistance(out.Primary.DistanceM), itinerary.FormatDuration(out.Primary.DurationS))
	for i, alt := range out.Alternatives {
		_, _ = fmt.Fprintf(w, "alternative %d: %s, %s\n", i+1, itinerary.FormatDistance(alt.DistanceM), itinerary.FormatDuration(alt.DurationS))
	}
	for _, m := range out.Markers {
		_, _ = fmt.Fprintf(w, "%d\t%-5s\t%.6f,%.6f\t%s\n", m.Index, m.Role, m.Lat, m.Lng, m.ImageURL)
	}
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded route sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCLIApp(flags, cmd.ErrOrStderr(), func(app *bootstrap.App) error {
				sessions, err := app.RouteCLI.History(context.Background(), limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(w, "no sessions")
					return nil
				}
				for _, s := range sessions {
					_, _ = fmt.Fprintf(w, "%s\t%s#%d\t%s\t%s\t%s\n",
						s.UpdatedAt.Format("2006-01-02 15:04:05"),
						shortRun(s.RunID), s.SessionID, s.Profile, s.Status, sessionSummary(s))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}

func sessionSummary(s dto.SessionOutput) string {
	points := make([]string, 0, len(s.Waypoints))
	for _, p := range s.Waypoints {
		points = append(points, fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng))
	}
	summary := strings.Join(points, " > ")
	if s.DistanceM > 0 {
		summary += fmt.Sprintf(" (%s, %s)", itinerary.FormatDistance(s.DistanceM), itinerary.FormatDuration(s.DurationS))
	}
	if s.Detail != "" {
		summary += " " + s.Detail
	}
	return summary
}

func shortRun(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

func newProfilesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List travel profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCLIApp(flags, cmd.ErrOrStderr(), func(app *bootstrap.App) error {
				for _, p := range app.RouteCLI.Profiles() {
					marker := " "
					if p.Default {
						marker = "*"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %-8s %s\n", marker, p.Name, p.Label, app.Config.ServiceURLFor(p.ServicePath))
				}
				return nil
			})
		},
	}
}
