package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rafabr7/prototiposiargk/internal/capture"
	"github.com/rafabr7/prototiposiargk/internal/config"
	"github.com/rafabr7/prototiposiargk/internal/cv"
	"github.com/rafabr7/prototiposiargk/internal/database"
	"github.com/rafabr7/prototiposiargk/internal/hunt"
	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "monster-scan",
	Short: "Screen sprite scanner",
	Long:  `Captures a screen region and matches sprite templates against each frame, reporting every detection above the confidence threshold.`,
	RunE:  runScan,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "Settings.ini", "Path to settings file")
	rootCmd.Flags().StringP("profile", "p", "", "Hunt profile YAML to overlay on the settings")
	rootCmd.Flags().String("backend", "", "Capture backend (screenshot or gdi)")
	rootCmd.Flags().Int("fps", 0, "Target capture rate in frames per second")
	rootCmd.Flags().String("region", "", "Capture region as x,y,width,height")
	rootCmd.Flags().String("sprites", "", "Sprite library directory")
	rootCmd.Flags().Float64("threshold", 0, "Minimum match confidence in [0,1]")
	rootCmd.Flags().StringSlice("targets", nil, "Entity names to scan for (default: all loaded)")
	rootCmd.Flags().Int("max-frames", 0, "Stop after this many frames (0 = run until interrupted)")
	rootCmd.Flags().String("db", "", "SQLite database for scan recording (empty = disabled)")
	rootCmd.Flags().String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewLogger("Scan")
	logger.SetMinLevel(logging.ParseLevel(cfg.LogLevel))

	kind, err := cfg.BackendKind()
	if err != nil {
		return err
	}

	library := cv.NewTemplateLibrary(cfg.SpritesDir, logging.NewLogger("Library"))
	if err := library.Load(false); err != nil {
		return fmt.Errorf("failed to load sprite library: %w", err)
	}
	if library.Count() == 0 {
		return fmt.Errorf("no sprites loaded from %s", cfg.SpritesDir)
	}
	logger.InfoWithContext("sprite library loaded", map[string]interface{}{
		"entities":  len(library.Names()),
		"templates": library.Count(),
	})

	engine := cv.NewDetectionEngine(library, logging.NewLogger("Engine"))

	session := capture.NewSession(logging.NewLogger("Capture"))
	source, err := session.Configure(kind, cfg.CaptureOptions())
	if err != nil {
		return fmt.Errorf("failed to configure %s capture: %w", kind, err)
	}
	defer session.StopActive()

	if region := cfg.Region(); region.Valid() {
		source.SetRegion(region)
	}

	var recorder hunt.Recorder
	if cfg.DatabasePath != "" {
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		recorder = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := hunt.NewRunner(source, engine, recorder, cfg, logger)
	runErr := runner.Run(ctx)

	stats := runner.Stats()
	logger.InfoWithContext("scan finished", map[string]interface{}{
		"frames":      stats.Frames,
		"misses":      stats.Misses,
		"detections":  stats.Detections,
		"avg_capture": stats.AvgCapture().String(),
	})

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}

// buildConfig layers settings file, hunt profile and command-line flags,
// later layers winning
func buildConfig(cmd *cobra.Command) (*hunt.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.NewDefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.LoadFromINI(configPath)
		if err != nil {
			return nil, err
		}
	} else if cmd.Flags().Changed("config") {
		return nil, fmt.Errorf("settings file not found: %s", configPath)
	}

	if profilePath, _ := cmd.Flags().GetString("profile"); profilePath != "" {
		profile, err := hunt.LoadProfile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile.ApplyTo(cfg)
	}

	if cmd.Flags().Changed("backend") {
		cfg.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("fps") {
		cfg.TargetFPS, _ = cmd.Flags().GetInt("fps")
	}
	if cmd.Flags().Changed("region") {
		regionStr, _ := cmd.Flags().GetString("region")
		if err := applyRegion(cfg, regionStr); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("sprites") {
		cfg.SpritesDir, _ = cmd.Flags().GetString("sprites")
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("targets") {
		cfg.Targets, _ = cmd.Flags().GetStringSlice("targets")
	}
	if cmd.Flags().Changed("max-frames") {
		cfg.MaxFrames, _ = cmd.Flags().GetInt("max-frames")
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}

	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold %g outside [0,1]", cfg.Threshold)
	}

	return cfg, nil
}

// applyRegion parses "x,y,width,height" into the config region fields
func applyRegion(cfg *hunt.Config, s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return fmt.Errorf("region must be x,y,width,height, got %q", s)
	}

	values := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("invalid region component %q: %w", part, err)
		}
		values[i] = v
	}

	cfg.RegionX, cfg.RegionY, cfg.RegionW, cfg.RegionH = values[0], values[1], values[2], values[3]
	return nil
}
