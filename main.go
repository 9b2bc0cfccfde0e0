package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carpath/curve"
	"carpath/planner"
	"carpath/world"
)

var (
	debug      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "carpath",
	Short:         "Curvature-constrained path planning for car-like vehicles",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func newPlanner(logger *zap.SugaredLogger) (*planner.Planner, error) {
	cfg := planner.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = planner.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	return planner.New(cfg, logger)
}

// readWorld loads a single file or every *.geojson file of a directory. An empty path is an
// empty, unbounded world.
func readWorld(path string, logger *zap.SugaredLogger) (world.World, error) {
	if path == "" {
		return world.World{}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return world.World{}, errors.Wrapf(err, "world %q", path)
	}
	if info.IsDir() {
		return loadWorldDir(path, logger)
	}
	return loadWorld(path)
}

// parsePose reads "x,y,theta" with theta in radians.
func parsePose(s string) (curve.Pose, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return curve.Pose{}, errors.Errorf("pose %q must be x,y,theta", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return curve.Pose{}, errors.Wrapf(err, "pose %q", s)
		}
		v[i] = f
	}
	return curve.NewPose(v[0], v[1], v[2]), nil
}

func newPlanCmd() *cobra.Command {
	var worldPath, start, goal string
	var radius float64
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one path and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			from, err := parsePose(start)
			if err != nil {
				return err
			}
			to, err := parsePose(goal)
			if err != nil {
				return err
			}
			w, err := readWorld(worldPath, logger)
			if err != nil {
				return err
			}
			p, err := newPlanner(logger)
			if err != nil {
				return err
			}
			if err := p.SetWorld(w); err != nil {
				return err
			}
			res, err := p.Plan(from, to, planner.VehicleSpec{TurningRadius: radius})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&worldPath, "world", "", "GeoJSON world file or directory")
	cmd.Flags().StringVar(&start, "start", "0,0,0", "start pose as x,y,theta")
	cmd.Flags().StringVar(&goal, "goal", "", "goal pose as x,y,theta")
	cmd.Flags().Float64Var(&radius, "radius", 1, "minimum turning radius in meters")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr, worldPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			p, err := newPlanner(logger)
			if err != nil {
				return err
			}
			w, err := readWorld(worldPath, logger)
			if err != nil {
				return err
			}
			if err := p.SetWorld(w); err != nil {
				return err
			}

			s := &server{planner: p, logger: logger}
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           s.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Warnw("shutdown", "error", err)
				}
			}()

			logger.Infow("serving", "addr", addr,
				"endpoints", []string{"POST /world", "POST /plan", "GET /grid", "GET /health"})
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&worldPath, "world", "", "GeoJSON world file or directory loaded at startup")
	return cmd
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "planner config JSON file")
	rootCmd.AddCommand(newPlanCmd(), newServeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("carpath: " + err.Error() + "\n")
		os.Exit(1)
	}
}
