package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/layerprof/layerprof/internal/config"
	"github.com/layerprof/layerprof/internal/hostctx"
	"github.com/layerprof/layerprof/internal/logging"
	"github.com/layerprof/layerprof/internal/pathclass"
	"github.com/layerprof/layerprof/internal/stack"
	"github.com/layerprof/layerprof/pkg/profiler"
)

func newSimulateCmd() *cobra.Command {
	var (
		configPath string
		outDir     string
		ticks      int
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a synthetic execution through the profiler",
		Long: `Runs a scripted sequence of core, theme and extension call stacks
through the full sampling and persistence pipeline, then prints the
resulting record. Useful as a smoke test of a deployment's settings
(profile directory permissions, lock behavior, log output).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = settings.ProfilesDir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			logger := logging.NewWithComponent(logging.Config{
				Level:  settings.Log.Level,
				Pretty: settings.Log.Pretty,
			}, "simulate")

			root := settings.ContentRoot
			script := [][]stack.Frame{
				{
					{File: filepath.Join(root, "..", "wp-includes", "query.php")},
					{File: filepath.Join(root, "..", "wp-includes", "class-wp.php")},
					{File: filepath.Join(root, "..", "index.php")},
				},
				{
					{File: filepath.Join(root, "plugins", "alpha", "alpha.php")},
					{File: filepath.Join(root, "..", "wp-includes", "plugin.php")},
					{File: filepath.Join(root, "..", "index.php")},
				},
				{
					{File: filepath.Join(root, "themes", "twenty", "single.php")},
					{File: filepath.Join(root, "..", "wp-includes", "template-loader.php")},
					{File: filepath.Join(root, "..", "index.php")},
				},
			}
			i := 0

			reqCtx := hostctx.RequestContext{
				URL:          "simulated://layerprof",
				ClientIP:     "127.0.0.1",
				ScriptPath:   filepath.Join(root, "..", "index.php"),
				PID:          os.Getpid(),
				StartTime:    time.Now(),
				ThemedRender: true,
			}

			p := profiler.NewActive(reqCtx, filepath.Join(outDir, "simulated.json"), profiler.Options{
				Layout:    pathclass.DefaultLayout(root),
				LockRetry: settings.LockRetry(),
				Logger:    &logger,
				Frames: func() []stack.Frame {
					s := script[i%len(script)]
					i++
					return s
				},
			})

			for n := 0; n < ticks; n++ {
				time.Sleep(interval)
				p.Tick()
			}
			time.Sleep(interval)

			rec, ok := p.Finalize(cmd.Context())
			if !ok {
				return nil
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			cmd.Printf("appended to %s\n", filepath.Join(outDir, "simulated.json"))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "settings file (default: $LAYERPROF_CONFIG)")
	cmd.Flags().StringVar(&outDir, "profiles", "", "profiles directory (default: from settings)")
	cmd.Flags().IntVar(&ticks, "ticks", 30, "number of synthetic interruption points")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Millisecond, "simulated work per interval")

	return cmd
}
