package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shapecloud/pkg/cache"
	"github.com/matzehuels/shapecloud/pkg/pipeline"
	"github.com/matzehuels/shapecloud/pkg/server"
)

const redisPingTimeout = 5 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string        // listen address
	fontDir  string        // directory for client-selected fonts
	redisURL string        // redis cache; overrides the file cache
	noCache  bool          // disable caching entirely
	timeout  time.Duration // per-request pipeline timeout
	maxBody  int64         // request body limit in bytes
}

func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:     ":8080",
		redisURL: os.Getenv(envRedisURL),
		timeout:  server.DefaultTimeout,
		maxBody:  server.DefaultMaxBodyBytes,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the word cloud HTTP API",
		Long: `Serve the word cloud HTTP API.

  POST /v1/clouds   JSON options in, one rendered artifact out
  GET  /healthz     liveness probe
  GET  /version     build information

Results are cached in redis when --redis-url (or ` + envRedisURL + `) is set,
otherwise in the local file cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", opts.addr, "listen address")
	f.StringVar(&opts.fontDir, "font-dir", "", "allow requests to use font files from this directory")
	f.StringVar(&opts.redisURL, "redis-url", opts.redisURL, "redis cache URL (redis://host:port/db)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout")
	f.Int64Var(&opts.maxBody, "max-body", opts.maxBody, "request body limit in bytes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	if opts.fontDir != "" {
		info, err := os.Stat(opts.fontDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("font dir %s is not a directory", opts.fontDir)
		}
	}

	runner, err := c.newServerRunner(ctx, opts)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(server.Config{
		Runner:       runner,
		Logger:       c.Logger,
		FontDir:      opts.fontDir,
		MaxBodyBytes: opts.maxBody,
		Timeout:      opts.timeout,
	})
	return srv.ListenAndServe(ctx, opts.addr)
}

// newServerRunner picks the server cache: redis when configured, else the
// file cache unless disabled.
func (c *CLI) newServerRunner(ctx context.Context, opts *serveOpts) (*pipeline.Runner, error) {
	if opts.noCache || opts.redisURL == "" {
		return c.newRunner(opts.noCache), nil
	}

	rc, err := cache.NewRedisCache(opts.redisURL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		rc.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.Logger.Info("using redis cache", "prefix", redisKeyPrefix)

	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), redisKeyPrefix)
	return pipeline.NewRunner(rc, keyer, c.Logger), nil
}
