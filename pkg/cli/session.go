package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/phototools-dev/workflow-runner/pkg/config"
	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/host/fake"
	"github.com/phototools-dev/workflow-runner/pkg/hostrpc"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/report"
)

// Options holds one invocation's resolved settings: config file values
// overlaid with command-line flags.
type Options struct {
	Gateway   string
	Timeout   time.Duration
	LogFile   string
	Verbose   bool
	DryRun    bool
	Profiles  []string
	ReportDir string
	Snapshot  core.SnapshotConfig
}

// resolveOptions merges the config file and the global flags. Flags win.
func resolveOptions(c *cli.Context) (*Options, error) {
	// Helper to get flag value from current or parent context.
	// When run as subcommand, global flags are in parent context.
	getString := func(name string) string {
		if c.IsSet(name) {
			return c.String(name)
		}
		if len(c.Lineage()) > 1 && c.Lineage()[1] != nil {
			return c.Lineage()[1].String(name)
		}
		return c.String(name)
	}
	getBool := func(name string) bool {
		if c.IsSet(name) {
			return c.Bool(name)
		}
		if len(c.Lineage()) > 1 && c.Lineage()[1] != nil {
			return c.Lineage()[1].Bool(name)
		}
		return c.Bool(name)
	}
	getDuration := func(name string) time.Duration {
		if c.IsSet(name) {
			return c.Duration(name)
		}
		if len(c.Lineage()) > 1 && c.Lineage()[1] != nil {
			return c.Lineage()[1].Duration(name)
		}
		return c.Duration(name)
	}

	var cfg *config.Config
	var err error
	if path := getString("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg, err = config.LoadFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	opts := &Options{
		Gateway:   getString("gateway"),
		Timeout:   getDuration("timeout"),
		LogFile:   getString("log-file"),
		Verbose:   getBool("verbose") || cfg.Verbose,
		DryRun:    getBool("dry-run"),
		Profiles:  cfg.Profiles,
		ReportDir: cfg.ReportDir,
		Snapshot:  cfg.Snapshots(),
	}

	if opts.Gateway == "" {
		opts.Gateway = cfg.Gateway
	}
	if opts.LogFile == "" {
		opts.LogFile = cfg.LogFile
	}
	if opts.Timeout == 0 {
		opts.Timeout, err = cfg.StepTimeout()
		if err != nil {
			return nil, fmt.Errorf("invalid timeout in config: %w", err)
		}
	}

	if getBool("no-ansi") {
		colorsEnabled = false
	}

	if opts.LogFile != "" {
		if err := logger.Init(opts.LogFile); err != nil {
			fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
		}
	}
	logger.SetVerbose(opts.Verbose)

	return opts, nil
}

// Session is an open connection to a host, real or in-memory.
type Session struct {
	Client host.Client

	rpc  *hostrpc.Client
	mock *fake.Host
}

// openSession connects to the gateway, or builds the in-memory host for
// --dry-run. A real connection performs the version and capability
// handshake; a gateway this runner cannot speak to is a hard error.
func openSession(ctx context.Context, opts *Options) (*Session, error) {
	if opts.DryRun {
		h := seedFake()
		logger.Info("Dry run: using the in-memory host")
		return &Session{Client: h, mock: h}, nil
	}

	if opts.Gateway == "" {
		return nil, fmt.Errorf("no gateway address; pass --gateway or set it in workflow.yaml")
	}

	client, err := hostrpc.Dial(opts.Gateway)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("cannot use gateway %s: %w", opts.Gateway, err)
	}

	return &Session{Client: client, rpc: client}, nil
}

// Close releases the connection. Safe on a dry-run session.
func (s *Session) Close() {
	if s.rpc != nil {
		if err := s.rpc.Close(); err != nil {
			logger.Warn("close gateway connection: %v", err)
		}
	}
}

// HostInfo describes the connected host for the run report.
func (s *Session) HostInfo(gateway string) report.HostInfo {
	if s.rpc != nil {
		return report.HostInfo{
			Gateway: gateway,
			Product: s.rpc.HostProduct(),
			Version: s.rpc.GatewayVersion(),
		}
	}
	return report.HostInfo{Gateway: "dry-run", Product: "in-memory host"}
}

// Mode returns the runner mode string for the report.
func (s *Session) Mode() string {
	if s.mock != nil {
		return "dry-run"
	}
	return "gateway"
}

// seedFake builds the dry-run host: a small selection of typical raw
// files with metadata, so profiles and rules have something to match.
func seedFake() *fake.Host {
	h := fake.New(fake.Config{})

	images := []host.ImageInfo{
		{ID: 1, Name: "IMG_0001.RAF", Camera: "X-T5", ISO: 125, Aperture: 8, ExposureBias: 0, IsRaw: true},
		{ID: 2, Name: "IMG_0002.RAF", Camera: "X-T5", ISO: 3200, Aperture: 1.4, ExposureBias: -0.7, IsRaw: true},
		{ID: 3, Name: "IMG_0003.JPG", Camera: "X-T5", ISO: 200, Aperture: 5.6, IsRaw: false},
	}

	refs := make([]host.ImageRef, len(images))
	for i, info := range images {
		h.AddImage(info)
		refs[i] = host.ImageRef{ID: info.ID, Name: info.Name}
	}
	if err := h.SetSelection(refs); err != nil {
		logger.Warn("seed selection: %v", err)
	}
	return h
}
