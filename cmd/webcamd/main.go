package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("webcamd v%s\n", version)
	fmt.Println("Orientation and zoom state daemon for USB webcam streaming")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  webcamd [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that reads orientation samples from Linux input devices,")
	fmt.Println("  debounces them into a frame rotation (0 or 180 degrees), and")
	fmt.Println("  maintains a zoom ratio model with 2-or-3-option quick select.")
	fmt.Println("  State changes are broadcast over a WebSocket endpoint; control")
	fmt.Println("  actions arrive over a Unix domain socket.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML configuration file (optional)")
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Printf("        Linux input event device for the orientation sensor (default \"/dev/input/event4\")\n")
	fmt.Println("        Overrides the configured device list with a single device")
	fmt.Println()
	fmt.Println("  -camera string")
	fmt.Printf("        Initial camera identifier, main-physical form (default \"0-null\")\n")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default \"/tmp/webcamd.sock\")\n")
	fmt.Println()
	fmt.Println("  -listen string")
	fmt.Printf("        Listen address for the state WebSocket endpoint (default \"127.0.0.1:8787\")\n")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start daemon with default settings")
	fmt.Println("  webcamd")
	fmt.Println()
	fmt.Println("  # Custom sensor device and initial camera")
	fmt.Println("  webcamd -device /dev/input/event7 -camera 1-null")
	fmt.Println()
	fmt.Println("  # Full configuration file")
	fmt.Println("  webcamd -config /etc/webcamd/config.yaml")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to input devices (run as root or add user to 'input' group)")
	fmt.Println("  - Orientation samples are EV_ABS/ABS_MISC events carrying degrees clockwise")
	fmt.Println("  - Vendor camera preference files (physical mapping, zoom ranges, ignored")
	fmt.Println("    cameras) are optional; missing files fall back to defaults")
	fmt.Println()
}

func main() {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	// Parse command-line flags
	var (
		configPath    = flag.String("config", "", "Path to YAML configuration file")
		sensorDevice  = flag.String("device", "", "Linux input event device for the orientation sensor")
		cameraID      = flag.String("camera", "", "Initial camera identifier (main-physical form)")
		ipcSocketPath = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		listenAddr    = flag.String("listen", "", "Listen address for the state WebSocket endpoint")
		logLevelStr   = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion   = flag.Bool("version", false, "Print version and exit")
		showHelp      = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Load configuration: defaults, optional file, then flag overrides
	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	overrides := FlagOverrides{}
	if *sensorDevice != "" {
		overrides.SensorDevice = sensorDevice
	}
	if *cameraID != "" {
		overrides.CameraID = cameraID
	}
	if *ipcSocketPath != "" {
		overrides.IPCSocketPath = ipcSocketPath
	}
	if *listenAddr != "" {
		overrides.StateWSListenAddr = listenAddr
	}
	if *logLevelStr != "" {
		overrides.LogLevel = logLevelStr
	}
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(os.Stdout, logLevel)

	// Open input devices
	var files []*os.File
	for _, dev := range cfg.Sensor.Devices {
		f, openErr := os.Open(ExpandPath(dev))
		if openErr != nil {
			logger.Error("failed to open input device", "device", dev, "error", openErr, "tip", "run as root or add user to 'input' group")
			os.Exit(1)
		}
		defer f.Close()
		files = append(files, f)
	}

	// Load vendor camera preferences (all files optional)
	prefs := LoadVendorCameraPrefs(
		ExpandPath(cfg.Camera.PhysicalMappingFile),
		ExpandPath(cfg.Camera.ZoomRatioRangesFile),
		ExpandPath(cfg.Camera.IgnoredCamerasFile),
		logger)

	// Initialize the controllers
	source := newInputOrientationSource(len(files))
	debouncer := NewRotationDebouncer(source, cfg.Sensor.SensorOrientation, cfg.LensFacing(), orientationUnknown)
	zoom := NewZoomRatioController(cfg.ToZoomConfig())

	// Handle shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// State WebSocket server
	server := NewServer(logger, nil, ServerConfig{})
	daemon := NewDaemon(logger, cfg, source, debouncer, zoom, prefs, server.Hub())
	server.snapshot = daemon.Snapshot
	daemon.RegisterStateListeners()

	// Seed the zoom range and rotation correction for the initial camera
	if err := daemon.SelectCamera(cfg.Camera.DefaultID); err != nil {
		logger.Error("failed to select initial camera", "id", cfg.Camera.DefaultID, "error", err)
		os.Exit(1)
	}

	// Create action channel - central command bus
	actions := make(chan Action, 64)

	// Input readers
	events := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	startInputReaders(files, events, readErr)

	mux := http.NewServeMux()
	server.Register(mux, "/ws/state")
	httpServer := &http.Server{
		Addr:    cfg.StateWS.ListenAddr,
		Handler: mux,
	}

	logger.Debug("starting webcamd", "version", version)
	logger.Info("listening",
		"devices", cfg.Sensor.Devices,
		"sensor_orientation", cfg.Sensor.SensorOrientation,
		"lens_facing", cfg.Sensor.LensFacing,
		"camera", cfg.Camera.DefaultID,
		"ipc", cfg.IPC.SocketPath,
		"state_ws", cfg.StateWS.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.Hub().Run(gctx)
		return nil
	})

	g.Go(func() error {
		return runIPCServer(gctx, ExpandPath(cfg.IPC.SocketPath), actions, logger)
	})

	g.Go(func() error {
		ln, lnErr := net.Listen("tcp", cfg.StateWS.ListenAddr)
		if lnErr != nil {
			return fmt.Errorf("state ws listen failed: %w", lnErr)
		}
		serveErr := httpServer.Serve(ln)
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return daemon.Run(gctx, events, readErr, actions)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutting down on error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
