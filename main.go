// Command marblerace starts the Marble Race server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, geometry and results directories, the turn timer,
// logging, version output, and optional ngrok tunneling for external access.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/marblerace/api"
	"github.com/wricardo/marblerace/game/config"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
	"github.com/wricardo/marblerace/game/session"
	"github.com/wricardo/marblerace/transport/mcp"
	"github.com/wricardo/marblerace/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Marble Race Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port           = flag.Int("port", 8080, "HTTP server port")
	host           = flag.String("host", "localhost", "HTTP server host")
	configDir      = flag.String("config-dir", "configs", "Directory containing board geometries (or use CONFIG_DIR env var)")
	geometry       = flag.String("geometry", engine.DefaultGeometry, "Geometry used when a room does not name one")
	resultsDir     = flag.String("results-dir", "results", "Directory for finished game results, empty disables archiving (or use RESULTS_DIR env var)")
	turnTimeout    = flag.Duration("turn-timeout", 0, "End a turn automatically after this long, 0 disables (or use TURN_TIMEOUT env var)")
	roomIdleTTL    = flag.Duration("room-idle-ttl", time.Hour, "Remove rooms with no activity for this long (0 disables)")
	debug          = flag.Bool("debug", false, "Enable debug logging")
	logFormat      = flag.String("log-format", "text", "Log format: text or json")
	version        = flag.Bool("version", false, "Show version information")
	allowedOrigins = flag.String("allowed-origins", "", "Comma separated origins allowed to open a WebSocket, empty allows all (or use ALLOWED_ORIGINS env var)")
	ngrokEnabled   = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth      = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain    = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envOr returns the environment variable key, or fallback when it is unset
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDurationOr parses the environment variable key as a duration.
// Plain integers are read as seconds.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warnf("Ignoring invalid %s=%q", key, v)
	return fallback
}

// applyEnvDefaults fills flags that were not given on the command line from
// the environment. It runs after godotenv.Load so .env values apply too.
func applyEnvDefaults() {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["config-dir"] {
		*configDir = envOr("CONFIG_DIR", *configDir)
	}
	if !set["results-dir"] {
		*resultsDir = envOr("RESULTS_DIR", *resultsDir)
	}
	if !set["turn-timeout"] {
		*turnTimeout = envDurationOr("TURN_TIMEOUT", *turnTimeout)
	}
	if !set["allowed-origins"] {
		*allowedOrigins = envOr("ALLOWED_ORIGINS", *allowedOrigins)
	}
}

// splitOrigins turns a comma separated list into origins
func splitOrigins(list string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                           # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -turn-timeout 30s         # End idle turns after 30 seconds\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -log-format json -debug   # Structured debug logs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                 # Run MCP stdio server\n", os.Args[0])
	}
}

// setupLogging configures the global logger
func setupLogging(debug bool, format string) error {
	log.SetOutput(os.Stderr)

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	} else {
		log.SetLevel(log.InfoLevel)
		log.SetReportCaller(false)
	}
	return nil
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if err := setupLogging(*debug, *logFormat); err != nil {
		log.Fatal(err)
	}
	if envErr == nil {
		log.Debug("Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.WithError(envErr).Warn("Error loading .env file")
	}
	applyEnvDefaults()

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.WithFields(log.Fields{
		"version": Version,
		"mode":    mode,
	}).Infof("Starting %s", AppName)

	gameService, hub, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(gameService, hub)

	case "server", "http":
		runHTTPServer(gameService, hub)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// newRouter mounts the API server at the root and the MCP JSON-RPC endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(gameService service.GameService, hub *websocket.Hub) {
	addr := fmt.Sprintf("%s:%d", *host, *port)

	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		roomCleanupRoutine(ctx, gameService, *roomIdleTTL)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Infof("HTTP server listening on %s", addr)
		log.Infof("REST API: http://%s/api", addr)
		log.Infof("WebSocket: ws://%s/ws", addr)
		log.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter)
		}()
	}

	sig := <-stop
	log.Infof("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is cancelled
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}

	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.WithField("domain", domain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Infof("Ngrok tunnel established: %s", ngrokURL)
	log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	log.Infof("  WebSocket (ngrok): %s/ws", strings.Replace(ngrokURL, "https://", "wss://", 1))
	log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)
	log.Infof("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.WithError(err).Error("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

// initializeServices wires the geometry manager, room registry, result store,
// WebSocket hub and game service. The hub is running when it returns.
func initializeServices() (service.GameService, *websocket.Hub, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if *geometry != "" && *geometry != engine.DefaultGeometry {
		if err := configManager.SetDefault(*geometry); err != nil {
			return nil, nil, fmt.Errorf("failed to load geometry %q: %w", *geometry, err)
		}
	}

	opts := service.Options{TurnTimeout: *turnTimeout}
	if *resultsDir != "" {
		results, err := session.NewFileResultStore(*resultsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create result store: %w", err)
		}
		opts.Results = results
	}

	hub := websocket.NewHub(splitOrigins(*allowedOrigins)...)
	gameService := service.NewGameService(session.NewManager(), configManager, hub, opts)
	hub.SetService(gameService)
	go hub.Run()

	log.WithFields(log.Fields{
		"config_dir":   *configDir,
		"geometry":     configManager.GetDefault().Name(),
		"results_dir":  *resultsDir,
		"turn_timeout": opts.TurnTimeout,
	}).Info("Services initialized")

	return gameService, hub, nil
}

// cleanupInterval picks how often idle rooms are swept for a given TTL
func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

// roomCleanupRoutine periodically removes rooms with no activity within ttl
func roomCleanupRoutine(ctx context.Context, gameService service.GameService, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(cleanupInterval(ttl))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := gameService.CleanupIdleRooms(ctx, ttl); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up idle rooms")
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService, hub *websocket.Hub) {
	var baseURL string

	externalURL := "http://localhost:8080"
	log.Infof("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Infof("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}

		internalAddr := listener.Addr().String()
		log.Infof("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub),
		}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		go roomCleanupRoutine(context.Background(), gameService, *roomIdleTTL)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.WithField("api", baseURL).Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
