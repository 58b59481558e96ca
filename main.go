// Command farmday starts the Farm Day server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each also readable from the environment) control host/port, the
// scene directory, where sessions and save slots are kept, debug logging,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/farmday/api"
	"github.com/wricardo/farmday/game/config"
	"github.com/wricardo/farmday/game/service"
	"github.com/wricardo/farmday/game/session"
	"github.com/wricardo/farmday/game/storage"
	"github.com/wricardo/farmday/transport/mcp"
	"github.com/wricardo/farmday/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Farm Day Server"
)

const (
	sessionMaxAge       = 24 * time.Hour
	cleanupInterval     = time.Hour
	syncInterval        = 5 * time.Second
	externalAPIURL      = "http://localhost:8080"
	shutdownGracePeriod = 10 * time.Second
	slotsDirName        = "slots"
)

// Slot store kinds accepted by --store
const (
	storeFile   = "file"
	storeGdata  = "gdata"
	storeSQLite = "sqlite"
	storeMemory = "memory"
)

// options holds everything the flags decide
type options struct {
	Host         string
	Port         int
	ConfigDir    string
	DefaultScene string
	SessionsDir  string
	Store        string
	SQLitePath   string
	Debug        bool
	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// services is the wired application behind both modes
type services struct {
	game        service.GameService
	sessions    *session.Manager
	configs     *config.Manager
	persistence session.SessionPersistence
	closers     []io.Closer
}

// Close releases the slot store
func (s *services) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		slog.Error("farmday failed", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "farmday",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing scenes and plants.yaml", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "scene", Usage: "Scene used when a session names none", Sources: cli.EnvVars("DEFAULT_SCENE")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for session files and file save slots", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "store", Value: storeFile, Usage: "Save slot store: file, gdata, sqlite or memory", Sources: cli.EnvVars("FARMDAY_STORE")},
			&cli.StringFlag{Name: "sqlite-path", Value: "farmday.db", Usage: "Database file for the sqlite store", Sources: cli.EnvVars("SQLITE_PATH")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  stdioAction,
			},
		},
		Action: serverAction,
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		Host:         cmd.String("host"),
		Port:         int(cmd.Int("port")),
		ConfigDir:    cmd.String("config-dir"),
		DefaultScene: cmd.String("scene"),
		SessionsDir:  cmd.String("sessions-dir"),
		Store:        cmd.String("store"),
		SQLitePath:   cmd.String("sqlite-path"),
		Debug:        cmd.Bool("debug"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newLogger writes to stderr so stdio mode keeps stdout for the protocol
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: debug}))
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	logger := newLogger(opts.Debug)
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", Version, "mode", "server")

	svc, err := initializeServices(opts, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()
	defer saveAll(svc, logger)

	svc.startRoutines(ctx, logger)
	return runHTTPServer(ctx, opts, svc, logger)
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	logger := newLogger(opts.Debug)
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")

	baseURL, stop, err := startStdioBackend(ctx, opts, externalAPIURL, logger)
	if err != nil {
		return err
	}
	defer stop()

	mcpClient := mcp.NewClient(baseURL, logger.With("component", "mcp"))
	logger.Info("MCP stdio server ready", "api", baseURL)
	return mcpClient.ServeStdio()
}

func saveAll(svc *services, logger *slog.Logger) {
	if err := svc.sessions.SaveAllSessions(); err != nil {
		logger.Warn("failed to save sessions on shutdown", "error", err)
	}
}

// newHandler builds the REST API with the websocket hub and the /mcp
// endpoint mounted. baseURL is where the MCP proxy reaches the API.
func newHandler(ctx context.Context, game service.GameService, baseURL string, logger *slog.Logger) http.Handler {
	hub := websocket.NewHub(logger.With("component", "websocket"))
	go hub.Run(ctx)

	apiServer := api.NewServer(game, hub, logger.With("component", "api"))
	mcpClient := mcp.NewClient(baseURL, logger.With("component", "mcp"))
	apiServer.Mount("/mcp", mcpClient.HTTPHandler())
	return apiServer
}

// runHTTPServer serves the REST API, WebSocket hub, and /mcp endpoint until
// ctx is cancelled. If ngrok is enabled it also serves through a public tunnel.
func runHTTPServer(ctx context.Context, opts options, svc *services, logger *slog.Logger) error {
	addr := opts.addr()
	handler := newHandler(ctx, svc.game, "http://"+addr, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening",
			"addr", addr,
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, handler, logger.With("component", "ngrok"))
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("HTTP server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", "error", shutdownErr)
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler, logger *slog.Logger) {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Info("using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", url,
		"api", url+"/api",
		"websocket", url+"/ws?session=<session_id>",
		"mcp", url+"/mcp")

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// openSlotStore opens the store named by opts.Store. The closer is nil for
// stores that hold nothing open.
func openSlotStore(opts options, logger *slog.Logger) (storage.SlotStore, io.Closer, error) {
	switch opts.Store {
	case storeFile, "":
		store, err := storage.NewFileStore(filepath.Join(opts.SessionsDir, slotsDirName))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case storeGdata:
		store := storage.OpenGdataStore("farmday")
		if !store.Persistent() {
			logger.Warn("gdata store is memory only")
		}
		return store, nil, nil
	case storeSQLite:
		store, err := storage.OpenSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case storeMemory:
		return storage.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want file, gdata, sqlite or memory)", opts.Store)
	}
}

// initializeServices wires storage, the session and config managers, and
// the game service, then restores persisted sessions.
func initializeServices(opts options, logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir, logger.With("component", "config"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if opts.DefaultScene != "" {
		if err := configManager.SetDefault(opts.DefaultScene); err != nil {
			return nil, fmt.Errorf("failed to set default scene: %w", err)
		}
	}

	store, closer, err := openSlotStore(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open slot store: %w", err)
	}
	svc := &services{configs: configManager}
	if closer != nil {
		svc.closers = append(svc.closers, closer)
	}

	// Sessions live next to their slots when the store is a database
	if opts.Store == storeSQLite {
		svc.persistence = session.NewStorePersistence(store)
	} else {
		persistence, err := session.NewFilePersistence(opts.SessionsDir)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		svc.persistence = persistence
	}

	sessionLogger := logger.With("component", "session")
	svc.sessions = session.NewManager(
		session.WithPersistence(svc.persistence),
		session.WithEngineFactory(session.NewStoreFactory(store, configManager, sessionLogger)),
		session.WithLogger(sessionLogger),
	)
	if err := svc.sessions.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", "error", err)
	}

	svc.game = service.NewGameService(svc.sessions, configManager, logger.With("component", "service"))
	return svc, nil
}

// startRoutines runs the background maintenance loops until ctx ends
func (s *services) startRoutines(ctx context.Context, logger *slog.Logger) {
	go sessionCleanupRoutine(ctx, s.sessions, cleanupInterval, logger)
	go filesystemSyncRoutine(ctx, s.sessions, s.persistence, syncInterval, logger)
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their persisted
// record has been deleted out from under the server.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration, logger *slog.Logger) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncSessions(manager, persistence, logger); pruned > 0 {
				logger.Info("persistence sync pruned orphaned sessions", "count", pruned)
			}
		}
	}
}

func syncSessions(manager *session.Manager, persistence session.SessionPersistence, logger *slog.Logger) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			logger.Debug("pruned session from memory", "session", s.ID)
		}
	}
	return pruned
}

// startStdioBackend picks the API the stdio MCP server talks to. An API
// already answering at externalURL is reused and this process opens no
// sessions of its own, so it never writes over that server's records.
// Otherwise the services are started here behind an internal HTTP API on a
// random loopback port. stop shuts down whatever was started and saves its
// sessions.
func startStdioBackend(ctx context.Context, opts options, externalURL string, logger *slog.Logger) (baseURL string, stop func(), err error) {
	logger.Info("checking for external API server", "url", externalURL)
	if apiAvailable(externalURL) {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
		return externalURL, func() {}, nil
	}

	svc, err := initializeServices(opts, logger)
	if err != nil {
		return "", nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		svc.Close()
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL = "http://" + listener.Addr().String()
	logger.Info("starting internal HTTP server for MCP stdio", "url", baseURL)

	routineCtx, cancel := context.WithCancel(ctx)
	svc.startRoutines(routineCtx, logger)

	httpServer := &http.Server{Handler: newHandler(routineCtx, svc.game, baseURL, logger)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", "error", err)
		}
	}()

	stop = func() {
		httpServer.Close()
		cancel()
		saveAll(svc, logger)
		svc.Close()
	}
	return baseURL, stop, nil
}

// apiAvailable reports whether a Farm Day API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
