// Command panaxeo-coding-arena-2023 starts the battleship arena server.
//
// It exposes the GET-only game API (/fire, /reset), a WebSocket
// spectator endpoint (/ws), and an /mcp HTTP endpoint proxying the
// REST API for agent tooling. Flags control host/port, data and config
// directories, debug logging, and optional ngrok tunneling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/Electry/panaxeo-coding-arena-2023/api"
	"github.com/Electry/panaxeo-coding-arena-2023/game/config"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
	"github.com/Electry/panaxeo-coding-arena-2023/game/session"
	"github.com/Electry/panaxeo-coding-arena-2023/storage"
	"github.com/Electry/panaxeo-coding-arena-2023/transport/mcp"
	"github.com/Electry/panaxeo-coding-arena-2023/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Battleship Arena Server"
)

var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	dataDir      = flag.String("data-dir", envDefault("DATA_DIR", "data"), "Directory for persisted session data")
	configDir    = flag.String("config-dir", envDefault("CONFIG_DIR", "configs"), "Directory with bias tables and reference boards")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("version", Version).Msgf("starting %s", AppName)

	gameService, hub, err := initializeServices()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}

	runHTTPServer(gameService, hub)
}

// initializeServices wires storage, the session store, the config
// manager, the spectator hub and the game service.
func initializeServices() (service.GameService, *websocket.Hub, error) {
	kv, err := storage.NewFileStorage(*dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage: %w", err)
	}

	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	gameService := service.NewGameService(
		session.NewStore(kv),
		service.WithBoardProvider(configManager),
		service.WithBroadcaster(hub),
	)
	return gameService, hub, nil
}

// runHTTPServer starts the HTTP server with the game API, WebSocket
// spectators and an /mcp proxy endpoint. If ngrok is enabled it also
// provisions a public tunnel.
func runHTTPServer(gameService service.GameService, hub *websocket.Hub) {
	apiServer := api.NewServer(gameService)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "token parameter required", http.StatusBadRequest)
			return
		}
		hub.ServeWS(w, r, token)
	})

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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

		log.Info().Str("addr", addr).Msg("HTTP server listening")
		log.Info().Msgf("game API: http://%s/fire", addr)
		log.Info().Msgf("spectators: ws://%s/ws?token=<token>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	if shouldRunNgrok() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter)
		}()
	}

	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
}

func shouldRunNgrok() bool {
	if *ngrokEnabled {
		return true
	}
	enabled := os.Getenv("NGROK_ENABLED")
	return enabled == "true" || enabled == "1"
}

// runNgrokTunnel provisions a public tunnel and serves the router
// through it until the context is cancelled.
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use -ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	log.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}
