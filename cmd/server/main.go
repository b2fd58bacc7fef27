/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift tracking server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load TOML config
  2. Initialize SQLite store
  3. Wire service, event bus, and live-sync notifier
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  TOML config file path (optional; defaults apply without it)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database
  -seed    Seed demo profiles on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the notifier, close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/miehair.db"

  # Run with in-memory database and demo profiles
  ./server -db=":memory:" -seed

  # Run from a config file
  ./server -config=miehair.toml

SEE ALSO:
  - api/server.go: Router configuration
  - shift/service.go: Domain operations
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/czprofess-design/MieHair/api"
	"github.com/czprofess-design/MieHair/config"
	"github.com/czprofess-design/MieHair/shift"
	"github.com/czprofess-design/MieHair/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "TOML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	seed := flag.Bool("seed", false, "seed demo profiles on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *seed {
		if err := seedProfiles(context.Background(), store); err != nil {
			log.Fatalf("Failed to seed profiles: %v", err)
		}
		log.Println("Seeded demo profiles")
	}

	resolver, err := shift.NewResolver(cfg.CalendarTimezone)
	if err != nil {
		log.Fatalf("Failed to load calendar timezone: %v", err)
	}

	// Wire service and live sync
	bus := shift.NewBus()
	svc := shift.NewService(store, store, bus, resolver)

	notifier := shift.NewNotifier(svc, bus)
	notifier.PollInterval = cfg.PollInterval()
	notifier.Start()
	defer notifier.Stop()

	// Initialize handler and router
	handler := api.NewHandler(svc, notifier, &api.ProfileSessions{Profiles: store})
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Create server. WriteTimeout stays zero: report streams are
	// long-lived connections.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// seedProfiles loads a small demo roster so a fresh database is usable
// immediately. The session token is the profile id.
func seedProfiles(ctx context.Context, store *sqlite.Store) error {
	profiles := []shift.Profile{
		{ID: "chi-mie", DisplayName: "Chị Miê", Role: shift.RoleAdmin},
		{ID: "lan", DisplayName: "Lan", Role: shift.RoleEmployee},
		{ID: "huong", DisplayName: "Hương", Role: shift.RoleEmployee},
		{ID: "tuan", DisplayName: "Tuấn", Role: shift.RoleEmployee},
	}
	for _, p := range profiles {
		if err := store.UpsertProfile(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
