/*
Package main
File: main.go
Description: Server entry point. Loads the game configuration, starts the
session manager and the lobby hub, and runs the reaper heartbeat that
clears out abandoned sessions.
*/

package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/everforgeworks/pizza-copter/internal/api"
	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
	"github.com/everforgeworks/pizza-copter/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := getEnv("PORT", "8081")
	configPath := getEnv("GAME_CONFIG", "game.yaml")
	ttl := getDuration("SESSION_TTL", 2*time.Minute)
	reapEvery := getDuration("REAP_INTERVAL", 60*time.Second)

	// 1. Load the catalog and tuning from YAML
	cfg, err := game.LoadConfig(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("Config %s not found, using built-in defaults", configPath)
		cfg = game.DefaultConfig()
	case err != nil:
		log.Fatalf("Config Fail: %v", err)
	}
	store := game.NewConfigStore(configPath, cfg)
	log.Printf("Config loaded orders=%d capacity=%d pickup=%s start=%s",
		len(cfg.Orders), cfg.Tuning.Capacity, cfg.Tuning.PickupPolicy, cfg.Tuning.StartMode)

	// 2. Session manager and the lobby hub
	sessions := session.NewManager(store)
	lobby := api.NewHub()
	go lobby.Run()

	// 3. THE REAPER HEARTBEAT
	// Drops sessions nobody has watched for SESSION_TTL and pulses the lobby.
	go func() {
		ticker := time.NewTicker(reapEvery)
		defer ticker.Stop()
		for range ticker.C {
			reaped := sessions.Reap(ttl, time.Now())
			lobby.Publish(protocol.Lobby{Sessions: sessions.List(), Reaped: reaped})
			if len(reaped) > 0 {
				log.Printf("Reaper: removed %d sessions, %d live", len(reaped), sessions.Len())
			}
		}
	}()

	// 4. Hot-reload: SIGHUP refreshes the config for sessions created afterwards
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for range sigChan {
			log.Println("SIGNAL: Reloading game config...")
			if err := store.Reload(); err != nil {
				log.Printf("Reload failed, keeping previous config: %v", err)
				continue
			}
			log.Printf("Reloaded orders=%d", len(store.Current().Orders))
		}
	}()

	// 5. Router
	router := api.NewRouter(&api.Handler{
		Sessions: sessions,
		Configs:  store,
		Lobby:    lobby,
	})

	// 6. Start the Server
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Printf("PIZZA COPTER server live addr=:%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// 7. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("SIGNAL: Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	sessions.StopAll(5 * time.Second)
	lobby.Stop()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Ignoring %s=%q: want a positive duration like 90s", key, v)
		return fallback
	}
	return d
}
