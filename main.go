package main

import (
	"errors"
	"time"

	"github.com/wfunc/roomserver/broadcast"
	"github.com/wfunc/roomserver/catalog"
	"github.com/wfunc/roomserver/config"
	"github.com/wfunc/roomserver/coordinator"
	"github.com/wfunc/roomserver/logger"
	"github.com/wfunc/roomserver/monitor"
	"github.com/wfunc/roomserver/persistence"
	"github.com/wfunc/roomserver/registry"
	"github.com/wfunc/roomserver/server"
	"github.com/wfunc/roomserver/services"
	"github.com/wfunc/roomserver/session"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Pick the registry backing store
	var store registry.Store
	if cfg.Database.Enabled {
		pg := cfg.Database.Postgres
		var err error
		switch cfg.Database.Driver {
		case "sql":
			store, err = persistence.NewSQLStore(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		default:
			store, err = persistence.NewGormStore(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Database connection successful.")
	} else {
		logger.Log.Info("Running on the in-memory store.")
		store = registry.NewMemoryStore()
	}

	reg := registry.New(store)
	defer reg.Close()

	gormStore, _ := store.(*persistence.GormStore)
	roomService := services.NewRoomService(reg, gormStore, cfg.Game.DefaultCapacity)

	// Seed configured rooms so clients have something to join
	for _, roomID := range cfg.Game.SeedRooms {
		if _, err := roomService.CreateRoomWithID(roomID, roomID, 0); err != nil && !errors.Is(err, registry.ErrRoomExists) {
			logger.Log.Warnf("Seeding room %s failed: %v", roomID, err)
		}
	}

	sessions := session.NewManager()
	dispatcher := broadcast.NewRoomBroadcaster()
	themes := catalog.New(cfg.Game.Themes)
	coord := coordinator.New(reg, themes, dispatcher)

	mon := monitor.NewMonitor("roomserver")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	idleTimeout := time.Duration(cfg.Server.IdleTimeoutSec) * time.Second
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress,
		coord, sessions, reg, roomService, mon, idleTimeout)

	// Start Server
	logger.Log.Infof("Starting room server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
