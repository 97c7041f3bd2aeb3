package initialize

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"servermon/backend/app/controllers"
	"servermon/backend/app/crypto"
	"servermon/backend/app/db"
	"servermon/backend/app/jwt"
	"servermon/backend/app/middleware"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/app/services"
	"servermon/backend/app/socket"
	"servermon/backend/config"
	"servermon/backend/global"
	"servermon/backend/router"
	"servermon/backend/server"

	"github.com/redis/go-redis/v9"
)

// App holds everything main needs to run: the HTTP handler plus the
// background loops it must start.
type App struct {
	Handler    http.Handler
	Correlator *services.Correlator
	Scheduler  *services.BackupScheduler
}

// Build wires the whole backend from config: storage, singletons,
// services, controllers and routes.
func Build(cfg *config.Config) (*App, error) {
	global.Config = cfg

	mdb, err := db.Connect(db.Config{
		Driver:   cfg.DB.Driver,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Pass,
		DBName:   cfg.DB.Name,
		Path:     cfg.DB.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	global.Mdb = mdb
	if err := mdb.AutoMigrate(
		&models.User{},
		&models.Server{},
		&models.AlertRule{},
		&models.Alert{},
		&models.MetricSample{},
		&models.DiskPartitionMetric{},
		&models.NetworkInterfaceMetric{},
		&models.BackupJob{},
		&models.BackupLog{},
		&models.WatchlistService{},
		&models.WatchlistProcess{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if cfg.Redis.Enabled {
		global.Rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	}

	masterKey := cfg.Backup.MasterKey
	if masterKey == "" {
		// ephemeral key: fine for dev, backups created before a restart
		// become undecryptable
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, err
		}
		masterKey = base64.StdEncoding.EncodeToString(raw)
		global.Logger.Warn().Msg("no backup master key configured, generated an ephemeral one")
	}
	box, err := crypto.NewBox(masterKey)
	if err != nil {
		return nil, fmt.Errorf("backup master key: %w", err)
	}

	signer := jwt.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}

	users := repo.NewUserRepository(mdb)
	servers := repo.NewServerRepository(mdb)
	rules := repo.NewAlertRuleRepository(mdb)
	alerts := repo.NewAlertRepository(mdb)
	metrics := repo.NewMetricRepository(mdb)
	backups := repo.NewBackupRepository(mdb)
	watchlist := repo.NewWatchlistRepository(mdb)

	registry := socket.NewRegistry()
	hub := socket.NewHub()

	var notifier services.Notifier
	if cfg.Telegram.Enabled {
		notifier = services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	correlator := services.NewCorrelator(cfg.Command.RetryInterval)
	commands := services.NewCommandService(registry, correlator, cfg.Command.Timeout, cfg.Command.MaxRetries)
	userSvc := services.NewUserService(users, signer)
	serverSvc := services.NewServerService(servers)
	metricSvc := services.NewMetricService(metrics, global.Rdb, hub)
	alertSvc := services.NewAlertService(rules, alerts, hub, notifier)
	tracker := services.NewRestartTracker()
	autoRestart := services.NewAutoRestartService(tracker, watchlist, commands, alertSvc, hub, cfg.Restart.MaxAttempts, cfg.Restart.Cooldown)
	backupSvc := services.NewBackupService(backups, registry, commands, box, hub)
	scheduler := services.NewBackupScheduler(backups, backupSvc, cfg.Backup.CheckInterval)
	watchlistSvc := services.NewWatchlistService(watchlist, commands)

	// correlation callbacks are wired exactly once, before the monitor
	// loop starts
	correlator.OnRetry = commands.ResendOnRetry
	correlator.OnFailure = func(req *services.PendingRequest) {
		hub.Broadcast(socket.ServerGroup(req.ServerID), socket.EvCommandFailed, map[string]interface{}{
			"id":       req.ID,
			"action":   req.Action,
			"serverId": req.ServerID,
			"retries":  req.RetryCount,
		})
	}

	if err := userSvc.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	if err := serverSvc.ResetOnlineFlags(); err != nil {
		return nil, fmt.Errorf("reset online flags: %w", err)
	}

	agentRouter := controllers.NewAgentRouter(correlator, metricSvc, alertSvc, autoRestart, backupSvc, hub)
	agentSrv := server.NewAgentServer(serverSvc, registry, correlator, commands, agentRouter)

	handler := router.New(
		controllers.NewAuthController(userSvc),
		controllers.NewServerController(serverSvc, metricSvc),
		controllers.NewAlertController(rules, alerts),
		controllers.NewBackupController(backups, backupSvc),
		controllers.NewWatchlistController(watchlistSvc),
		controllers.NewCommandController(commands),
		controllers.NewSocketController(hub),
		agentSrv,
		middleware.NewAuth(signer),
	)

	return &App{Handler: handler, Correlator: correlator, Scheduler: scheduler}, nil
}
