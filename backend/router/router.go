package router

import (
	"net/http"

	"servermon/backend/app/controllers"
	"servermon/backend/app/middleware"
	"servermon/backend/server"
)

func New(
	authCtrl *controllers.AuthController,
	serverCtrl *controllers.ServerController,
	alertCtrl *controllers.AlertController,
	backupCtrl *controllers.BackupController,
	watchlistCtrl *controllers.WatchlistController,
	cmdCtrl *controllers.CommandController,
	socketCtrl *controllers.SocketController,
	agents *server.AgentServer,
	mw *middleware.Auth,
) http.Handler {
	mux := http.NewServeMux()

	// public
	mux.HandleFunc("POST /login", authCtrl.Login)
	mux.HandleFunc("/ws/agent", agents.Handle)
	mux.HandleFunc("/ws/dashboard", socketCtrl.Serve)

	auth := func(h http.HandlerFunc) http.Handler { return mw.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return mw.RequireAdmin(h) }

	// fleet
	mux.Handle("POST /servers", admin(serverCtrl.Register))
	mux.Handle("GET /servers", auth(serverCtrl.List))
	mux.Handle("GET /servers/{id}", auth(serverCtrl.Get))
	mux.Handle("DELETE /servers/{id}", admin(serverCtrl.Delete))
	mux.Handle("GET /servers/{id}/metrics/latest", auth(serverCtrl.LatestMetrics))
	mux.Handle("GET /servers/{id}/metrics", auth(serverCtrl.MetricsHistory))

	// alerting
	mux.Handle("POST /alert-rules", admin(alertCtrl.CreateRule))
	mux.Handle("GET /alert-rules", auth(alertCtrl.ListRules))
	mux.Handle("PUT /alert-rules/{id}", admin(alertCtrl.UpdateRule))
	mux.Handle("DELETE /alert-rules/{id}", admin(alertCtrl.DeleteRule))
	mux.Handle("GET /alerts", auth(alertCtrl.ListAlerts))
	mux.Handle("GET /servers/{id}/alerts", auth(alertCtrl.ListServerAlerts))
	mux.Handle("POST /alerts/{id}/ack", auth(alertCtrl.Acknowledge))

	// backups
	mux.Handle("POST /backup-jobs", admin(backupCtrl.CreateJob))
	mux.Handle("GET /backup-jobs", auth(backupCtrl.ListJobs))
	mux.Handle("DELETE /backup-jobs/{id}", admin(backupCtrl.DeleteJob))
	mux.Handle("POST /backup-jobs/{id}/trigger", admin(backupCtrl.TriggerNow))
	mux.Handle("GET /backup-jobs/{id}/logs", auth(backupCtrl.ListLogs))

	// watchlist
	mux.Handle("GET /servers/{id}/watchlist/services", auth(watchlistCtrl.ListServices))
	mux.Handle("POST /servers/{id}/watchlist/services", admin(watchlistCtrl.AddService))
	mux.Handle("DELETE /servers/{id}/watchlist/services/{entryId}", admin(watchlistCtrl.RemoveService))
	mux.Handle("GET /servers/{id}/watchlist/processes", auth(watchlistCtrl.ListProcesses))
	mux.Handle("POST /servers/{id}/watchlist/processes", admin(watchlistCtrl.AddProcess))
	mux.Handle("DELETE /servers/{id}/watchlist/processes/{entryId}", admin(watchlistCtrl.RemoveProcess))

	// live commands
	mux.Handle("GET /servers/{id}/processes", auth(cmdCtrl.GetProcesses))
	mux.Handle("GET /servers/{id}/process", auth(cmdCtrl.GetProcess))
	mux.Handle("GET /servers/{id}/services", auth(cmdCtrl.GetServices))
	mux.Handle("GET /servers/{id}/service", auth(cmdCtrl.GetService))
	mux.Handle("GET /servers/{id}/service-log", auth(cmdCtrl.GetServiceLog))
	mux.Handle("GET /servers/{id}/info", auth(cmdCtrl.GetServerInfo))
	mux.Handle("POST /servers/{id}/restart-service", admin(cmdCtrl.RestartService))

	return middleware.Logging(mux)
}
