package cron

import (
	"fmt"
	log "log/slog"
)

// InitCron 注册并启动定时任务，没有可注册的任务时引擎照常启动
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	mgr.Start()
	log.Info("Cron jobs scheduled", "entries", mgr.Entries(), "presence_spec", mgr.presenceSpec)
	return nil
}
