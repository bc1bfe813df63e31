package cron

import (
	"Parley/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine       *cron.Cron
	presenceSpec string
	presenceJob  *job.PresenceJob
}

func NewCronManager(presenceSpec string, presenceJob *job.PresenceJob) *Manager {
	return &Manager{
		engine:       cron.New(cron.WithSeconds()),
		presenceSpec: presenceSpec,
		presenceJob:  presenceJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if s.presenceJob == nil || s.presenceSpec == "" {
		return nil
	}
	if _, err := s.engine.AddJob(s.presenceSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(s.presenceJob)); err != nil {
		return err
	}
	return nil
}

// Entries 已注册的任务数
func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
