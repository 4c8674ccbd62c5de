package room

import (
	"context"

	"truco-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically drops rooms that keep rejects. A room with no seated
// humans and no game in progress is never worth keeping.
type Janitor struct {
	cron     *cron.Cron
	registry Registry
	keep     func(Room) bool
	onRemove func(code string)
}

func NewJanitor(registry Registry, keep func(Room) bool, onRemove func(code string)) *Janitor {
	if keep == nil {
		keep = DefaultKeep
	}
	return &Janitor{
		cron:     cron.New(),
		registry: registry,
		keep:     keep,
		onRemove: onRemove,
	}
}

func DefaultKeep(r Room) bool {
	return r.HumanCount() > 0 || r.InGame
}

// Start schedules Sweep on spec, e.g. "@every 1m".
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	logger.Log.Info("room janitor started", zap.String("spec", spec))
	return nil
}

// Stop halts the schedule; the returned context is done once a running sweep finishes.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

func (j *Janitor) Sweep() {
	removed := j.registry.Sweep(j.keep)
	for _, code := range removed {
		if j.onRemove != nil {
			j.onRemove(code)
		}
	}
	if len(removed) > 0 {
		logger.Log.Info("rooms swept", zap.Strings("rooms", removed))
	}
}
