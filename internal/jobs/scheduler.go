package jobs

import (
	"fmt"
	"log"

	"SubseaIntel/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	sweepConfig := NewDefaultSweepConfig()
	if s.config != nil {
		if schedule, ok := s.config["sweep_schedule"].(string); ok && schedule != "" {
			sweepConfig.Schedule = schedule
		}
		if batchSize, ok := s.config["sweep_batch_size"].(int); ok && batchSize > 0 {
			sweepConfig.BatchSize = batchSize
		}
	}

	if err := RunImportSweeper(sweepConfig, s.db); err != nil {
		return fmt.Errorf("failed to start import sweeper: %v", err)
	}
	log.Println("Cron service started — Import Sweeper scheduled")
	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped.")
	return nil
}
