package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/messaging"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/metrics"
)

// Имена фоновых задач; используются в блокировках и метриках
const (
	JobDailyDigest  = "daily_digest"
	JobStatsRefresh = "stats_refresh"
)

// noConferenceLabel - подпись для комментариев без конференции
const noConferenceLabel = "Sans conférence"

// SchedulerService представляет сервис планировщика задач
type SchedulerService struct {
	commentRepo    repository.CommentRepository
	conferenceRepo repository.ConferenceRepository
	cache          repository.CacheRepository
	producer       messaging.EventPublisher
	metrics        *metrics.Metrics
	cron           *cron.Cron
	logger         logger.Logger
	config         *config.SchedulerConfig
	now            func() time.Time
	stopped        chan struct{}
}

// NewSchedulerService создает новый экземпляр сервиса планировщика
func NewSchedulerService(
	commentRepo repository.CommentRepository,
	conferenceRepo repository.ConferenceRepository,
	cache repository.CacheRepository,
	producer messaging.EventPublisher,
	metrics *metrics.Metrics,
	config *config.SchedulerConfig,
	logger logger.Logger,
) *SchedulerService {
	// Создаем планировщик с поддержкой секунд
	cronScheduler := cron.New(cron.WithSeconds())

	return &SchedulerService{
		commentRepo:    commentRepo,
		conferenceRepo: conferenceRepo,
		cache:          cache,
		producer:       producer,
		metrics:        metrics,
		cron:           cronScheduler,
		logger:         logger,
		config:         config,
		now:            time.Now,
		stopped:        make(chan struct{}),
	}
}

// Start регистрирует задачи и запускает планировщик до отмены ctx
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler service")

	if err := s.registerJobs(ctx); err != nil {
		return err
	}

	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping scheduler service")
		<-s.cron.Stop().Done()
		close(s.stopped)
	}()

	return nil
}

// Stopped закрывается, когда после отмены ctx завершились все запущенные задачи
func (s *SchedulerService) Stopped() <-chan struct{} {
	return s.stopped
}

// registerJobs регистрирует все задачи в планировщике
func (s *SchedulerService) registerJobs(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{JobDailyDigest, s.config.DailyDigestCron, s.SendDailyDigest},
		{JobStatsRefresh, s.config.StatsRefreshCron, s.RefreshCommentStats},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			s.RunLocked(ctx, job.name, job.run)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", job.name, job.spec, err)
		}
	}
	return nil
}

// RunLocked выполняет задачу под распределенной блокировкой.
// Если блокировку держит другой экземпляр, запуск пропускается.
func (s *SchedulerService) RunLocked(ctx context.Context, name string, run func(context.Context) error) {
	log := s.logger.With("job", name)

	token, ok, err := s.cache.AcquireLock(ctx, "job:"+name, s.config.LockTTL)
	if err != nil {
		log.Error("Failed to acquire job lock", err)
		s.metrics.IncJob(name, err)
		return
	}
	if !ok {
		log.Debug("Job is running elsewhere, skipping")
		return
	}
	defer func() {
		if err := s.cache.ReleaseLock(ctx, "job:"+name, token); err != nil {
			log.Warn("Failed to release job lock", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	started := s.now()
	err = run(ctx)
	s.metrics.IncJob(name, err)
	if err != nil {
		log.Error("Job failed", err)
		return
	}

	log.Info("Job finished", map[string]interface{}{
		"duration": s.now().Sub(started).String(),
	})
}

// SendDailyDigest публикует дайджест комментариев за последние сутки
func (s *SchedulerService) SendDailyDigest(ctx context.Context) error {
	since := s.now().Add(-24 * time.Hour)

	counts, err := s.commentRepo.CountSince(ctx, since)
	if err != nil {
		return err
	}

	entries := make([]messaging.DigestEntry, 0, len(counts))
	total := 0
	for _, c := range counts {
		entries = append(entries, messaging.DigestEntry{
			Conference: conferenceLabel(c),
			Count:      c.Count,
		})
		total += c.Count
	}

	if total == 0 {
		s.logger.Info("No new comments, digest skipped")
		return nil
	}

	event := messaging.NewNotificationEvent(
		domain.NotificationTypeDigest,
		fmt.Sprintf("Guestbook: %d nouveaux commentaires", total),
		formatDigest(entries, since),
	)
	event.EntityType = "digest"
	event.Digest = entries

	if err := s.producer.PublishNotification(ctx, event); err != nil {
		return fmt.Errorf("failed to publish digest: %w", err)
	}

	s.logger.Info("Daily digest published", map[string]interface{}{
		"comments":    total,
		"conferences": len(entries),
	})
	return nil
}

// RefreshCommentStats пересчитывает кэшированные счетчики комментариев
func (s *SchedulerService) RefreshCommentStats(ctx context.Context) error {
	counts, err := s.conferenceRepo.CommentCounts(ctx)
	if err != nil {
		return err
	}

	for _, c := range counts {
		if c.ConferenceID == nil {
			continue
		}
		if err := s.cache.CacheCommentCount(ctx, *c.ConferenceID, c.Count); err != nil {
			return fmt.Errorf("failed to cache count for conference %d: %w", *c.ConferenceID, err)
		}
		s.metrics.SetConferenceComments(conferenceLabel(c), c.Count)
	}

	s.logger.Info("Comment stats refreshed", map[string]interface{}{
		"conferences": len(counts),
	})
	return nil
}

func conferenceLabel(c repository.ConferenceCount) string {
	if c.ConferenceID == nil {
		return noConferenceLabel
	}
	return c.City + " " + c.Year
}

// formatDigest формирует текст дайджеста
func formatDigest(entries []messaging.DigestEntry, since time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Nouveaux commentaires depuis le %s :\n\n", since.Format("02/01/2006 15:04"))
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s : %d\n", e.Conference, e.Count)
	}
	return sb.String()
}
