package wire

import (
	"FollowTracker/internal/api"
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/api/handler"
	"FollowTracker/internal/job"
	"FollowTracker/internal/pkg/cron"
	"FollowTracker/internal/pkg/kafka"
	"FollowTracker/internal/pkg/lock"
	"FollowTracker/internal/pkg/redis"
	"FollowTracker/internal/pkg/slack"
	"FollowTracker/internal/pkg/upstream"
	"FollowTracker/internal/repository"
	"FollowTracker/internal/service"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	CronMgr       *cron.Manager
	PollSvc       service.PollService
	TrackerSvc    service.TrackerService
	DeltaProducer *kafka.DeltaProducer
}

// BuildApplication rdb 为 nil 时使用进程内账号锁
func BuildApplication(db *gorm.DB, rdb *goredis.Client, cfg *config.Config) (*ApplicationContainer, error) {
	trackedAccountRepo := repository.NewTrackedAccountRepo(db)
	snapshotRepo := repository.NewSnapshotRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)

	var locker service.AccountLocker
	if rdb != nil {
		locker = redis.NewAccountLocker(rdb, time.Duration(cfg.Tracker.LockTTL)*time.Second)
		log.Info("Using redis account lock")
	} else {
		locker = lock.NewKeyedLocker()
		log.Info("Using in-process account lock")
	}

	upstreamClient := upstream.NewClient(cfg.Upstream)

	notifiers := []service.Notifier{slack.NewNotifier(cfg.Slack)}
	var deltaProducer *kafka.DeltaProducer
	if cfg.Kafka.Enable {
		p, err := kafka.NewDeltaProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		deltaProducer = p
		notifiers = append(notifiers, p)
	}

	trackerService := service.NewTrackerService(trackedAccountRepo, snapshotRepo, upstreamClient)
	detector := service.NewDeltaDetector(snapshotRepo, locker)
	ledger := service.NewNotificationLedger(notificationRepo)
	pollService := service.NewPollService(
		trackedAccountRepo,
		trackerService,
		detector,
		ledger,
		service.NewMultiNotifier(notifiers...),
		upstreamClient,
		service.PollOptions{
			PageSize:       upstreamClient.PageSize(),
			AccountPause:   time.Duration(cfg.Tracker.AccountPause) * time.Millisecond,
			FullPagination: cfg.Tracker.FullPagination,
		},
	)

	handlers := &api.HandlersGroup{
		TrackedAccountHandler: handler.NewTrackedAccountHandler(trackerService, pollService),
		NotificationHandler:   handler.NewNotificationHandler(ledger),
		SweepHandler:          handler.NewSweepHandler(pollService),
	}

	router := api.SetupRouter(handlers)

	cronMgr, err := cron.NewCronManager(
		job.NewFollowingSweepJob(pollService),
		cfg.Tracker.Interval,
		time.Duration(cfg.Tracker.StopTimeout)*time.Second,
	)
	if err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:        router,
		DB:            db,
		CronMgr:       cronMgr,
		PollSvc:       pollService,
		TrackerSvc:    trackerService,
		DeltaProducer: deltaProducer,
	}, nil
}
