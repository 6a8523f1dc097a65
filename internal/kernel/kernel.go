// Package kernel assembles the application: repositories, services, the event
// bus and its listeners, the job queue, the scheduler and the HTTP router.
// Servers and CLI commands build one Kernel and use the parts they need.
package kernel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gebeta-app/gebeta/app/controllers"
	"github.com/gebeta-app/gebeta/app/jobs"
	"github.com/gebeta-app/gebeta/app/listeners"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/app/routes"
	"github.com/gebeta-app/gebeta/app/schema"
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/cache"
	"github.com/gebeta-app/gebeta/pkg/database"
	"github.com/gebeta-app/gebeta/pkg/event"
	gql "github.com/gebeta-app/gebeta/pkg/graphql"
	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/metrics"
	"github.com/gebeta-app/gebeta/pkg/middleware"
	"github.com/gebeta-app/gebeta/pkg/queue"
	"github.com/gebeta-app/gebeta/pkg/reqid"
	"github.com/gebeta-app/gebeta/pkg/router"
	"github.com/gebeta-app/gebeta/pkg/schedule"
	"github.com/gebeta-app/gebeta/pkg/workerpool"
	"github.com/gebeta-app/gebeta/pkg/ws"
)

// Kernel is the wired application.
type Kernel struct {
	Store         *repositories.Store
	Bus           *event.Bus
	Hub           *ws.Hub
	Queue         *queue.Queue
	Scheduler     *schedule.Scheduler
	Notifications *services.NotificationService
	Router        *router.Router

	checks map[string]func(context.Context) error
	pool   *workerpool.Pool
}

type options struct {
	store      *repositories.Store
	syncEvents bool
	otpSender  services.OTPSender
	otpCode    func() (string, error)
}

// Option adjusts how New wires the kernel.
type Option func(*options)

// WithStore uses s instead of the configured database.
func WithStore(s *repositories.Store) Option {
	return func(o *options) { o.store = s }
}

// WithSyncEvents runs listeners on the firing goroutine.
func WithSyncEvents() Option {
	return func(o *options) { o.syncEvents = true }
}

func WithOTPSender(s services.OTPSender) Option {
	return func(o *options) { o.otpSender = s }
}

// WithOTPGenerator replaces the random code generator.
func WithOTPGenerator(fn func() (string, error)) Option {
	return func(o *options) { o.otpCode = fn }
}

// New wires the application against the already connected database and
// Redis client. Without a database it falls back to the memory store.
func New(opts ...Option) (*Kernel, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	sender := o.otpSender
	if sender == nil {
		var err error
		if sender, err = services.NewOTPSender(); err != nil {
			return nil, fmt.Errorf("kernel: %w", err)
		}
	}

	k := &Kernel{Store: o.store, Hub: ws.NewHub()}
	if k.Store == nil {
		if database.DB != nil {
			k.Store = repositories.NewGormStore(database.DB)
		} else {
			logger.Warn("kernel: no database connection, using the memory store")
			k.Store = memory.NewStore()
		}
	}

	if o.syncEvents {
		k.Bus = event.New(nil)
	} else {
		k.pool = workerpool.New("events", config.EventWorkers())
		k.Bus = event.New(k.pool)
	}

	k.Queue = newQueue()
	jobs.Register(k.Queue)

	var otpStore services.OTPStore
	var memoryOTP *services.MemoryOTPStore
	if cache.Available() {
		otpStore = services.NewRedisOTPStore(cache.RDB)
	} else {
		memoryOTP = services.NewMemoryOTPStore()
		otpStore = memoryOTP
	}

	authSvc := services.NewAuthService(k.Store.Users)
	otpSvc := services.NewOTPService(k.Store.Users, otpStore, sender)
	if o.otpCode != nil {
		otpSvc.WithGenerator(o.otpCode)
	}
	restaurants := services.NewRestaurantService(k.Store)
	orders := services.NewOrderService(k.Store, k.Bus)
	ratings := services.NewRatingService(k.Store, k.Bus)
	reviews := services.NewReviewService(k.Store, ratings, k.Bus).WithAutoApprove(config.ReviewAutoApprove())
	recipes := services.NewRecipeService(k.Store, ratings)
	favorites := services.NewFavoriteService(k.Store)
	k.Notifications = services.NewNotificationService(k.Store)
	analytics := services.NewAnalyticsService(k.Store)

	listeners.Register(k.Bus, listeners.Deps{
		Notifications: k.Notifications,
		Pusher:        k.Hub,
		Queue:         k.Queue,
		WebhookURL:    config.NotifyWebhookURL(),
		SlackURL:      config.SlackWebhookURL(),
	})

	graph, err := schema.New(restaurants, recipes)
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}

	k.checks = map[string]func(context.Context) error{
		"database": database.Ping,
		"redis":    cache.Ping,
	}

	k.Router = router.New()
	k.Router.Use(metrics.Middleware())
	k.Router.Use(middleware.Recovery)
	k.Router.Use(reqid.Middleware())
	k.Router.Use(middleware.Logger)
	k.Router.Use(middleware.CORS(middleware.CORSOptionsFromConfig()))
	k.Router.Use(middleware.RateLimit(config.RateLimitPerMinute(), time.Minute))

	routes.Register(k.Router, routes.Handlers{
		Auth:          controllers.NewAuthController(authSvc, otpSvc),
		Restaurants:   controllers.NewRestaurantController(restaurants),
		Orders:        controllers.NewOrderController(orders),
		Reviews:       controllers.NewReviewController(reviews),
		Recipes:       controllers.NewRecipeController(recipes),
		Favorites:     controllers.NewFavoriteController(favorites),
		Notifications: controllers.NewNotificationController(k.Notifications),
		Users:         controllers.NewUserController(services.NewUserService(k.Store.Users)),
		Search:        controllers.NewSearchController(services.NewSearchService(k.Store)),
		Analytics:     controllers.NewAnalyticsController(analytics),
		Realtime:      controllers.NewRealtimeController(k.Hub),
		Health:        controllers.NewHealthController(k.checks),
		GraphQL:       gql.Handler(graph),
	})

	k.Scheduler = schedule.New()
	if err := k.schedule(memoryOTP); err != nil {
		return nil, err
	}
	return k, nil
}

func newQueue() *queue.Queue {
	var driver queue.Driver = queue.NewMemoryDriver(1024)
	if config.QueueDriver() == "redis" {
		if cache.Available() {
			driver = queue.NewRedisDriver(cache.RDB)
		} else {
			logger.Warn("kernel: QUEUE_DRIVER=redis but redis is unavailable, using memory")
		}
	}

	var failed queue.FailedStore = queue.NewMemoryFailedStore()
	if database.DB != nil {
		failed = queue.NewGormFailedStore(database.DB)
	}
	return queue.New(driver, queue.WithFailedStore(failed))
}

// schedule registers the maintenance tasks. Redis expires OTP challenges on
// its own, so the purge task only exists for the memory store.
func (k *Kernel) schedule(otp *services.MemoryOTPStore) error {
	err := k.Scheduler.Hourly().Name("notifications:prune").WithoutOverlapping().Run(func(ctx context.Context) error {
		n, err := k.Notifications.Prune(ctx)
		if err != nil {
			return err
		}
		logger.Info("notifications pruned", "count", n)
		return nil
	})
	if err != nil || otp == nil {
		return err
	}
	return k.Scheduler.EveryMinute().Name("otp:purge").Run(func(context.Context) error {
		if n := otp.Purge(time.Now()); n > 0 {
			logger.Debug("otp challenges purged", "count", n)
		}
		return nil
	})
}

// Handler is the HTTP entry point.
func (k *Kernel) Handler() http.Handler { return k.Router.Handler() }

// Checks are the dependency probes shared by /health and the gRPC health
// service.
func (k *Kernel) Checks() map[string]func(context.Context) error { return k.checks }

// Close drains the event pool.
func (k *Kernel) Close() {
	if k.pool != nil {
		k.pool.Shutdown()
	}
}
