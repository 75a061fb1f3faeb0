package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"rentals/internal/app/commands"
	"rentals/internal/app/dto"
	availabilityapp "rentals/internal/app/handlers/availability"
	bookingapp "rentals/internal/app/handlers/booking"
	extensionapp "rentals/internal/app/handlers/extension"
	lookupsapp "rentals/internal/app/handlers/lookups"
	quotesapp "rentals/internal/app/handlers/quotes"
	"rentals/internal/app/middleware"
	appoutbox "rentals/internal/app/outbox"
	"rentals/internal/app/policies"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	domainavailability "rentals/internal/domain/availability"
	domainextension "rentals/internal/domain/extension"
	"rentals/internal/infra/broker/kafka"
	rediscache "rentals/internal/infra/cache/redis"
	"rentals/internal/infra/config"
	mongostore "rentals/internal/infra/db/mongo"
	ginserver "rentals/internal/infra/http/gin"
	"rentals/internal/infra/inbox"
	"rentals/internal/infra/obs"
	outboxinfra "rentals/internal/infra/outbox"
	"rentals/internal/infra/remote"
	"rentals/internal/infra/storage/memory"
)

const (
	serviceName   = "rentals"
	decisionGroup = "rentals-decisions"
)

type application struct {
	handlers   ginserver.Handlers
	health     obs.HealthHandlers
	background map[string]func(ctx context.Context) error
	closers    []func(ctx context.Context) error
}

func (a *application) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *application) close(ctx context.Context, logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

// storage is the persistence picked by configuration: Mongo when MONGO_URI
// is set, the in-memory stores otherwise.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	inbox       kafka.Inbox
	relay       *outboxinfra.Store
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*application, error) {
	app := &application{
		health:     obs.HealthHandlers{Checks: map[string]obs.Check{}},
		background: map[string]func(ctx context.Context) error{},
	}

	var producer *kafka.Producer
	if cfg.UseKafka() {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig(serviceName))
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer = p
		app.onClose(func(context.Context) error { return producer.Close() })
	}

	store, err := buildStorage(ctx, cfg, logger, metrics, producer, app)
	if err != nil {
		return nil, err
	}

	referrals, locations := buildLookups(cfg, logger, app)

	cal := domainavailability.Default
	planner := extensionapp.Planner{
		Calendar:  cal,
		Referrals: referrals,
		OnChange: func(bookingID string, state domainextension.State) {
			metrics.ExtensionTransition(bookingID, state)
			logger.Debug("extension plan transition", "booking_id", bookingID, "state", state)
		},
	}
	encoder := appoutbox.JSONEventEncoder{}

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[availabilityapp.CheckRangeQuery, dto.Availability](queryBus, availabilityapp.CheckRangeQuery{}.Key(),
		&availabilityapp.CheckRangeHandler{UoWFactory: store.factory, Calendar: cal})
	queries.RegisterHandler[availabilityapp.GetCalendarQuery, dto.Calendar](queryBus, availabilityapp.GetCalendarQuery{}.Key(),
		&availabilityapp.GetCalendarHandler{UoWFactory: store.factory, Calendar: cal})
	queries.RegisterHandler[quotesapp.QuoteStayQuery, dto.Quote](queryBus, quotesapp.QuoteStayQuery{}.Key(),
		&quotesapp.QuoteStayHandler{UoWFactory: store.factory, Calendar: cal, Referrals: referrals})
	queries.RegisterHandler[extensionapp.PlanExtensionQuery, dto.ExtensionPlan](queryBus, extensionapp.PlanExtensionQuery{}.Key(),
		&extensionapp.PlanExtensionHandler{UoWFactory: store.factory, Planner: planner})
	queries.RegisterHandler[lookupsapp.ValidateReferralQuery, policies.Referral](queryBus, lookupsapp.ValidateReferralQuery{}.Key(),
		lookupsapp.NewReferralHandler(referrals, cfg.LookupDebounce))
	queries.RegisterHandler[lookupsapp.SuggestLocationsQuery, []string](queryBus, lookupsapp.SuggestLocationsQuery{}.Key(),
		lookupsapp.NewLocationsHandler(locations, cfg.LookupDebounce))

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](commandBus, bookingapp.RequestBookingCommand{}.Key(),
		&bookingapp.RequestBookingHandler{UoWFactory: store.factory, Calendar: cal, Referrals: referrals, Outbox: store.outbox, Encoder: encoder})
	commands.RegisterHandler[bookingapp.ResolveBookingCommand, *dto.Booking](commandBus, bookingapp.ResolveBookingCommand{}.Key(),
		&bookingapp.ResolveBookingHandler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder})
	commands.RegisterHandler[extensionapp.SubmitExtensionCommand, *dto.ExtensionSubmission](commandBus, extensionapp.SubmitExtensionCommand{}.Key(),
		&extensionapp.SubmitExtensionHandler{UoWFactory: store.factory, Planner: planner, Outbox: store.outbox, Encoder: encoder})

	commandsWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Metrics(metrics),
		middleware.Validation(middleware.SelfValidation),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox, logger),
		middleware.Transaction(store.factory, nil),
	)
	queriesWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryMetrics(metrics),
		middleware.QueryValidation(middleware.SelfValidation),
	)

	if producer != nil {
		if err := startDecisionConsumer(cfg, logger, commandsWithMiddleware, store.inbox, app); err != nil {
			return nil, err
		}
		if store.relay != nil {
			worker := &outboxinfra.Worker{
				Store:       store.relay,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Source:      serviceName,
				ID:          workerID(),
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
				Observe:     metrics.OutboxRecords,
			}
			app.background["outbox-relay"] = worker.Run
		}
	} else if store.relay != nil {
		logger.Warn("KAFKA_BROKERS not set, outbox records stay unsent")
	}

	app.handlers = ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: queriesWithMiddleware},
		Quote:        ginserver.QuoteHandler{Queries: queriesWithMiddleware, Currency: cfg.Currency},
		Booking:      ginserver.BookingHandler{Commands: commandsWithMiddleware, Currency: cfg.Currency},
		Extension:    ginserver.ExtensionHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Currency: cfg.Currency},
		Lookup:       ginserver.LookupHandler{Queries: queriesWithMiddleware},
		Metrics:      metrics.Handler(),
	}
	return app, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics, producer *kafka.Producer, app *application) (storage, error) {
	if cfg.UseMongo() {
		return buildMongoStorage(ctx, cfg, logger, app)
	}

	var sink memory.Sink
	if producer != nil {
		relay := outboxinfra.Sink(producer, cfg.KafkaTopicPrefix, serviceName)
		sink = func(ctx context.Context, records []appoutbox.EventRecord) error {
			if err := relay(ctx, records); err != nil {
				metrics.OutboxRecords(outboxinfra.ResultFailed, len(records))
				return err
			}
			metrics.OutboxRecords(outboxinfra.ResultPublished, len(records))
			return nil
		}
	}
	repo := memory.NewBookingRepository()
	box := memory.NewOutbox(sink)
	n, err := memory.LoadBookingFixtures(ctx, repo, cfg.BookingsFixtures, logger)
	if err != nil {
		return storage{}, fmt.Errorf("booking fixtures: %w", err)
	}
	idem := memory.NewIdempotencyStore()
	idem.TTL = cfg.IdempotencyTTL
	logger.Info("in-memory storage ready", "fixtures", n)
	return storage{
		factory:     memory.NewFactory(repo, box),
		outbox:      box,
		idempotency: idem,
		inbox:       memory.NewInbox(),
	}, nil
}

func buildMongoStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, app *application) (storage, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo connect: %w", err)
	}
	app.onClose(client.Close)
	app.health.Checks["mongo"] = client.Ping

	bookings, err := mongostore.NewBookingRepository(ctx, client.DB)
	if err != nil {
		return storage{}, err
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, err
	}
	box, err := outboxinfra.NewStore(ctx, client.DB, 0)
	if err != nil {
		return storage{}, err
	}
	seen, err := inbox.NewStore(ctx, client.DB, decisionGroup, inbox.DefaultRetention)
	if err != nil {
		return storage{}, err
	}
	if cfg.BookingsFixtures != "" {
		logger.Warn("BOOKINGS_FIXTURES ignored with Mongo storage", "path", cfg.BookingsFixtures)
	}
	logger.Info("mongo storage ready", "db", cfg.MongoDB)
	return storage{
		factory:     mongostore.Factory{DB: client.DB, Bookings: bookings},
		outbox:      box,
		idempotency: idem,
		inbox:       seen,
		relay:       box,
	}, nil
}

// buildLookups prefers the remote services and falls back to static tables.
// Referral verdicts are cached in Redis when REDIS_ADDR is set.
func buildLookups(cfg config.Config, logger *slog.Logger, app *application) (policies.ReferralPort, policies.LocationPort) {
	var referrals policies.ReferralPort = memory.DefaultReferrals()
	if cfg.Referral.URL != "" {
		referrals = remote.NewReferralClient(cfg.Referral.URL, cfg.Referral.Timeout, cfg.Referral.RPS)
	}
	if cfg.UseRedis() {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.onClose(func(context.Context) error { return client.Close() })
		app.health.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		referrals = rediscache.ReferralCache{Next: referrals, Client: client, TTL: cfg.Referral.CacheTTL, Logger: logger}
	}

	var locations policies.LocationPort = memory.DefaultLocations()
	if cfg.Location.URL != "" {
		locations = remote.NewLocationClient(cfg.Location.URL, cfg.Location.Timeout, cfg.Location.RPS)
	}
	return referrals, locations
}

func startDecisionConsumer(cfg config.Config, logger *slog.Logger, bus commands.Bus, seen kafka.Inbox, app *application) error {
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, decisionGroup, kafka.NewConfig(serviceName), kafka.DecisionHandler{
		Commands: bus,
		Inbox:    seen,
		Logger:   logger,
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	app.onClose(func(context.Context) error { return consumer.Close() })
	topic := cfg.KafkaTopicPrefix + kafka.DecisionsTopic
	app.background["decision-consumer"] = func(ctx context.Context) error {
		return consumer.Run(ctx, []string{topic})
	}
	return nil
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = serviceName
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
