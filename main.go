// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/fs"
	"storefront/modules/appconfig"
	"storefront/modules/auth"
	"storefront/modules/clock"
	"storefront/modules/db/postgres"
	"storefront/modules/db/redis"
	"storefront/modules/db/redis/counter"
	"storefront/modules/db/redis/locking"
	hmac_sign "storefront/modules/hmac"
	"storefront/modules/middleware"
	"storefront/modules/middleware/ratelimit"
	rl "storefront/modules/ratelimit"
	"storefront/modules/server"
	"storefront/modules/services"
	"storefront/modules/telemetry"

	identity_pg "storefront/core/identity/adapters/persistence/pg"
	identity_http "storefront/core/identity/adapters/rest"
	identity "storefront/core/identity/domain"

	"storefront/core/store/adapters/cache"
	"storefront/core/store/adapters/events"
	"storefront/core/store/adapters/jobs"
	"storefront/core/store/adapters/media"
	"storefront/core/store/adapters/notify"
	"storefront/core/store/adapters/paystack"
	store_pg "storefront/core/store/adapters/persistence/pg"
	"storefront/core/store/adapters/receipt"
	store_http "storefront/core/store/adapters/rest"
	store "storefront/core/store/domain"
)

const serviceName = "storefront"

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// manual dependency injections, imo there's no need to over-engineer with DI frameworks like Fx or Wire
	clk := clock.RealClock{}

	// --- application config ----
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(appConfig.SlogLevel())

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	// --- infrastructure ---

	connectionPool, err := postgres.New(
		ctx,
		&appConfig.Postgres,
		postgres.PostgresOptions{
			// assuming writer connection does not pass through pgBouncer,
			// so we can apply server-side prepared statements
			WriterOptions: []postgres.PgxConfigOption{
				postgres.WithApplicationName(serviceName),
			},
			ReaderOptions: []postgres.PgxConfigOption{
				postgres.WithPgBouncerSimpleProtocol(),
				postgres.WithApplicationName(serviceName + "-reader"),
				postgres.WithMaxConnIdleTime(5 * time.Minute),
			},
			Migrations:    fs.Assets(),
			MigrationsDir: fs.MigrationsDir,
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "database error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := connectionPool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}()

	if err = connectionPool.HealthCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err = connectionPool.MigrateUp(ctx); err != nil {
		slog.ErrorContext(ctx, "database migration failed", slog.Any("error", err))
		exitCode = 1
		return
	}

	redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
	if err != nil {
		slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer redisClient.Close()

	kv := redis.NewRedisKV(redisClient,
		redis.WithKeyPrefix(appConfig.Cache.Prefix),
		redis.WithDefaultTTL(appConfig.Cache.TTL),
		redis.WithClientSideCache(),
	)

	locker, err := locking.NewRedisLocker(appConfig.Redis, serviceName+":lock:")
	if err != nil {
		slog.ErrorContext(ctx, "redis locker not properly setup", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer locker.Close()

	signer, err := hmac_sign.NewHMACSigner([]byte(appConfig.HMAC.Secret))
	if err != nil {
		slog.ErrorContext(ctx, "hmac signer setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	tokens, err := auth.NewTokenIssuer(appConfig.Auth, clk)
	if err != nil {
		slog.ErrorContext(ctx, "token issuer setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// --- outbound integrations ---

	gateway, err := paystack.NewClient(appConfig.Paystack)
	if err != nil {
		slog.ErrorContext(ctx, "paystack client setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	webhookVerifier, err := paystack.NewSignatureVerifier(appConfig.Paystack)
	if err != nil {
		slog.ErrorContext(ctx, "paystack signature setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	mailer := notify.NewMailer(ctx, appConfig.Mail, notify.NewSender(appConfig.Mail))
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appConfig.Mail.DrainTimeout)
		defer cancel()
		if err := mailer.Close(drainCtx); err != nil {
			slog.ErrorContext(ctx, "mailer shutdown error", slog.Any("error", err))
		}
	}()

	publisher, closePublisher, err := events.New(appConfig.Kafka)
	if err != nil {
		slog.ErrorContext(ctx, "event publisher setup error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := closePublisher(); err != nil {
			slog.ErrorContext(ctx, "event publisher shutdown error", slog.Any("error", err))
		}
	}()

	var mediaStore store.MediaStore
	if appConfig.Media.URL != "" {
		cld, err := media.NewCloudinary(appConfig.Media)
		if err != nil {
			slog.ErrorContext(ctx, "cloudinary setup error", slog.Any("error", err))
			exitCode = 1
			return
		}
		mediaStore = cld
	} else {
		slog.WarnContext(ctx, "cloudinary not configured, image uploads accept urls only")
	}

	// --- persistence ---

	userStore, err := identity_pg.NewPostgresUserStore(ctx, connectionPool)
	if err != nil {
		slog.ErrorContext(ctx, "user store initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}

	storeRepo, err := store_pg.NewPostgresStore(ctx, connectionPool)
	if err != nil {
		slog.ErrorContext(ctx, "store initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// --- application layer ---

	storeMetrics, err := telemetry.NewStoreMetrics(serviceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize store metrics, continuing without metrics", slog.Any("error", err))
		storeMetrics = nil
	}

	identityApp := identity.NewApp(identity.Deps{
		Store:  userStore,
		Tokens: tokens,
		Hasher: auth.Bcrypt{Cost: appConfig.Auth.BcryptCost},
		Clock:  clk,
	})

	storeApp := store.NewApp(store.Deps{
		Store:     storeRepo,
		Gateway:   gateway,
		Signature: webhookVerifier,
		Notifier:  mailer,
		Events:    publisher,
		Media:     mediaStore,
		Receipts:  receipt.NewRenderer(serviceName),
		Cache:     cache.New(kv),
		Locks: jobs.NewLockedRunner(
			locking.NewLockingTaskExecutor(locker,
				locking.WithLogger(slog.Default()),
				locking.WithNamePrefix(serviceName+":"),
			),
			appConfig.Payout,
		),
		Signer:  signer,
		Clock:   clk,
		Metrics: storeMetrics,
	})

	// --- transport ---

	// The mux is shared so global middlewares can resolve route patterns before dispatch.
	mux := http.NewServeMux()
	routeInfo := ratelimit.ServeMuxRouteInfo(mux)
	route := func(r *http.Request) string { return string(routeInfo(r).ID) }

	keyStrategies := map[ratelimit.KeyStrategyId]ratelimit.KeyFunc{
		ratelimit.RemoteIpKeyStrategy: ratelimit.RemoteIpKeyFunc,
		ratelimit.UserKeyStrategy:     ratelimit.SubjectKeyFunc(auth.Subject),
	}

	slog.Debug("app rate limit config", slog.Any("rate_limit_config", appConfig.RateLimit))

	redisCounter := counter.NewInstrumentedRedisCounterStore(redisClient, appConfig.Env, 50*time.Millisecond)
	rtp, err := ratelimit.ParsePolicy(
		rl.SlidingWindowFactory(clk, redisCounter, appConfig.Env),
		&appConfig.RateLimit,
		routeInfo,
		keyStrategies,
	)
	if err != nil {
		slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
		exitCode = 1
		return
	}

	// Initialize HTTP metrics for middleware-based instrumentation
	httpMetrics, err := telemetry.NewHTTPMetrics(serviceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}

	health := server.NewHealthService(map[string]server.HealthChecker{
		"postgres": connectionPool,
		"redis":    kv,
	})

	srv, err := server.New(
		appConfig.Host, appConfig.Port,
		server.WithMux(mux),
		server.WithWriteTimeout(30*time.Second),
		server.WithServices(
			health,
			services.NewIdentityService(identity_http.NewIdentityAPI(identityApp)),
			services.NewStoreService(store_http.NewStoreAPI(storeApp), fs.Assets(), fs.OpenAPIPath),
		),
		server.WithGlobalMiddlewares(
			middleware.Recovery(middleware.ProblemPanicHandler),
			middleware.Telemetry(httpMetrics, route),
			middleware.Tracing(serviceName, route),
			ratelimit.NewRateLimitMiddleware(rtp),
			auth.Authenticate(tokens, userStore),
		),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	go jobs.NewPayoutScheduler(storeApp, appConfig.Payout).Run(ctx)

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}
