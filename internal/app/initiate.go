package app

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/productivefire/server/internal/pkg/clock"
	"github.com/productivefire/server/internal/pkg/config"
	"github.com/productivefire/server/internal/pkg/goroutine"
	"github.com/productivefire/server/internal/pkg/hash"
	"github.com/productivefire/server/internal/pkg/idempotency"
	"github.com/productivefire/server/internal/pkg/instrument"
	"github.com/productivefire/server/internal/pkg/jwt"
	"github.com/productivefire/server/internal/pkg/mail"
	"github.com/productivefire/server/internal/pkg/messaging"
	"github.com/productivefire/server/internal/pkg/otp"
	"github.com/productivefire/server/internal/pkg/ratelimit"
	"github.com/productivefire/server/internal/pkg/router"
	"github.com/productivefire/server/internal/pkg/storage"
	"github.com/productivefire/server/internal/pkg/uid"
	"github.com/productivefire/server/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	storeDriverPostgres = "postgres"
	storeDriverMemory   = "memory"

	scopePubSub = "https://www.googleapis.com/auth/pubsub"
)

func (a *App) initConfig() {
	if a.config == nil {
		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "/config/config.yaml"
			if os.Getenv("LOCAL") == "true" {
				path = "./config/config.yaml"
			}
		}

		cfg, err := config.NewViper(path)
		if err != nil {
			slog.Error("failed to init config", "error", err)
			os.Exit(1)
		}
		a.config = cfg
	}

	if tz := a.config.GetString("app.timezone"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	if a.clock == nil {
		loc := time.Local
		if tz := a.config.GetString("app.timezone"); tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				slog.Error("failed to load app timezone", "timezone", tz, "error", err)
				os.Exit(1)
			}
			loc = l
		}
		a.clock = clock.NewIn(loc)
	}
	if a.otp == nil {
		a.otp = otp.NewSixDigit()
	}

	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.codeHash = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))

	password, err := hash.NewPassword(
		a.config.GetString("hash.password.algorithm"),
		a.config.GetInt("hash.password.bcrypt_cost"),
		a.config.GetString("hash.password.pepper"),
	)
	if err != nil {
		slog.Error("failed to init password hash", "error", err)
		os.Exit(1)
	}
	a.password = password

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	session, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.session.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.session.audiences"),
		TTL:       a.config.GetDuration("jwt.session.ttl"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init session jwt", "error", err)
		os.Exit(1)
	}
	a.jwt = session

	reset, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.reset.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.reset.audiences"),
		TTL:       a.config.GetDuration("jwt.reset.ttl"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init reset jwt", "error", err)
		os.Exit(1)
	}
	a.resetJWT = reset
}

func (a *App) initDatabase() {
	driver := strings.ToLower(strings.TrimSpace(a.config.GetString("store.driver")))
	switch driver {
	case storeDriverMemory:
		return
	case "", storeDriverPostgres:
	default:
		slog.Error("failed to init database, unknown store driver", "driver", driver)
		os.Exit(1)
	}

	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	//nolint:gosec // pool sizes are small positive numbers from config
	config.MaxConns = int32(a.config.GetInt("database.pool.max_conns"))
	//nolint:gosec // pool sizes are small positive numbers from config
	config.MinConns = int32(a.config.GetInt("database.pool.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	// The database may still be starting next to us, so the first ping backs off.
	b := retry.NewFibonacci(500 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxDuration(a.config.GetSecond("database.connect_timeout_seconds"), b)

	err = retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.WarnContext(ctx, "database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) needsRedis() bool {
	return strings.EqualFold(a.config.GetString("ratelimit.driver"), ratelimit.DriverRedis) ||
		strings.EqualFold(a.config.GetString("idempotency.driver"), ratelimit.DriverRedis)
}

func (a *App) initCache() {
	if !a.needsRedis() {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initRateLimit() {
	driver, err := ratelimit.ParseDriver(a.config.GetString("ratelimit.driver"))
	if err != nil {
		slog.Error("failed to init rate limit", "error", err)
		os.Exit(1)
	}

	rules := []ratelimit.Rule{
		{
			Name:   "general",
			Limit:  a.config.GetInt("ratelimit.general.limit"),
			Window: a.config.GetDuration("ratelimit.general.window"),
		},
		{
			Name:   "auth",
			Limit:  a.config.GetInt("ratelimit.auth.limit"),
			Window: a.config.GetDuration("ratelimit.auth.window"),
		},
	}

	limiters := make([]ratelimit.Limiter, 0, len(rules))
	for _, rule := range rules {
		if driver == ratelimit.DriverRedis {
			l, err := ratelimit.NewRedis(a.cacheConn, rule)
			if err != nil {
				slog.Error("failed to init rate limit", "rule", rule.Name, "error", err)
				os.Exit(1)
			}
			limiters = append(limiters, l)
			continue
		}

		l, err := ratelimit.NewMemory(rule, a.clock)
		if err != nil {
			slog.Error("failed to init rate limit", "rule", rule.Name, "error", err)
			os.Exit(1)
		}
		a.goroutine.Every(a.ctx, "ratelimit sweep "+rule.Name, rule.Window, func(ctx context.Context) error {
			_, err := l.Sweep(ctx)
			return err
		})
		limiters = append(limiters, l)
	}

	a.generalLimiter = limiters[0]
	a.authLimiter = limiters[1]
}

func (a *App) initIdempotency() {
	if strings.EqualFold(a.config.GetString("idempotency.driver"), ratelimit.DriverRedis) {
		a.idemp = idempotency.NewRedis(a.cacheConn)
		return
	}

	a.idemp = idempotency.NewMemory(a.clock)
}

func (a *App) initMail() {
	if a.mail != nil {
		return
	}

	m, err := mail.NewFromDriver(a.config.GetString("mail.driver"), mail.SMTPConfig{
		Host:               a.config.GetString("mail.smtp.host"),
		Port:               a.config.GetInt("mail.smtp.port"),
		Username:           a.config.GetString("mail.smtp.username"),
		Password:           a.config.GetString("mail.smtp.password"),
		From:               a.config.GetString("mail.from"),
		SSL:                a.config.GetBool("mail.smtp.ssl"),
		InsecureSkipVerify: a.config.GetBool("mail.smtp.insecure_skip_verify"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = m
}

// googleCredentials builds client options from a credentials file or an
// inline base64 JSON key under prefix.
func (a *App) googleCredentials(prefix string, scopes ...string) []option.ClientOption {
	opts := []option.ClientOption{}
	if a.config.GetBool(prefix + ".without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}

	credsJSON := a.config.GetBinary(prefix + ".credentials_json")
	if v := strings.TrimSpace(a.config.GetString(prefix + ".credentials_file")); v != "" {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(v)
		if err != nil {
			slog.Error("failed to read google credentials file", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, scopes...)
		if err != nil {
			slog.Error("failed to parse google credentials", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	if v := strings.TrimSpace(a.config.GetString(prefix + ".endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if v := strings.TrimSpace(a.config.GetString(prefix + ".user_agent")); v != "" {
		opts = append(opts, option.WithUserAgent(v))
	}

	return opts
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	var gcsOptions []option.ClientOption
	if driver == storage.DriverGCS {
		gcsOptions = a.googleCredentials("storage.gcs", gcs.ScopeFullControl)
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Bucket:       strings.TrimSpace(a.config.GetString("storage.s3.bucket")),
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Bucket:        strings.TrimSpace(a.config.GetString("storage.gcs.bucket")),
			ClientOptions: gcsOptions,
		},
		MinIO: storage.MinIOOptions{
			Bucket:       strings.TrimSpace(a.config.GetString("storage.minio.bucket")),
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")

	var pubsubOptions []option.ClientOption
	if driver == messaging.DriverGooglePubSub {
		pubsubOptions = a.googleCredentials("messaging.pubsub", scopePubSub)
	}

	natsOptions := []nats.Option{
		nats.Name(a.config.GetString("messaging.nats.name")),
		nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
		nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
		nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
		nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
		nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
		nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
	}
	if a.config.GetBool("messaging.nats.no_echo") {
		natsOptions = append(natsOptions, nats.NoEcho())
	}

	kafkaDialer := &kafka.Dialer{
		ClientID:  a.config.GetString("messaging.kafka.client_id"),
		Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
		DualStack: true,
	}
	if a.config.GetBool("messaging.kafka.tls") {
		kafkaDialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	//nolint:gosec // attempts is a small positive number from config
	nsqMaxAttempts := uint16(a.config.GetInt("messaging.nsq.max_attempts"))

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			MaxAttempts:          nsqMaxAttempts,
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer:  kafkaDialer,
		},
		NATS: messaging.NATSConfig{
			URL:     a.config.GetString("messaging.nats.url"),
			Options: natsOptions,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOptions,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Limiter:    a.generalLimiter,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.cors.origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Retry-After", "RateLimit-Limit", "RateLimit-Remaining"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}

				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}

				return nil
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
