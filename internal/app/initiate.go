package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/ktvs/internal/pkg/authz"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
	"github.com/shandysiswandi/ktvs/internal/pkg/goroutine"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/idempotency"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/pkg/messaging"
	"github.com/shandysiswandi/ktvs/internal/pkg/mongodb"
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgmigrate"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/storage"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
)

const pingTimeout = 5 * time.Second

// str reads a string key with surrounding whitespace removed.
func (a *App) str(key string) string {
	return strings.TrimSpace(a.config.GetString(key))
}

func (a *App) initConfig() {
	fatalIf(config.LoadDotEnv(".env", ".env.local"), "failed to load dotenv")

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	fatalIf(err, "failed to init config")

	fatalIf(config.Require(cfg,
		"crypto.envelope_key",
		"coupon.signing_key",
		"jwt.secret",
		"database.url",
		"cache.url",
		"mongo.uri",
	), "invalid configuration")

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
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
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	fatalIf(err, "failed to init instrumentation")
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.couponCode = uid.NewURLToken(a.config.GetInt("coupon.code_bytes"))
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("login.session_secret"))
	a.couponSign = hash.NewHMACSHA256(a.config.GetString("coupon.signing_key"))
	a.hookSecret = []byte(a.config.GetString("identity_provider.shared_secret"))

	v, err := validator.NewV10Validator()
	fatalIf(err, "failed to init validator")
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	fatalIf(err, "failed to init snowflake", "node_id", a.config.GetInt64("app.node_id"))
	a.snowflake = snow

	key, err := envelope.KeyFromBase64(a.config.GetString("crypto.envelope_key"))
	fatalIf(err, "failed to decode envelope key")
	enc, err := envelope.NewAESGCM(key)
	fatalIf(err, "failed to init envelope encryptor")
	a.encryptor = enc

	a.totp = otp.NewTOTP(
		a.config.GetString("otp.issuer"),
		a.config.GetUint("otp.period"),
		a.config.GetUint("otp.skew"),
		libOTP.DigitsSix,
	)
	a.verifier = otp.NewVerifier(a.totp, a.encryptor, a.clock)
}

func (a *App) initJWT() {
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	fatalIf(err, "failed to init token verifier")
	a.jwt = tokens
}

func (a *App) initDatabase() {
	pc, err := pgxpool.ParseConfig(a.str("database.url"))
	fatalIf(err, "failed to parse postgres url")

	pc.MaxConns = a.config.GetInt32("database.pool.max_conns")
	pc.MinConns = a.config.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	fatalIf(err, "failed to open postgres pool")

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	fatalIf(pool.Ping(pingCtx), "failed to reach postgres")

	if a.config.GetBool("database.migrate") {
		fatalIf(pgmigrate.Up(pool), "failed to apply migrations")
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("cache.url"))
	fatalIf(err, "failed to parse redis url")

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	fatalIf(rdb.Ping(pingCtx).Err(), "failed to reach redis")

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

func (a *App) initMongo() {
	db, err := mongodb.Connect(a.ctx, mongodb.Config{
		URI:            a.config.GetString("mongo.uri"),
		Database:       a.config.GetString("mongo.database"),
		ConnectTimeout: a.config.GetSecond("mongo.connect_timeout_seconds"),
		MaxPoolSize:    a.config.GetUint64("mongo.max_pool_size"),
		RetryAttempts:  a.config.GetInt("mongo.retry_attempts"),
		RetryInterval:  a.config.GetSecond("mongo.retry_interval_seconds"),
	})
	fatalIf(err, "failed to init mongo")

	a.mongoDB = db
}

func (a *App) initStorage() {
	driver := a.str("storage.driver")

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		Bucket: a.str("storage.bucket"),
		S3: storage.S3Options{
			Region:       a.str("storage.s3.region"),
			Endpoint:     a.str("storage.s3.endpoint"),
			AccessKey:    a.str("storage.s3.access_key"),
			SecretKey:    a.str("storage.s3.secret_key"),
			SessionToken: a.str("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			CredentialsFile: a.str("storage.gcs.credentials_file"),
			CredentialsJSON: a.config.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        a.str("storage.gcs.endpoint"),
			GoogleAccessID:  a.str("storage.gcs.signer_access_id"),
			PrivateKey:      a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOOptions{
			Region:       a.str("storage.minio.region"),
			Endpoint:     a.str("storage.minio.endpoint"),
			AccessKey:    a.str("storage.minio.access_key"),
			SecretKey:    a.str("storage.minio.secret_key"),
			SessionToken: a.str("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	fatalIf(err, "failed to init storage", "driver", driver)

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := a.str("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.write_timeout_seconds")
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URLs: a.config.GetArray("messaging.nats.urls"),
			Name: a.config.GetString("messaging.nats.name"),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsFile: a.config.GetString("messaging.pubsub.credentials_file"),
			Endpoint:        a.config.GetString("messaging.pubsub.endpoint"),
		},
	})
	fatalIf(err, "failed to init messaging", "driver", driver)

	a.messaging = client
}

func (a *App) initAuthz() {
	adapter := pgxcasbin.NewAdapter(a.dbConn)

	authorizer, err := authz.New(adapter)
	fatalIf(err, "failed to load authorization policy")

	watcher, err := pgxcasbin.NewWatcher(a.ctx, a.dbConn, a.str("authz.watcher_channel"))
	fatalIf(err, "failed to listen for policy changes")

	fatalIf(watcher.SetUpdateCallback(func(string) {
		if err := authorizer.LoadPolicy(); err != nil {
			slog.Error("failed to reload casbin policy", "error", err)
		}
	}), "failed to register policy reload")
	fatalIf(authorizer.SetWatcher(watcher), "failed to attach policy watcher")

	for _, subject := range a.config.GetArray("authz.bootstrap_admins") {
		fatalIf(authorizer.GrantAdmin(a.ctx, strings.TrimSpace(subject)), "failed to bootstrap admin", "subject_id", subject)
	}

	a.authorizer = authorizer
	a.casbinWatcher = watcher
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Authorizer: a.authorizer,
		PublicEndpoints: map[string][]string{
			http.MethodPost: {
				"/api/v1/login/begin",
				"/api/v1/login/verify",
				"/api/v1/login/recovery",
				"/api/v1/registrations",
			},
		},
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
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

// initClosers lists resources in teardown order.
func (a *App) initClosers() {
	a.closers = []closer{
		{"instrument", a.ins.Shutdown},
		{"messaging", noCtx(a.messaging.Close)},
		{"casbin watcher", noCtx(func() error {
			if a.casbinWatcher != nil {
				a.casbinWatcher.Close()
			}
			return nil
		})},
		{"redis", noCtx(a.cacheConn.Close)},
		{"mongo", func(ctx context.Context) error { return a.mongoDB.Client().Disconnect(ctx) }},
		{"postgres", noCtx(func() error {
			a.dbConn.Close()
			return nil
		})},
		{"storage", noCtx(a.storage.Close)},
		{"config", noCtx(a.config.Close)},
	}
}

func noCtx(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}
