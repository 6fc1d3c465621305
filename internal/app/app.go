package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/storage"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// App owns every long-lived dependency of the service. Fields are populated
// by the init steps in New and released by Run on shutdown.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine  *goroutine.Manager
	validator  validator.Validator
	clock      clock.Clocker
	hmac       hash.Hash
	couponSign hash.Hash
	snowflake  uid.NumberID
	uuid       uid.StringID
	couponCode uid.StringID
	encryptor  envelope.Encryptor
	totp       otp.OTP
	verifier   *otp.Verifier
	jwt        jwt.JWT
	hookSecret []byte

	dbConn        *pgxpool.Pool
	cacheConn     *redis.Client
	mongoDB       *mongo.Database
	idemp         idempotency.Idempotency
	messaging     messaging.Messaging
	storage       storage.Storage
	authorizer    *authz.Casbin
	casbinWatcher *pgxcasbin.Watcher

	router     *router.Router
	httpServer *http.Server

	closers []closer
}

// New wires the service. Any failure terminates the process.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	for _, step := range []func(){
		a.initConfig,
		a.initInstrument,
		a.initLibraries,
		a.initJWT,
		a.initDatabase,
		a.initCache,
		a.initMongo,
		a.initStorage,
		a.initMessaging,
		a.initAuthz,
		a.initHTTPServer,
		a.initModules,
		a.initClosers,
	} {
		step()
	}

	return a
}

func fatalIf(err error, msg string, args ...any) {
	if err == nil {
		return
	}
	slog.Error(msg, append(args, "error", err)...)
	os.Exit(1)
}
