package main

import (
	"log"
	"os"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/tenant"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	tokensvc "github.com/trezcool/darasa/services/token"
	"github.com/trezcool/darasa/storage/database"
	redisstore "github.com/trezcool/darasa/storage/redis"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.IsDev())

	// set up DB
	db, err := database.Open(conf)
	errAndDie(logger, err)
	defer db.Close()
	errAndDie(logger, database.Ping(db))
	errAndDie(logger, database.Bootstrap(db))

	// set up redis-backed stores
	rdb := redisstore.NewClient(conf)
	defer rdb.Close()
	slugCache := redisstore.NewSlugCache(rdb)
	impStore := redisstore.NewImpersonationStore(rdb, conf.ImpersonationTTL)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	tenantSvc := tenant.NewService(database.NewTenantRepository(db), slugCache, logger)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:           conf.ServerAddress(),
			Conf:           conf,
			Logger:         logger,
			TenantSvc:      tenantSvc,
			MemberRepo:     database.NewMemberRepository(db),
			TokenVerifier:  tokensvc.NewJWTService(conf),
			Impersonations: impStore,
			EmailSvc:       mailSvc,
		},
	)
	app.Start()
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
