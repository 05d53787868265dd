package main

import (
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/tenant"
	"github.com/trezcool/darasa/storage/database"
	redisstore "github.com/trezcool/darasa/storage/redis"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db))
	errAndDie(database.Bootstrap(db))

	rdb := redisstore.NewClient(conf)
	defer rdb.Close()

	// start CLI
	cli := commandLine{
		tntSvc: tenant.NewService(
			database.NewTenantRepository(db),
			redisstore.NewSlugCache(rdb),
			nopLogger{},
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

// nopLogger satisfies core.Logger for CLI use; errors surface on the
// command line instead.
type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
