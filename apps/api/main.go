package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	dig_container "github.com/academia/lms/apps/api/di/dig"
	echoapi "github.com/academia/lms/apps/api/echo"
	"github.com/academia/lms/core"
	emailsvc "github.com/academia/lms/services/email"
	schedulersvc "github.com/academia/lms/services/scheduler"
)

type appParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	DBLogger    core.Logger `name:"dbLogger"`
	DB          *sqlx.DB
	RedisClient *redis.Client
	Scheduler   *schedulersvc.Scheduler
	Server      *echoapi.Server
}

func main() {
	c := dig_container.New()
	if err := c.Invoke(run); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "starting application"))
	}
}

func run(p appParams) {
	conf, logger := p.Conf, p.Logger

	defer func() {
		if err := p.DB.Close(); err != nil {
			p.DBLogger.Error("Failed to close", err)
		}
	}()
	if p.RedisClient != nil {
		defer func() { _ = p.RedisClient.Close() }()
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Scheduler & API Service

	p.Scheduler.Start()
	logger.Info(fmt.Sprintf("Scheduler started : %d job(s)", p.Scheduler.Jobs()))

	go p.Server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-p.Server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-p.Server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	// asking listener to shutdown and shed load
	if err := p.Server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = p.Server.Close(); err != nil {
			logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
	if err := p.Scheduler.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop scheduler: %v", err), err)
	}
	emailsvc.Wait()
}
