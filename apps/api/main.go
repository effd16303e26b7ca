package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/apps/shared"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/fs"
	"github.com/trezcool/rollcall/services/logger"
	"github.com/trezcool/rollcall/services/scheduler"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	jobStd := log.New(os.Stdout, "JOBS : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	jobLogger := logsvc.NewRollbarLogger(jobStd, conf)
	jobLogger.Enable(!conf.Debug)

	// set up stores
	stores, err := shared.OpenStores(ctx, conf, true /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s store: %v", conf.Store, err), err)
	}
	defer func() {
		if err = stores.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	mailSvc := shared.NewMailService(conf, logger)
	pushSvc, err := shared.NewPushService(ctx, conf, logger, stores)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up push service: %v", err), err)
	}
	usrSvc := user.NewService(stores.Users)
	attSvc := shared.NewAttendanceService(conf, stores, pushSvc, mailSvc, usrSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, %s", conf.Build, conf))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()
	core.ParseEmailTemplates(appfs.FS, false, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("store").Set(conf.Store)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Jobs

	jobs := schedulersvc.NewScheduler(jobStd, jobLogger, 5*time.Minute)
	if err = jobs.Add(schedulersvc.DailyReportJobName, conf.Report.Schedule, schedulersvc.DailyReportJob(attSvc)); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
	}
	jobs.Start()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			AttendanceSvc: attSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
		if err = jobs.Stop(ctx); err != nil {
			jobLogger.Error(fmt.Sprintf("could not stop jobs: %v", err), err)
		}
	}
}
