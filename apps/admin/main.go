package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/rollcall/apps"
	"github.com/trezcool/rollcall/apps/shared"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/fs"
	"github.com/trezcool/rollcall/services/logger"
)

func main() {
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)
	ctx := context.Background()

	// set up stores; the migrate command runs migrations itself
	migrate := len(os.Args) < 2 || os.Args[1] != "migrate"
	stores, err := shared.OpenStores(ctx, conf, migrate)
	if err != nil {
		std.Fatalf("setting up %s store: %v", conf.Store, err)
	}

	// set up services
	core.ParseEmailTemplates(appfs.FS, false, logger)
	mailSvc := shared.NewMailService(conf, logger)
	pushSvc, err := shared.NewPushService(ctx, conf, logger, stores)
	if err != nil {
		std.Fatalf("setting up push service: %v", err)
	}
	usrSvc := user.NewService(stores.Users)
	validate, translator := shared.NewValidator()

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         stores.DB,
		usrSvc:     usrSvc,
		attSvc:     shared.NewAttendanceService(conf, stores, pushSvc, mailSvc, usrSvc),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	mailSvc.Wait()
	_ = stores.Close()
	switch {
	case err == nil:
	case err == errHelp:
		os.Exit(1)
	case apps.IsArgumentError(err):
		std.Printf("\ninvalid arguments: %s\n", err)
		os.Exit(2)
	default:
		std.Printf("\nerror: %s\n", err)
		os.Exit(1)
	}
}
