package main

import (
	"github.com/trezcool/rollcall/apps"
	"github.com/trezcool/rollcall/core"
)

var errNotPostgres = apps.NewArgumentError("migrations only apply to the " + core.StorePostgres + " store")

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Store != core.StorePostgres {
		return errNotPostgres
	}
	return runMigrationFunc(cli.db, args[0], args[1:]...)
}
