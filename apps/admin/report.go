package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/apps"
	"github.com/trezcool/rollcall/core"
)

var errInvalidDate = apps.NewArgumentError("date must be formatted as YYYY-MM-DD")

func (cli *commandLine) report(ctx context.Context, date string) error {
	if date == "" {
		date = core.Today()
	}
	if err := cli.validate.Var(date, "isodate"); err != nil {
		return errInvalidDate
	}

	reports, err := cli.attSvc.DailyReport(ctx, date)
	if err != nil {
		return errors.Wrap(err, "sending daily report")
	}
	if len(reports) == 0 {
		fmt.Fprintf(cli.out, "%s: no class submitted\n", date)
		return nil
	}
	for _, r := range reports {
		fmt.Fprintf(cli.out, "%s %s: present %d, absent %d, late %d\n",
			date, r.ClassLabel, r.Summary.Present, r.Summary.Absent, r.Summary.Late)
	}
	return nil
}
