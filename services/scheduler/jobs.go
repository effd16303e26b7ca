package schedulersvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

const DailyReportJobName = "daily-report"

// DailyReportJob sends today's attendance report to the admins.
func DailyReportJob(svc *attendance.Service) Job {
	return func(ctx context.Context) error {
		_, err := svc.DailyReport(ctx, core.Today())
		return errors.Wrap(err, "sending daily report")
	}
}
