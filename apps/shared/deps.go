package shared

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/services/email"
	"github.com/trezcool/rollcall/services/push"
	"github.com/trezcool/rollcall/storage/database"
	"github.com/trezcool/rollcall/storage/database/inmem"
	"github.com/trezcool/rollcall/storage/database/sqlx"
	"github.com/trezcool/rollcall/storage/firestore"
)

// Stores holds the repositories of the configured store engine.
type Stores struct {
	Users      user.Repository
	Attendance attendance.Repository
	DB         *sqlx.DB // postgres only

	conf    *core.Config
	app     *firebase.App
	closers []func() error
}

// OpenStores opens the store selected by conf.Store. Postgres databases are created first, then migrated if asked.
func OpenStores(ctx context.Context, conf *core.Config, migrate bool) (*Stores, error) {
	s := &Stores{conf: conf}

	switch conf.Store {
	case core.StorePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		s.DB = db
		s.closers = append(s.closers, db.Close)
		if migrate {
			if err = database.Migrate(db); err != nil {
				_ = s.Close()
				return nil, errors.Wrap(err, "migrating database")
			}
		}
		s.Users = sqlxrepos.NewUserRepository(db)
		s.Attendance = sqlxrepos.NewAttendanceRepository(db)

	case core.StoreFirestore:
		app, err := s.FirebaseApp(ctx)
		if err != nil {
			return nil, err
		}
		client, err := firestorerepos.Open(ctx, app)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.Users = firestorerepos.NewUserRepository(client)
		s.Attendance = firestorerepos.NewAttendanceRepository(client)

	case core.StoreMemory:
		db := inmemdb.Open()
		s.Users = inmemdb.NewUserRepository(db)
		s.Attendance = inmemdb.NewAttendanceRepository(db)

	default:
		return nil, fmt.Errorf("unknown store %q", conf.Store)
	}
	return s, nil
}

// FirebaseApp returns the firebase app shared by the firestore store and the push service.
func (s *Stores) FirebaseApp(ctx context.Context) (*firebase.App, error) {
	if s.app == nil {
		app, err := pushsvc.NewFirebaseApp(ctx, s.conf)
		if err != nil {
			return nil, err
		}
		s.app = app
	}
	return s.app, nil
}

func (s *Stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// NewMailService prints emails in debug mode and sends them with sendgrid otherwise.
func NewMailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// NewPushService prints push messages in debug mode and delivers them with FCM otherwise.
func NewPushService(ctx context.Context, conf *core.Config, logger core.Logger, stores *Stores) (core.PushService, error) {
	if conf.Debug {
		return pushsvc.NewConsoleService(logger), nil
	}
	app, err := stores.FirebaseApp(ctx)
	if err != nil {
		return nil, err
	}
	return pushsvc.NewFCMService(ctx, app)
}

// NewAttendanceService wires the attendance service on stores.
func NewAttendanceService(
	conf *core.Config,
	stores *Stores,
	push core.PushService,
	mailSvc core.EmailService,
	usrSvc *user.Service,
) *attendance.Service {
	return attendance.NewService(
		stores.Attendance,
		attendance.NewAbsenceNotifier(stores.Attendance, push),
		usrSvc,
		mailSvc,
		conf,
	)
}
