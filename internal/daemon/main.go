// Package daemon wires the moderation service together: database,
// access control core, event dispatcher, background sweeper and the
// ops web service.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/bot"
	"github.com/N3minator/TG-BOT/internal/config"
	"github.com/N3minator/TG-BOT/internal/db/controller/ban"
	"github.com/N3minator/TG-BOT/internal/db/controller/userdir"
	"github.com/N3minator/TG-BOT/internal/db/dsn"
	"github.com/N3minator/TG-BOT/internal/db/models"
	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
	"github.com/N3minator/TG-BOT/internal/sweeper"
	"github.com/N3minator/TG-BOT/internal/web"
)

// Daemon represents the running moderation service.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	dispatcher *bot.Dispatcher
	sweeper    *sweeper.Sweeper
	webService *web.Service
	cancel     context.CancelFunc
}

// New creates a Daemon instance with the provided configuration and
// chat platform.
func New(cfg *config.Config, chat platform.Platform) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if chat == nil {
		return nil, errors.New("platform is nil")
	}

	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "mysql":
		dialector = gormmysql.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	default:
		dialector = sqlite.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.Membership{},
		&models.Ban{},
		&models.User{},
	); err != nil {
		return nil, errors.Wrap(err, "migrating database")
	}

	seed(cfg, db)

	manager := rbac.NewManager(db)
	confirms := rbac.NewConfirmations(time.Duration(cfg.Bot.ConfirmTTL) * time.Second)
	dispatcher := bot.New(chat, manager, ban.NewStore(db), userdir.NewStore(db), confirms)

	return &Daemon{
		cfg:        cfg,
		db:         db,
		dispatcher: dispatcher,
		sweeper:    sweeper.New(db, chat),
		webService: web.New(cfg),
	}, nil
}

// Start launches the sweeper, the event dispatcher and the ops web
// service. It does not block; use WaitShutdown to wait for termination.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	if err := d.sweeper.Start(d.cfg.Bot.SweepSchedule); err != nil {
		cancel()

		return errors.Wrap(err, "starting sweeper")
	}

	go d.dispatcher.Run(ctx)

	go func() {
		if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
			log.Error().Err(err).Msg("ops web service stopped")
		}
	}()

	log.Info().Msg("moderation service started")

	return nil
}

// WaitShutdown blocks until a termination signal arrives, then stops
// everything in order: web drain first, then dispatcher and sweeper.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()

	d.cancel()
	d.sweeper.Stop()
	d.dispatcher.Wait()

	log.Info().Msg("moderation service stopped")
}
