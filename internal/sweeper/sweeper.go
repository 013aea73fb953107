// Package sweeper runs the scheduled background jobs: lifting expired
// bans and removing rows left behind when a role deletion raced a
// concurrent grant or permission toggle.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/db/controller/ban"
	"github.com/N3minator/TG-BOT/internal/db/controller/membership"
	"github.com/N3minator/TG-BOT/internal/db/controller/permission"
	"github.com/N3minator/TG-BOT/internal/platform"
)

// Sweeper owns the cron scheduler and the jobs it runs.
type Sweeper struct {
	cron     *cron.Cron
	platform platform.Platform
	bans     *ban.Store
	members  *membership.Store
	perms    *permission.Store
}

// New wires a sweeper over the database and the platform.
func New(db *gorm.DB, p platform.Platform) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		platform: p,
		bans:     ban.NewStore(db),
		members:  membership.NewStore(db),
		perms:    permission.NewStore(db),
	}
}

// Start schedules the sweep with the given cron spec (e.g. "@every 30s")
// and starts the scheduler.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop stops the scheduler. Running jobs finish.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep runs one pass of all jobs.
func (s *Sweeper) Sweep() {
	s.LiftExpiredBans(context.Background())
	s.RemoveOrphans()
}

// LiftExpiredBans unbans every user whose ban has run out and marks the
// records lifted. A failed platform call leaves the record in place, so
// the next sweep retries it.
func (s *Sweeper) LiftExpiredBans(ctx context.Context) {
	expired, err := s.bans.Expired(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("querying expired bans failed")

		return
	}

	for _, b := range expired {
		if err := s.platform.UnbanMember(ctx, b.GroupID, b.TargetUserID); err != nil {
			log.Warn().Err(err).
				Int64("group_id", b.GroupID).
				Int64("target_user_id", b.TargetUserID).
				Msg("unban failed, retrying next sweep")

			continue
		}

		if err := s.bans.MarkLifted(b.GroupID, b.TargetUserID); err != nil {
			log.Error().Err(err).
				Int64("group_id", b.GroupID).
				Int64("target_user_id", b.TargetUserID).
				Msg("marking ban lifted failed")

			continue
		}

		log.Info().
			Int64("group_id", b.GroupID).
			Int64("target_user_id", b.TargetUserID).
			Msg("ban lifted")
	}
}

// RemoveOrphans deletes membership and permission rows whose role no
// longer exists.
func (s *Sweeper) RemoveOrphans() {
	memberships, err := s.members.DeleteOrphans()
	if err != nil {
		log.Error().Err(err).Msg("sweeping orphaned memberships failed")
	}

	permissions, err := s.perms.DeleteOrphans()
	if err != nil {
		log.Error().Err(err).Msg("sweeping orphaned permissions failed")
	}

	if memberships > 0 || permissions > 0 {
		log.Info().
			Int64("memberships", memberships).
			Int64("permissions", permissions).
			Msg("orphaned rows removed")
	}
}
