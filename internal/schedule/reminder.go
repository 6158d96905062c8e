package schedule

import (
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/store"
)

// reminderLead is how long before the due time the reminder mail goes out.
const reminderLead = time.Hour

// Mailer sends one reminder mail for a schedule.
type Mailer interface {
	SendReminder(to string, s model.Schedule) error
}

// Reminder scans pending schedules and mails a reminder for each one that
// entered the hour before its due time. The sent flag only moves
// false->true, and only after the relay accepted the mail, so a crash can
// at worst repeat a reminder, never lose one. All list mutations go
// through the Manager; the scan works on a snapshot and marks each sent
// schedule individually so a command arriving mid-pass is never lost.
type Reminder struct {
	logger    *zap.Logger
	store     *store.Store
	schedules *Manager
	mailer    Mailer
	now       func() time.Time
	loc       *time.Location
}

func NewReminder(logger *zap.Logger, st *store.Store, schedules *Manager, mailer Mailer) *Reminder {
	return &Reminder{
		logger:    logger.Named("reminder"),
		store:     st,
		schedules: schedules,
		mailer:    mailer,
		now:       time.Now,
		loc:       time.Local,
	}
}

// Run performs one reminder pass. Scheduled by cron.
func (r *Reminder) Run() {
	schedules, err := r.schedules.List()
	if err != nil {
		r.logger.Error("Failed to load schedules", zap.Error(err))
		return
	}
	if len(schedules) == 0 {
		return
	}

	settings, err := r.store.Settings()
	if err != nil {
		r.logger.Error("Failed to load settings", zap.Error(err))
		return
	}

	now := r.now()

	for _, s := range schedules {
		if s.Status != model.ScheduleStatusPending || s.NotificationSent {
			continue
		}

		due, err := s.DueTime(r.loc)
		if err != nil {
			r.logger.Warn("Schedule has an unparseable due time",
				zap.String("id", s.ID),
				zap.String("date", s.Date),
				zap.String("time", s.Time))
			continue
		}

		// Window is [due-1h, due). Past-due schedules are left alone.
		if now.Before(due.Add(-reminderLead)) || !now.Before(due) {
			continue
		}

		if settings.NotificationEmail == "" {
			r.logger.Warn("Reminder due but no notification email configured",
				zap.String("id", s.ID))
			continue
		}

		if err := r.mailer.SendReminder(settings.NotificationEmail, s); err != nil {
			r.logger.Error("Failed to send reminder mail",
				zap.String("id", s.ID),
				zap.Error(err))
			continue
		}

		if err := r.schedules.MarkNotified(s.ID); err != nil {
			r.logger.Error("Failed to persist sent flag",
				zap.String("id", s.ID),
				zap.Error(err))
			continue
		}

		r.logger.Info("Reminder sent",
			zap.String("id", s.ID),
			zap.String("title", s.Title),
			zap.String("to", settings.NotificationEmail))
	}
}
