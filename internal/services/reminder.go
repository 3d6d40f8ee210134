package services

import (
	"context"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

// DefaultReminderHour is the hour of day the scheduled job fires at.
const DefaultReminderHour = 10

// ReminderRunResult reports one invocation of the daily follow-up job.
type ReminderRunResult struct {
	Skipped        bool   `json:"skipped"`
	Reason         string `json:"reason,omitempty"`
	FollowUps      int    `json:"followups"`
	Reminded       int    `json:"reminded"`
	MessagesSent   int    `json:"messages_sent"`
	MessagesFailed int    `json:"messages_failed"`
	NoRecipients   bool   `json:"no_recipients,omitempty"`
}

// ReminderService runs the daily follow-up reminder job. It is a time-gated
// batch job, not a server: each invocation either proceeds or no-ops.
type ReminderService struct {
	followUpRepo db.FollowUpRepository
	notifier     *NotifierService
	hour         int
}

// NewReminderService creates a new ReminderService instance. hour is the
// hour of day the scheduled (non-forced) run is allowed at.
func NewReminderService(followUpRepo db.FollowUpRepository, notifier *NotifierService, hour int) *ReminderService {
	if hour < 0 || hour > 23 {
		hour = DefaultReminderHour
	}
	return &ReminderService{
		followUpRepo: followUpRepo,
		notifier:     notifier,
		hour:         hour,
	}
}

// Run sends reminders for today's pending follow-ups that have not been
// reminded yet. Unless forced, it only proceeds when now is inside the
// target hour. For each follow-up a dispatch intent is written before the
// sends and confirmed after, together with the reminder_sent flag, so a
// mid-run failure leaves a queryable pending intent rather than silently
// re-sending everything on the next run.
func (s *ReminderService) Run(ctx context.Context, now time.Time, force bool) (*ReminderRunResult, error) {
	if !force && now.Hour() != s.hour {
		return &ReminderRunResult{
			Skipped: true,
			Reason:  "outside reminder window",
		}, nil
	}

	date := now.Format("2006-01-02")
	due, err := s.followUpRepo.DueOn(date)
	if err != nil {
		logger.Error("Failed to load due follow-ups",
			zap.String("date", date),
			zap.Error(err),
		)
		return nil, err
	}

	result := &ReminderRunResult{FollowUps: len(due)}
	if len(due) == 0 {
		logger.Info("No follow-ups due", zap.String("date", date))
		return result, nil
	}

	noRecipients := true
	for _, followUp := range due {
		dispatch, err := s.followUpRepo.CreateDispatch(followUp.ID)
		if err != nil {
			logger.Error("Failed to write dispatch intent",
				zap.Int64("followup_id", followUp.ID),
				zap.Error(err),
			)
			continue
		}

		notifyResult, err := s.notifier.NotifyFollowUp(ctx, followUp)
		if err != nil {
			// Intent stays pending for inspection; the follow-up will be
			// retried on the next run
			logger.Error("Reminder delivery failed before any send",
				zap.Int64("followup_id", followUp.ID),
				zap.String("dispatch_id", dispatch.ID),
				zap.Error(err),
			)
			continue
		}

		if !notifyResult.NoRecipients {
			noRecipients = false
		}
		result.MessagesSent += notifyResult.SentCount()
		result.MessagesFailed += notifyResult.FailedCount()

		if err := s.followUpRepo.CompleteDispatch(dispatch.ID); err != nil {
			logger.Error("Failed to confirm dispatch intent",
				zap.String("dispatch_id", dispatch.ID),
				zap.Error(err),
			)
		}
		if err := s.followUpRepo.MarkReminderSent([]int64{followUp.ID}); err != nil {
			logger.Error("Failed to mark reminder sent",
				zap.Int64("followup_id", followUp.ID),
				zap.Error(err),
			)
			continue
		}
		result.Reminded++
	}

	result.NoRecipients = noRecipients

	logger.Info("Reminder run completed",
		zap.String("date", date),
		zap.Int("followups", result.FollowUps),
		zap.Int("reminded", result.Reminded),
		zap.Int("messages_sent", result.MessagesSent),
		zap.Int("messages_failed", result.MessagesFailed),
	)

	return result, nil
}
