// Package cronjob runs the scheduled background work. Currently that is a
// single job: mailing approvers a digest of projects that have been waiting
// too long for their next gate.
package cronjob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/pkg/config"
	mysmtp "github.com/sdghub/backend/pkg/smtp"
)

// PendingLister is the persistence slice the reminder needs.
type PendingLister interface {
	ListPendingProjectsSince(ctx context.Context, submittedBefore time.Time) ([]model.Project, error)
	ListApproverEmails(ctx context.Context) ([]string, error)
}

type ReminderManager struct {
	cron   *cron.Cron
	store  PendingLister
	mailer mysmtp.Sender
	conf   *config.Config
}

func NewReminderManager(conf *config.Config, store PendingLister, mailer mysmtp.Sender) *ReminderManager {
	return &ReminderManager{
		cron:   cron.New(),
		store:  store,
		mailer: mailer,
		conf:   conf,
	}
}

func (m *ReminderManager) Start() error {
	if !m.conf.Reminder.Enable {
		klog.Info("approver reminder disabled")
		return nil
	}
	_, err := m.cron.AddFunc(m.conf.Reminder.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := m.RunOnce(ctx); err != nil {
			klog.Errorf("approver reminder: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("bad reminder cron spec %q: %w", m.conf.Reminder.CronSpec, err)
	}
	m.cron.Start()
	klog.Infof("approver reminder scheduled: %s", m.conf.Reminder.CronSpec)
	return nil
}

func (m *ReminderManager) Stop() {
	<-m.cron.Stop().Done()
}

// RunOnce sends one digest if anything is overdue. Exported so an admin
// endpoint or a test can trigger it outside the schedule.
func (m *ReminderManager) RunOnce(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -m.conf.Reminder.PendingDays)
	pending, err := m.store.ListPendingProjectsSince(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	receivers, err := m.store.ListApproverEmails(ctx)
	if err != nil {
		return err
	}
	if len(receivers) == 0 {
		klog.Warning("pending projects but no approver to notify")
		return nil
	}

	subject := fmt.Sprintf("[SDG Hub] %d project(s) awaiting approval", len(pending))
	return m.mailer.SendEmail(receivers, subject, digestBody(pending, m.conf.Reminder.PendingDays))
}

func digestBody(pending []model.Project, days int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>The following projects have been pending for more than %d days:</p><ul>", days)
	for i := range pending {
		p := &pending[i]
		fmt.Fprintf(&b, "<li>%s (submitted %s)</li>",
			p.EngName, p.SubmittedAt.Format("2006-01-02"))
	}
	b.WriteString("</ul>")
	return b.String()
}
