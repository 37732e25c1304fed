package cronjob

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/pkg/config"
)

type fakeLister struct {
	pending   []model.Project
	approvers []string
	gotCutoff time.Time
}

func (f *fakeLister) ListPendingProjectsSince(_ context.Context, before time.Time) ([]model.Project, error) {
	f.gotCutoff = before
	return f.pending, nil
}

func (f *fakeLister) ListApproverEmails(_ context.Context) ([]string, error) {
	return f.approvers, nil
}

type fakeSender struct {
	sent      int
	subject   string
	body      string
	receivers []string
}

func (f *fakeSender) SendEmail(receivers []string, subject, body string) error {
	f.sent++
	f.receivers = receivers
	f.subject = subject
	f.body = body
	return nil
}

func reminderConfig() *config.Config {
	conf := &config.Config{}
	conf.Reminder.Enable = true
	conf.Reminder.CronSpec = "0 9 * * MON"
	conf.Reminder.PendingDays = 7
	return conf
}

func TestRunOnceSendsDigest(t *testing.T) {
	lister := &fakeLister{
		pending: []model.Project{
			{EngName: "Solar Well", SubmittedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
			{EngName: "Clean Canal", SubmittedAt: time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)},
		},
		approvers: []string{"approver@example.com"},
	}
	sender := &fakeSender{}
	m := NewReminderManager(reminderConfig(), lister, sender)

	require.NoError(t, m.RunOnce(context.Background()))
	assert.Equal(t, 1, sender.sent)
	assert.Equal(t, []string{"approver@example.com"}, sender.receivers)
	assert.Contains(t, sender.subject, "2 project(s)")
	assert.Contains(t, sender.body, "Solar Well")
	assert.Contains(t, sender.body, "2026-02-03")

	wantCutoff := time.Now().AddDate(0, 0, -7)
	assert.WithinDuration(t, wantCutoff, lister.gotCutoff, time.Minute)
}

func TestRunOnceNothingPending(t *testing.T) {
	sender := &fakeSender{}
	m := NewReminderManager(reminderConfig(), &fakeLister{approvers: []string{"a@example.com"}}, sender)

	require.NoError(t, m.RunOnce(context.Background()))
	assert.Zero(t, sender.sent)
}

func TestRunOnceNoApprovers(t *testing.T) {
	sender := &fakeSender{}
	lister := &fakeLister{pending: []model.Project{{EngName: "Orphan"}}}
	m := NewReminderManager(reminderConfig(), lister, sender)

	require.NoError(t, m.RunOnce(context.Background()))
	assert.Zero(t, sender.sent)
}

func TestStartRejectsBadSpec(t *testing.T) {
	conf := reminderConfig()
	conf.Reminder.CronSpec = "not a cron spec"
	m := NewReminderManager(conf, &fakeLister{}, &fakeSender{})
	assert.Error(t, m.Start())
}

func TestStartDisabled(t *testing.T) {
	conf := reminderConfig()
	conf.Reminder.Enable = false
	m := NewReminderManager(conf, &fakeLister{}, &fakeSender{})
	assert.NoError(t, m.Start())
}
