package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/todoql/internal/model"
)

type recorder struct {
	calls [][]string
}

func (r *recorder) run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func at(t time.Time) *time.Time { return &t }

func TestSendBuildsArguments(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec.run)

	require.NoError(t, n.Send(context.Background(), Notification{
		Title:   "Hello",
		Body:    "World",
		Urgency: UrgencyCritical,
		Timeout: 2 * time.Second,
		Icon:    "dialog-information",
	}))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{
		"notify-send", "-u", "critical", "-t", "2000", "-i", "dialog-information",
		"-a", "todoql", "Hello", "World",
	}, rec.calls[0])
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec.run)
	n.SetEnabled(false)

	require.NoError(t, n.Send(context.Background(), Notification{Title: "x"}))
	assert.Empty(t, rec.calls)
}

func TestRemindToday(t *testing.T) {
	now := time.Date(2025, time.June, 4, 12, 0, 0, 0, time.Local)
	today := model.Project{Name: "Today", Virtual: true, Tasks: []model.Task{
		{ID: "1", Name: "Milk", Source: "Groceries", DueDate: at(now.Add(-time.Hour))},
		{ID: "2", Name: "Call", Source: "Work", DueDate: at(now.Add(time.Hour))},
		{ID: "3", Name: "Done", Source: "Work", DueDate: at(now), Completed: true},
	}}

	rec := &recorder{}
	n := NewNotifier(rec.run)

	count, err := n.RemindToday(context.Background(), today, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, rec.calls, 1)
	args := rec.calls[0]
	assert.Equal(t, "critical", args[2])
	assert.Contains(t, args, "2 tasks due today")
	body := args[len(args)-1]
	assert.Contains(t, body, "Milk (Groceries)")
	assert.Contains(t, body, "(overdue)")
	assert.NotContains(t, body, "Done")
}

func TestRemindTodayWithNothingDue(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec.run)

	count, err := n.RemindToday(context.Background(), model.Project{Name: "Today"}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, rec.calls)
}
