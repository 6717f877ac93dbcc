package notify

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dori/todoql/internal/model"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string
}

// Runner executes the notification command
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Notifier sends desktop notifications through notify-send
type Notifier struct {
	enabled bool
	run     Runner
}

// NewNotifier creates a notifier; a nil runner uses notify-send
func NewNotifier(run Runner) *Notifier {
	if run == nil {
		run = execRunner
	}
	return &Notifier{enabled: true, run: run}
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// Send sends one notification
func (n *Notifier) Send(ctx context.Context, notification Notification) error {
	if !n.enabled {
		return nil
	}

	args := []string{}
	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}
	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}
	args = append(args, "-a", "todoql", notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}

	return n.run(ctx, "notify-send", args...)
}

// RemindToday sends one summary notification for the tasks of the Today
// view that are still open. Overdue tasks raise the urgency. It returns how
// many tasks were included.
func (n *Notifier) RemindToday(ctx context.Context, today model.Project, now time.Time) (int, error) {
	var lines []string
	urgency := UrgencyNormal
	for _, t := range today.Tasks {
		if t.Completed {
			continue
		}
		line := t.DisplayName() + " - " + t.DueLabel(now)
		if t.IsOverdue(now) {
			line += " (overdue)"
			urgency = UrgencyCritical
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return 0, nil
	}

	title := "1 task due today"
	if len(lines) > 1 {
		title = strconv.Itoa(len(lines)) + " tasks due today"
	}

	err := n.Send(ctx, Notification{
		Title:   title,
		Body:    strings.Join(lines, "\n"),
		Urgency: urgency,
		Timeout: 15 * time.Second,
		Icon:    "appointment-soon-symbolic",
	})
	return len(lines), err
}
