// Package agenda builds the virtual "Today" and "This Week" projects. They
// are recomputed from the real projects on every call and never stored.
package agenda

import (
	"sort"
	"time"

	"github.com/dori/todoql/internal/model"
)

// Names of the virtual projects
const (
	TodayName    = "Today"
	ThisWeekName = "This Week"
)

// Today returns a virtual project holding every task due on now's calendar day
func Today(projects []model.Project, now time.Time) model.Project {
	return model.Project{
		Name:    TodayName,
		Virtual: true,
		Tasks: collect(projects, func(t *model.Task) bool {
			return t.IsDueOn(now)
		}),
	}
}

// ThisWeek returns a virtual project holding every task due in the current
// week, ordered by due date. Tasks with equal due dates keep their order.
func ThisWeek(projects []model.Project, now time.Time, weekStart time.Weekday) model.Project {
	start, end := WeekWindow(now, weekStart)

	tasks := collect(projects, func(t *model.Task) bool {
		if t.DueDate == nil {
			return false
		}
		due := t.DueDate.In(now.Location())
		return !due.Before(start) && due.Before(end)
	})

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(*tasks[j].DueDate)
	})

	return model.Project{
		Name:    ThisWeekName,
		Virtual: true,
		Tasks:   tasks,
	}
}

// WeekWindow returns the half-open interval [start, end) of the week that
// contains now, starting at midnight of weekStart.
func WeekWindow(now time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(now.Weekday()) - int(weekStart) + 7) % 7
	start := midnight.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// collect copies matching tasks out of every real project, tagging each copy
// with the name of the project it came from.
func collect(projects []model.Project, keep func(*model.Task) bool) []model.Task {
	tasks := []model.Task{}
	for _, p := range projects {
		if p.Virtual {
			continue
		}
		for _, t := range p.Tasks {
			if !keep(&t) {
				continue
			}
			t.Source = p.Name
			if t.ProjectID == "" {
				t.ProjectID = p.ID
			}
			tasks = append(tasks, t)
		}
	}
	return tasks
}
