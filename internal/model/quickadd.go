package model

import "strings"

// QuickAdd is a task typed on one line, e.g. "Buy milk @Groceries due:tomorrow"
type QuickAdd struct {
	Name    string
	Project string
	Due     string
}

// ParseQuickAdd splits a one-line task entry. The first "@word" names the
// project and the first "due:value" token sets the due date; everything else
// is the task name.
func ParseQuickAdd(s string) QuickAdd {
	var q QuickAdd
	var words []string
	for _, f := range strings.Fields(s) {
		switch {
		case q.Project == "" && len(f) > 1 && strings.HasPrefix(f, "@"):
			q.Project = f[1:]
		case q.Due == "" && len(f) > 4 && strings.HasPrefix(strings.ToLower(f), "due:"):
			q.Due = f[4:]
		default:
			words = append(words, f)
		}
	}
	q.Name = strings.Join(words, " ")
	return q
}
