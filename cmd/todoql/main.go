package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dori/todoql/internal/api"
	"github.com/dori/todoql/internal/app"
	"github.com/dori/todoql/internal/config"
	"github.com/dori/todoql/internal/db"
	"github.com/dori/todoql/internal/model"
	"github.com/dori/todoql/internal/reconcile"
	"github.com/dori/todoql/internal/ui"
	"github.com/dori/todoql/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Fprintln(os.Stderr, "Run `todoql login --email you@example.com` first.")
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todoql", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Config file (default "+config.DefaultPath()+")")
	themeFlag := fs.String("theme", "", "Theme name (nord, dracula)")
	fs.Usage = func() { printHelp(out) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case "version":
			fmt.Fprintf(out, "todoql v%s\n", version)
			return nil
		case "help", "-h", "--help":
			printHelp(out)
			return nil
		}
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if len(rest) == 0 {
		return runTUI(ctx, cfg, *themeFlag)
	}

	cmd, cmdArgs := rest[0], rest[1:]
	handler, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q, see `todoql help`", cmd)
	}

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	a.Log.Debug("command", zap.String("name", cmd))
	return handler(ctx, a, cmdArgs, out)
}

type command func(ctx context.Context, a *app.App, args []string, out io.Writer) error

var commands = map[string]command{
	"login":    handleLogin,
	"logout":   handleLogout,
	"whoami":   handleWhoami,
	"projects": handleProjects,
	"export":   handleExport,
	"add":      handleAdd,
	"remind":   handleRemind,
}

func printHelp(out io.Writer) {
	help := `todoql - a terminal client for a GraphQL to-do service

Usage:
  todoql [--config file] [--theme name]    Start the TUI
  todoql login --email <email>             Log in (password from --password or TODOQL_PASSWORD)
  todoql logout                            Forget the stored session
  todoql whoami                            Show the logged in account
  todoql projects                          List projects and their tasks
  todoql export [--format yaml|json]       Dump every project and task
  todoql add "<task> @project due:<date>"  Quick add a task
  todoql remind                            Notify about tasks due today
  todoql version                           Show version
  todoql help                              Show this help

Quick Add Syntax:
  todoql add "Buy milk @Groceries due:tomorrow"

  Project:   @name        (required, matched case-insensitively)
  Due date:  due:today due:tomorrow due:friday due:2025-06-01T10:00

Keybindings:
  Navigation:   ↑/↓ or j/k    Move cursor
                tab/h/l       Switch between projects and tasks

  Actions:      A             Add project
                a             Add task
                space/x       Toggle done
                r             Rename task
                s             Set due date
                d             Delete (with confirm)
                R             Refresh from server

  General:      ctrl+t        Cycle theme
                ctrl+l        Log out
                ?             Help
                q             Quit

Configuration:
` + config.Usage()

	fmt.Fprintln(out, help)
}

func handleLogin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password (default $TODOQL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("TODOQL_PASSWORD")
	}
	if *email == "" || *password == "" {
		return errors.New("usage: todoql login --email <email> [--password <password>]")
	}

	if err := a.Session.Login(ctx, a.Client, *email, *password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(out, "Logged in as %s\n", a.Session.Subject())
	return nil
}

func handleLogout(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

func handleWhoami(_ context.Context, a *app.App, _ []string, out io.Writer) error {
	if !a.Session.LoggedIn() {
		return api.ErrUnauthenticated
	}
	who := a.Session.Subject()
	if who == "" {
		who = "(unknown account)"
	}
	fmt.Fprintln(out, who)
	if exp, ok := a.Session.ExpiresAt(); ok {
		fmt.Fprintf(out, "Session expires %s\n", exp.Local().Format("Jan 2, 2006 15:04"))
	}
	return nil
}

// loadAll refreshes every project and task and returns the snapshot
func loadAll(ctx context.Context, a *app.App) ([]model.Project, error) {
	if !a.Session.LoggedIn() {
		return nil, api.ErrUnauthenticated
	}
	if err := a.Reconciler.RefreshAll(ctx); err != nil {
		return nil, err
	}
	return a.Store.Projects(), nil
}

func handleProjects(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	projects, err := loadAll(ctx, a)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects")
		return nil
	}

	now := time.Now()
	for _, p := range projects {
		mark := " "
		if p.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %s (%s) %d/%d\n", mark, p.Name, strings.ToLower(p.Status), p.CompletedCount(), len(p.Tasks))
		for _, t := range p.Tasks {
			mark = " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(out, "    [%s] %s - %s\n", mark, t.Name, t.DueLabel(now))
		}
	}
	return nil
}

func handleExport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "yaml", "Output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	projects, err := loadAll(ctx, a)
	if err != nil {
		return err
	}
	return writeExport(out, *format, projects)
}

func writeExport(out io.Writer, format string, projects []model.Project) error {
	doc := struct {
		Exported time.Time       `json:"exported" yaml:"exported"`
		Projects []model.Project `json:"projects" yaml:"projects"`
	}{Exported: time.Now(), Projects: projects}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown export format %q: want yaml or json", format)
	}
}

func handleAdd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(`usage: todoql add "<task> @project due:<date>"`)
	}
	q := model.ParseQuickAdd(strings.Join(args, " "))
	if q.Project == "" {
		return errors.New("name the project with @project")
	}

	if _, err := loadAll(ctx, a); err != nil {
		return err
	}
	project, ok := findProject(a.Store.Projects(), q.Project)
	if !ok {
		return fmt.Errorf("no project named %q", q.Project)
	}

	task, err := a.Reconciler.CreateTask(ctx, project.ID, reconcile.TaskInput{Name: q.Name, Due: q.Due})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created: %s\n", q.Name)
	fmt.Fprintf(out, "Project: %s\n", project.Name)
	if task.DueDate != nil {
		fmt.Fprintf(out, "Due: %s\n", task.DueLabel(time.Now()))
	}
	return nil
}

func findProject(projects []model.Project, name string) (model.Project, bool) {
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return model.Project{}, false
}

func handleRemind(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	if _, err := loadAll(ctx, a); err != nil {
		return err
	}
	now := time.Now()
	count, err := a.Notifier.RemindToday(ctx, a.Today(now), now)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	fmt.Fprintf(out, "%d task(s) due today\n", count)
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config, themeName string) error {
	application, err := app.New(ctx, cfg, app.Options{Lock: true})
	if err != nil {
		return err
	}
	defer application.Close()

	applyTheme(ctx, application, themeName)

	p := tea.NewProgram(
		ui.NewRootModel(ctx, application),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err = p.Run()
	return err
}

// applyTheme picks the theme: the flag first, then the last one cycled to,
// then the configured one
func applyTheme(ctx context.Context, a *app.App, flagName string) {
	candidates := []string{flagName}
	if stored, ok, err := a.DB.GetSetting(ctx, db.SettingTheme); err == nil && ok {
		candidates = append(candidates, stored)
	}
	candidates = append(candidates, a.Config.Theme)

	for _, name := range candidates {
		if name == "" {
			continue
		}
		if t, ok := theme.ByName(name); ok {
			theme.SetTheme(t)
			return
		}
		a.Log.Warn("unknown theme", zap.String("theme", name))
	}
}
