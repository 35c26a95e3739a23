// Command edisctl is a terminal client for the EDIS portal. It keeps the login
// token on disk between runs and ends the session when the token expires or
// the server rejects it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"edis-portal/internal/apiclient"
	"edis-portal/internal/config"
	"edis-portal/internal/models"
	"edis-portal/internal/resource"
	"edis-portal/internal/session"
)

const usage = `usage: edisctl <command> [args]

commands:
  register <username> <password>
  login <username> <password>
  logout
  whoami
  status
  projects
  project <id>
  project-add <name> [description]
  project-rm <id>
  students <projectId> [query]
  student <id>
  student-rm <projectId> <id>
`

type app struct {
	session *session.Manager
	client  *apiclient.Client
	out     io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fatal(err)
	}

	store, err := session.NewFileStorage(cfg.TokenFile)
	if err != nil {
		fatal(err)
	}

	mgr := session.New(store)
	mgr.Initialize()

	a := &app{
		out:     os.Stdout,
		session: mgr,
		client: apiclient.New(cfg.APIURL, mgr,
			apiclient.WithTimeout(cfg.Timeout),
			apiclient.WithUnauthorizedHandler(func() {
				fmt.Fprintln(os.Stderr, "session ended, please log in again")
			}),
		),
	}

	if err := a.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fatal(err)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		if len(args) != 2 {
			return errUsage
		}
		return a.register(ctx, args[0], args[1])
	case "login":
		if len(args) != 2 {
			return errUsage
		}
		return a.login(ctx, args[0], args[1])
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "status":
		return a.status(ctx)
	}

	if redirect, ok := a.session.Guard(cmd); !ok {
		return fmt.Errorf("not logged in (%s)", redirect)
	}

	switch cmd {
	case "projects":
		return a.projects(ctx)
	case "project":
		if len(args) != 1 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.project(ctx, id)
	case "project-add":
		if len(args) < 1 {
			return errUsage
		}
		return a.addProject(ctx, args[0], strings.Join(args[1:], " "))
	case "project-rm":
		if len(args) != 1 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.removeProject(ctx, id)
	case "students":
		if len(args) < 1 {
			return errUsage
		}
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.students(ctx, projectID, strings.Join(args[1:], " "))
	case "student":
		if len(args) != 1 {
			return errUsage
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.student(ctx, id)
	case "student-rm":
		if len(args) != 2 {
			return errUsage
		}
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return a.removeStudent(ctx, projectID, id)
	}
	return errUsage
}

var errUsage = fmt.Errorf("invalid arguments\n\n%s", usage)

func (a *app) register(ctx context.Context, username, password string) error {
	if err := a.client.Register(ctx, username, password); err != nil {
		return errors.New(apiclient.ErrorMessage(err, "Registration failed"))
	}
	fmt.Fprintf(a.out, "Registered %s, you can now log in\n", username)
	return nil
}

func (a *app) login(ctx context.Context, username, password string) error {
	resp, err := a.client.Login(ctx, username, password)
	if err != nil {
		return errors.New(apiclient.ErrorMessage(err, "Login failed"))
	}
	if err := a.session.Login(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.session.Username())
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if a.session.IsAuthenticated() {
		if err := a.client.Logout(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "server logout failed: %s\n", apiclient.ErrorMessage(err, "Logout failed"))
		}
	}
	a.session.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami() error {
	state := a.session.State()
	if state.Token == "" {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	name := "(unknown)"
	if state.User != nil {
		name = state.User.Username
	}
	if state.ExpiresAt != nil {
		fmt.Fprintf(a.out, "%s (session expires %s)\n", name, state.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	}
	fmt.Fprintln(a.out, name)
	return nil
}

func (a *app) status(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "backend %s unreachable: %v\n", a.client.BaseURL(), err)
		return nil
	}
	fmt.Fprintf(a.out, "backend %s reachable\n", a.client.BaseURL())
	return nil
}

func (a *app) projects(ctx context.Context) error {
	projects := resource.NewProjects(a.client)
	projects.Mount(ctx)
	a.printProjects(projects.Items())
	return nil
}

func (a *app) project(ctx context.Context, id int64) error {
	p, err := a.client.GetProject(ctx, id)
	if err != nil {
		return errors.New(apiclient.ErrorMessage(err, "Failed to load project"))
	}
	if p == nil {
		return fmt.Errorf("project %d not found", id)
	}
	a.printProjects([]models.Project{*p})
	return nil
}

func (a *app) student(ctx context.Context, id int64) error {
	st, err := a.client.GetStudent(ctx, id)
	if err != nil {
		return errors.New(apiclient.ErrorMessage(err, "Failed to load student"))
	}
	if st == nil {
		return fmt.Errorf("student %d not found", id)
	}
	a.printStudents([]models.Student{*st})
	return nil
}

func (a *app) addProject(ctx context.Context, name, description string) error {
	projects := resource.NewProjects(a.client)
	if err := projects.Create(ctx, models.ProjectRequest{Name: name, Description: description}); err != nil {
		return err
	}
	a.printProjects(projects.Items())
	return nil
}

func (a *app) removeProject(ctx context.Context, id int64) error {
	projects := resource.NewProjects(a.client)
	if err := projects.Delete(ctx, id); err != nil {
		return err
	}
	a.printProjects(projects.Items())
	return nil
}

func (a *app) students(ctx context.Context, projectID int64, query string) error {
	students := resource.NewStudents(a.client, projectID)
	if strings.TrimSpace(query) == "" {
		students.Mount(ctx)
		fmt.Fprintf(a.out, "Students in project %d\n", students.ProjectID())
		a.printStudents(students.Items())
		return nil
	}

	res, err := students.Search(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d match(es) for %q in project %d\n", res.Count, query, students.ProjectID())
	a.printStudents(students.Items())
	return nil
}

func (a *app) removeStudent(ctx context.Context, projectID, id int64) error {
	students := resource.NewStudents(a.client, projectID)
	if err := students.Delete(ctx, id); err != nil {
		return err
	}
	a.printStudents(students.Items())
	return nil
}

func (a *app) printProjects(projects []models.Project) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, p.Description)
	}
	w.Flush()
}

func (a *app) printStudents(students []models.Student) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tTITLE\tBORN")
	for _, s := range students {
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%s\n", s.ID, s.CodeNumber, s.FirstName, s.LastName, s.Title, s.DateOfBirth)
	}
	w.Flush()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
