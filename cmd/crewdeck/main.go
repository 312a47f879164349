// Command crewdeck is the crewdeck CLI client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/internal/version"
)

const defaultServer = "http://localhost:8790"

func main() {
	var (
		serverURL = flag.String("server", defaultServer, "crewdeck server URL")
		token     = flag.String("token", os.Getenv("CREWDECK_TOKEN"), "JWT auth token")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cli := &Client{
		BaseURL:    strings.TrimRight(*serverURL, "/"),
		Token:      *token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "version":
		err = cmdVersion(rest)
	case "status":
		err = cli.cmdStatus(rest)
	case "login":
		err = cli.cmdLogin(rest)
	case "people":
		err = cli.cmdPeople(rest)
	case "projects":
		err = cli.cmdProjects(rest)
	case "project":
		err = cli.cmdProject(rest)
	case "tasks":
		err = cli.cmdTasks(rest)
	case "task":
		err = cli.cmdTask(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `crewdeck — crewdeck CLI

Usage:
  crewdeck [flags] <command> [args]

Flags:
  --server  <url>    server URL (default: http://localhost:8790)
  --token   <token>  JWT auth token (or $CREWDECK_TOKEN)

Commands:
  version                       print version
  status                        show server status
  login <username>              log in and print a token
  people                        list people
  projects [query]              list/search projects
  project create <name>         create a project (--leader required)
  project show <id>             show a project
  tasks [project-id]            list tasks
  task create <title>           create a task (--project required)
  task status <id> <status>     change a task's status
`)
}

// --- version ---

func cmdVersion(_ []string) error {
	fmt.Printf("crewdeck %s (commit %s, built %s)\n",
		version.Version, version.Commit, version.BuildDate)
	return nil
}

// Client holds HTTP client state for CLI commands.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// get performs a GET and decodes JSON into v.
func (c *Client) get(path string, v any) error {
	return c.do(http.MethodGet, path, nil, v)
}

// post performs a POST and decodes JSON response into v (may be nil).
func (c *Client) post(path string, body io.Reader, v any) error {
	return c.do(http.MethodPost, path, body, v)
}

// patch performs a PATCH and decodes JSON response into v (may be nil).
func (c *Client) patch(path string, body io.Reader, v any) error {
	return c.do(http.MethodPatch, path, body, v)
}

func (c *Client) do(method, path string, body io.Reader, v any) error {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if v != nil && resp.ContentLength != 0 {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

// --- status ---

func (c *Client) cmdStatus(_ []string) error {
	var result map[string]string
	if err := c.get("/api/status", &result); err != nil {
		return err
	}
	fmt.Printf("status:  %s\n", result["status"])
	fmt.Printf("version: %s\n", result["version"])
	return nil
}

// --- login ---

func (c *Client) cmdLogin(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: crewdeck login <username>")
	}
	fmt.Fprint(os.Stderr, "password: ")
	var password string
	if _, err := fmt.Scanln(&password); err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, args[0], password)
	var result map[string]string
	if err := c.post("/api/auth/login", strings.NewReader(body), &result); err != nil {
		return err
	}
	fmt.Println(result["token"])
	return nil
}

// --- people ---

func (c *Client) cmdPeople(_ []string) error {
	var people []map[string]any
	if err := c.get("/api/persons", &people); err != nil {
		return err
	}
	if len(people) == 0 {
		fmt.Println("no people")
		return nil
	}
	fmt.Printf("%-36s %-24s %-14s %-8s\n", "ID", "NAME", "ROLE", "ACTIVE")
	fmt.Println(strings.Repeat("-", 86))
	for _, p := range people {
		fmt.Printf("%-36s %-24s %-14s %-8s\n",
			strVal(p["id"]),
			truncate(strVal(p["full_name"]), 23),
			strVal(p["role"]),
			fmt.Sprint(p["active"]),
		)
	}
	return nil
}

// --- projects ---

func (c *Client) cmdProjects(args []string) error {
	path := "/api/projects"
	if len(args) > 0 {
		path += "?q=" + args[0]
	}
	var projects []map[string]any
	if err := c.get(path, &projects); err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("no projects")
		return nil
	}
	fmt.Printf("%-36s %-24s %-12s %-9s\n", "ID", "NAME", "STATUS", "PROGRESS")
	fmt.Println(strings.Repeat("-", 85))
	for _, p := range projects {
		fmt.Printf("%-36s %-24s %-12s %7.0f%%\n",
			strVal(p["id"]),
			truncate(strVal(p["name"]), 23),
			strVal(p["status"]),
			numVal(p["progress"]),
		)
	}
	return nil
}

// --- project subcommands ---

func (c *Client) cmdProject(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: crewdeck project <create|show> ...")
	}
	sub := args[0]
	switch sub {
	case "create":
		fs := flag.NewFlagSet("project create", flag.ExitOnError)
		leader := fs.String("leader", "", "leader person id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 || *leader == "" {
			return fmt.Errorf("usage: crewdeck project create --leader <person-id> <name>")
		}
		name := strings.Join(fs.Args(), " ")
		body := fmt.Sprintf(`{"name":%q,"leader_id":%q}`, name, *leader)
		var result map[string]any
		if err := c.post("/api/projects", strings.NewReader(body), &result); err != nil {
			return err
		}
		fmt.Printf("created project %s\n", strVal(result["id"]))
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: crewdeck project show <id>")
		}
		var p map[string]any
		if err := c.get("/api/projects/"+args[1], &p); err != nil {
			return err
		}
		fmt.Printf("name:     %s\n", strVal(p["name"]))
		fmt.Printf("status:   %s\n", strVal(p["status"]))
		fmt.Printf("leader:   %s\n", strVal(p["leader_id"]))
		fmt.Printf("progress: %.0f%%\n", numVal(p["progress"]))
	default:
		return fmt.Errorf("unknown project subcommand: %s", sub)
	}
	return nil
}

// --- tasks ---

func (c *Client) cmdTasks(args []string) error {
	path := "/api/tasks"
	if len(args) > 0 {
		path += "?project_id=" + args[0]
	}
	var tasks []map[string]any
	if err := c.get(path, &tasks); err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	fmt.Printf("%-36s %-30s %-12s\n", "ID", "TITLE", "STATUS")
	fmt.Println(strings.Repeat("-", 82))
	for _, t := range tasks {
		fmt.Printf("%-36s %-30s %-12s\n",
			strVal(t["id"]),
			truncate(strVal(t["title"]), 29),
			strVal(t["status"]),
		)
	}
	return nil
}

// --- task subcommands ---

func (c *Client) cmdTask(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: crewdeck task <create|status> ...")
	}
	sub := args[0]
	switch sub {
	case "create":
		fs := flag.NewFlagSet("task create", flag.ExitOnError)
		projectID := fs.String("project", "", "project id")
		assignee := fs.String("assignee", "", "assignee person id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 || *projectID == "" {
			return fmt.Errorf("usage: crewdeck task create --project <id> [--assignee <id>] <title>")
		}
		title := strings.Join(fs.Args(), " ")
		body := fmt.Sprintf(`{"title":%q,"project_id":%q,"assigned_to":%q,"priority":1}`,
			title, *projectID, *assignee)
		var result map[string]any
		if err := c.post("/api/tasks", strings.NewReader(body), &result); err != nil {
			return err
		}
		fmt.Printf("created task %s\n", strVal(result["id"]))
	case "status":
		if len(args) < 3 {
			return fmt.Errorf("usage: crewdeck task status <id> <status>")
		}
		body := fmt.Sprintf(`{"status":%q}`, args[2])
		var result map[string]any
		if err := c.patch("/api/tasks/"+args[1]+"/status", strings.NewReader(body), &result); err != nil {
			return err
		}
		fmt.Printf("task %s is now %s\n", strVal(result["id"]), strVal(result["status"]))
	default:
		return fmt.Errorf("unknown task subcommand: %s", sub)
	}
	return nil
}

// --- helpers ---

func strVal(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func numVal(v any) float64 {
	f, _ := v.(float64)
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
