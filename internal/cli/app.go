package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"quiz-dashboard/internal/builder"
	"quiz-dashboard/internal/dashboard"
	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/notifications"
	"quiz-dashboard/internal/results"
	"quiz-dashboard/internal/session"
)

type Config struct {
	Client    *gateway.HTTPClient
	Store     session.Store
	User      session.User
	ExportDir string
}

type console struct {
	reader    *bufio.Reader
	out       io.Writer
	exportDir string

	home     *dashboard.Home
	builder  *builder.Builder
	results  *results.Aggregator
	gate     *notifications.Gate
	settings *dashboard.Settings
}

// Run starts the teacher console for an authenticated session and serves
// commands until exit, logout or end of input.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if !cfg.User.Authenticated() {
		return session.ErrNoSession
	}
	if cfg.Client == nil {
		return errors.New("gateway client is required")
	}
	if cfg.Store == nil {
		return errors.New("session store is required")
	}

	c := &console{
		reader:    bufio.NewReader(in),
		out:       out,
		exportDir: cfg.ExportDir,
		home:      dashboard.NewHome(ctx, cfg.Client, cfg.User),
		builder:   builder.New(ctx, cfg.Client, cfg.User),
		results:   results.NewAggregator(ctx, cfg.Client),
		gate:      notifications.New(ctx, cfg.Client, cfg.User),
		settings:  dashboard.NewSettings(ctx, cfg.Client, cfg.Store, cfg.User),
	}
	defer c.close()

	fmt.Fprintf(out, "quiz-teacher\nteacher=%s\nserver=%s\n\n", cfg.User.Username, cfg.Client.BaseURL())
	c.runHome(ctx, "")
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := c.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		command, rest := splitCommand(line)
		if command == "" {
			continue
		}

		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "whoami":
			c.runWhoami()
		case "quizzes":
			c.runHome(ctx, rest)
		case "name", "due", "question", "option", "correct", "add", "draft", "submit":
			c.runBuilder(ctx, command, rest)
		case "results", "filter", "sort", "stats", "chart", "export":
			c.runResults(ctx, command, rest)
		case "requests":
			c.runRequests(ctx)
		case "approve", "decline":
			c.runDecision(ctx, command, rest)
		case "profile":
			c.runProfile(ctx, rest)
		case "password":
			c.runPassword(ctx)
		case "logout":
			if err := c.settings.Logout(ctx); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Logged out.")
			return nil
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func (c *console) close() {
	c.home.Close()
	c.builder.Close()
	c.results.Close()
	c.gate.Close()
	c.settings.Close()
}

func (c *console) runWhoami() {
	user := c.settings.User()
	fmt.Fprintf(c.out, "Logged in as %s (id %d)\n", user.Username, user.ID)
	if user.Name != "" {
		fmt.Fprintf(c.out, "Name: %s\n", user.Name)
	}
	if user.Email != "" {
		fmt.Fprintf(c.out, "Email: %s\n", user.Email)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  whoami")
	fmt.Fprintln(out, "  quizzes [search]")
	fmt.Fprintln(out, "  name <quiz name>")
	fmt.Fprintln(out, "  due <YYYY-MM-DDTHH:MM>")
	fmt.Fprintln(out, "  question <text>")
	fmt.Fprintln(out, "  option <1-4> <text>")
	fmt.Fprintln(out, "  correct <1-4>")
	fmt.Fprintln(out, "  add")
	fmt.Fprintln(out, "  draft")
	fmt.Fprintln(out, "  submit")
	fmt.Fprintln(out, "  results <quiz_code>")
	fmt.Fprintln(out, "  filter [student]")
	fmt.Fprintln(out, "  sort <student|score|date|total|correct|time>")
	fmt.Fprintln(out, "  stats")
	fmt.Fprintln(out, "  chart")
	fmt.Fprintln(out, "  export [dir]")
	fmt.Fprintln(out, "  requests")
	fmt.Fprintln(out, "  approve <request_id>")
	fmt.Fprintln(out, "  decline <request_id>")
	fmt.Fprintln(out, "  profile <name> <email>")
	fmt.Fprintln(out, "  password")
	fmt.Fprintln(out, "  logout")
	fmt.Fprintln(out, "  exit")
}
