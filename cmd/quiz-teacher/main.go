package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quiz-dashboard/internal/cli"
	"quiz-dashboard/internal/config"
	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/session"
	sessionsqlite "quiz-dashboard/internal/session/sqlite"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	server := flag.String("server", "", "quiz platform API base URL")
	timeout := flag.Duration("timeout", 0, "HTTP timeout")
	insecure := flag.Bool("insecure", false, "accept self-signed TLS certificates (development only)")
	sessionDB := flag.String("session-db", "", "session database path")
	exportDir := flag.String("export-dir", "", "directory for CSV exports")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.API.URL = *server
		case "timeout":
			cfg.API.Timeout = *timeout
		case "insecure":
			cfg.API.InsecureTLS = *insecure
		case "session-db":
			cfg.Session.DB = *sessionDB
		case "export-dir":
			cfg.Export.Dir = *exportDir
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args()); err != nil {
		if ctx.Err() != nil {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	store, err := sessionsqlite.NewSQLiteStore(cfg.Session.DB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	client := gateway.New(cfg.API.URL, cfg.GatewayOptions())

	command := "console"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "login":
		return runLogin(ctx, client, store, args)
	case "logout":
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	case "console":
		user, err := store.Load(ctx)
		if errors.Is(err, session.ErrNoSession) {
			return errors.New("not logged in; run 'quiz-teacher login -username <name>' first")
		}
		if err != nil {
			return err
		}

		// Unblock the console's pending read once we are interrupted.
		go func() {
			<-ctx.Done()
			_ = os.Stdin.Close()
		}()

		return cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
			Client:    client,
			Store:     store,
			User:      user,
			ExportDir: cfg.Export.Dir,
		})
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runLogin(ctx context.Context, client *gateway.HTTPClient, store session.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "teacher username (required)")
	password := fs.String("password", "", "password; prompted when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return errors.New("--username is required")
	}

	secret := *password
	if secret == "" {
		var err error
		secret, err = readPassword(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
	}

	user, err := client.Login(ctx, strings.TrimSpace(*username), secret)
	if err != nil {
		return errors.New(gateway.Message(err, "Login failed."))
	}
	if err := store.Save(ctx, user); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Printf("Logged in as %s (id %d)\n", user.Username, user.ID)
	return nil
}

func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "usage: quiz-teacher [flags] [console|login|logout]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  console   interactive teacher dashboard (default)")
	fmt.Fprintln(out, "  login     -username <name> [-password <password>]")
	fmt.Fprintln(out, "  logout    remove the stored session")
	fmt.Fprintln(out)
	flag.PrintDefaults()
}
