// Command eventctl drives the event scheduler API from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/minisched/internal/client"
	"github.com/okian/minisched/internal/domain/model"
)

const (
	defaultURL     = "http://localhost:5000"
	defaultTimeout = 10 * time.Second
)

var errUsage = errors.New("usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			showHelp(os.Stderr)
			os.Exit(2)
		}
		os.Stderr.WriteString("eventctl: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("eventctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	baseURL := global.String("url", envOr("SCHED_URL", defaultURL), "Base URL of the service")
	timeout := global.Duration("timeout", defaultTimeout, "HTTP request timeout")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	c := client.New(*baseURL, client.WithTimeout(*timeout))
	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "list":
		return runList(ctx, c, cmdArgs, out)
	case "create":
		return runCreate(ctx, c, cmdArgs, out)
	case "archive":
		id, err := singleID(cmd, cmdArgs)
		if err != nil {
			return err
		}
		e, err := c.Archive(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, e)
	case "delete":
		id, err := singleID(cmd, cmdArgs)
		if err != nil {
			return err
		}
		msg, err := c.Delete(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]string{"message": msg})
	case "help":
		showHelp(out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runList(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	category := fs.String("category", "all", "all, Work, Personal or Other")
	counts := fs.Bool("counts", false, "Print the number of events per category instead")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	filter, err := client.ParseFilter(*category)
	if err != nil {
		return err
	}

	events, err := c.List(ctx)
	if err != nil {
		return err
	}
	events = client.SortChronological(events)
	if *counts {
		return printJSON(out, client.CountByCategory(events))
	}
	return printJSON(out, filter.Apply(events))
}

func runCreate(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var in model.NewEvent
	fs.StringVar(&in.Title, "title", "", "Event title (required)")
	fs.StringVar(&in.Date, "date", "", "Date as YYYY-MM-DD (required)")
	fs.StringVar(&in.Time, "time", "", "Time as HH:MM (required)")
	fs.StringVar(&in.Notes, "notes", "", "Free-form notes")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	e, err := c.Create(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(out, e)
}

func singleID(cmd string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: %s takes exactly one event id", errUsage, cmd)
	}
	return args[0], nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func showHelp(w io.Writer) {
	_, _ = io.WriteString(w, `eventctl - Mini Event Scheduler client

Usage:
  eventctl [-url URL] [-timeout 10s] <command> [options]

Commands:
  list    [-category all|Work|Personal|Other] [-counts]
  create  -title T -date YYYY-MM-DD -time HH:MM [-notes N]
  archive <id>
  delete  <id>

The service URL defaults to $SCHED_URL or http://localhost:5000.
`)
}
