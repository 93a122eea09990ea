// teamfit: team assignment engine exposed as an MCP server.
//
// It picks who should work on each task of an order given the team's roles,
// rates, speed and weekly availability, optimizing for speed, continuity
// or cost.
//
// Usage:
//
//	teamfit serve                 # Start MCP server (stdio transport)
//	teamfit plan order.json       # Staff an order from a JSON file
//	teamfit roles                 # Print the role table
//	teamfit init                  # Write a default config file
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/teamfit/internal/config"
	tfserver "github.com/HendryAvila/teamfit/internal/server"
	"github.com/HendryAvila/teamfit/internal/team"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = run()
	case "plan":
		err = runPlan(os.Args[2:])
	case "roles":
		err = runRoles()
	case "init":
		err = runInit()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("teamfit v%s\n", tfserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("TEAMFIT_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	s, cleanup, err := tfserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeStdio(s) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	modeFlag := fs.String("mode", "", "optimization mode: fastest, balanced or cheapest")
	splitFlag := fs.Bool("split", false, "divide splittable tasks across members")
	configFlag := fs.String("config", "", "config file (default: <data_dir>/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("plan expects exactly one order file")
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	mode := cfg.Mode()
	if *modeFlag != "" {
		if mode, err = team.ParseMode(*modeFlag); err != nil {
			return err
		}
	}

	order, err := loadOrder(fs.Arg(0))
	if err != nil {
		return err
	}

	e, cleanup, err := tfserver.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	plan := e.Plan(order.Tasks, order.Members, order.Assigned, mode, *splitFlag)
	fmt.Println(renderPlan(order, plan))
	return nil
}

func runRoles() error {
	cfg, err := config.Load(os.Getenv("TEAMFIT_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	r, err := cfg.Resolver()
	if err != nil {
		return err
	}
	fmt.Println(renderRoles(r.Table()))
	return nil
}

func runInit() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	wrote, err := cfg.Init()
	if err != nil {
		return err
	}
	if !wrote {
		fmt.Fprintf(os.Stderr, "Config already exists at %s\n", cfg.Path())
		return nil
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", cfg.Path())
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `teamfit v%s: team assignment engine

Usage:
  teamfit serve                          Start the MCP server (stdio transport)
  teamfit plan [-mode m] [-split] FILE   Staff the order in FILE and print the plan
  teamfit roles                          Print the active role table
  teamfit init                           Write a default config to ~/.teamfit/config.yaml
  teamfit version                        Print the version

Order file:
  {
    "order_id": "o-1",
    "members": [{"id": "ana", "roles": ["frontend"], "hourlyRate": 90,
                 "speedFactor": 1.2, "weeklyAvailableHours": [40, 40, 20, 0]}],
    "tasks":   [{"id": "landing", "role": "React dev", "estimatedHours": 16}],
    "assigned": {"ana": [8, 0, 0, 0]}
  }

Environment:
  TEAMFIT_DATA_DIR  TEAMFIT_CACHE  TEAMFIT_ROLES  TEAMFIT_MODE  TEAMFIT_CONFIG

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "teamfit": {
        "command": "teamfit",
        "args": ["serve"]
      }
    }
  }
`, tfserver.Version)
}
