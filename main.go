package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/harrisonrobin/engagements/pkg/auth"
	"github.com/harrisonrobin/engagements/pkg/config"
	"github.com/harrisonrobin/engagements/pkg/filter"
	"github.com/harrisonrobin/engagements/pkg/logging"
	"github.com/harrisonrobin/engagements/pkg/model"
	"github.com/harrisonrobin/engagements/pkg/render"
	"github.com/harrisonrobin/engagements/pkg/session"
	"github.com/harrisonrobin/engagements/pkg/source"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Parse Flags
	clientFilter := flag.String("client", "", "Only show projects whose name contains this text (case-sensitive)")
	searchFilter := flag.String("search", "", "Only show projects whose name contains this text (any case)")
	programFilter := flag.String("program", "", "Only show projects in this program")
	roleFilter := flag.String("role", "", "Only show projects scoped for this role, with its hour overview")
	listPrograms := flag.Bool("programs", false, "List the programs available as filters")
	listRoles := flag.Bool("roles", false, "List the roles available as filters")
	input := flag.String("input", "", "Read projects from a JSON file ('-' for stdin) instead of the endpoint")
	endpoint := flag.String("endpoint", "", "GraphQL endpoint to query (overrides config)")
	setEndpoint := flag.String("set-endpoint", "", "Set the default GraphQL endpoint")
	doLogin := flag.Bool("login", false, "Authorize with the configured OAuth provider")
	interactive := flag.Bool("interactive", false, "Start an interactive filter session")
	asJSON := flag.Bool("json", false, "Print the filtered view as JSON")
	skipInvalid := flag.Bool("skip-invalid", false, "Drop malformed project records instead of failing")
	flag.Parse()

	// 2. Load config (Priority: Flag > Env > Config > Default)
	cfg, err := config.Load()
	if err != nil {
		logging.Init(config.DefaultLogLevel)
		logrus.Fatalf("Error loading config: %v", err)
	}
	logging.Init(cfg.LogLevel)

	// 3. Handle Set Endpoint
	if *setEndpoint != "" {
		if err := saveEndpoint(*setEndpoint); err != nil {
			logrus.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default endpoint set to: %s\n", *setEndpoint)
		return
	}

	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *skipInvalid {
		cfg.InvalidRecords = config.InvalidSkip
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 4. Handle Authorization
	if *doLogin {
		if err := auth.RemoveToken(); err != nil {
			logrus.Fatalf("%v. Please delete it manually", err)
		}
		if _, err := auth.Login(ctx, cfg.Auth, auth.LoginOptions{}); err != nil {
			logrus.Fatalf("Authorization failed: %v", err)
		}
		path, _ := auth.TokenPath()
		logrus.Infof("Authorization successful! Token saved to %s", path)
		return
	}

	// 5. Load the snapshot
	snap, err := loadProjects(ctx, cfg, *input)
	if errors.Is(err, source.ErrNoProjects) {
		fmt.Println("No projects found")
		return
	}
	if err != nil {
		logrus.Fatalf("Error loading projects: %v", err)
	}

	// 6. Seed the session state from flags
	state := filter.NewState()
	state.SetClientFilter(*clientFilter)
	state.SetSearchFilter(*searchFilter)
	state.SetProgramFilter(*programFilter)
	state.SetRoleFilter(*roleFilter)

	out := render.New(os.Stdout)
	criteria := state.Criteria()

	switch {
	case *interactive:
		if *input == "-" {
			logrus.Fatal("Interactive mode reads commands from stdin; pass -input a file instead")
		}
		s, unsubscribe, err := session.New(snap, state, os.Stdout)
		if err != nil {
			logrus.Fatalf("Error starting session: %v", err)
		}
		defer unsubscribe()
		if err := s.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Fatalf("Session error: %v", err)
		}
	case *listPrograms:
		out.Options("Programs", filter.DistinctPrograms(snap.Projects), criteria.Program)
	case *listRoles:
		out.Options("Roles", filter.DistinctRoles(snap.Projects), criteria.Role)
	default:
		v, err := filter.ApplySnapshot(snap, criteria)
		if err != nil {
			logrus.Fatalf("Error filtering projects: %v", err)
		}
		state.SetFilteredCount(v.FilteredCount)
		if *asJSON {
			if err := out.JSON(v); err != nil {
				logrus.Errorf("Error encoding view: %v", err)
			}
			return
		}
		out.View(v)
	}
}

// loadProjects reads the snapshot from a file, stdin or the endpoint.
func loadProjects(ctx context.Context, cfg *config.Config, input string) (model.Snapshot, error) {
	switch input {
	case "":
	case "-":
		return source.ParseProjects(os.Stdin, cfg.InvalidRecords)
	default:
		f, err := os.Open(input)
		if err != nil {
			return model.Snapshot{}, err
		}
		defer f.Close()
		return source.ParseProjects(f, cfg.InvalidRecords)
	}

	httpClient, err := auth.NewHTTPClient(ctx, cfg)
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "could not set up authentication")
	}
	client, err := source.NewClient(httpClient, cfg.Endpoint, cfg.InvalidRecords)
	if err != nil {
		return model.Snapshot{}, err
	}
	return client.FetchProjects(ctx)
}

// saveEndpoint updates only the file config so environment overrides are
// never persisted.
func saveEndpoint(endpoint string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	cfg.Endpoint = endpoint
	return config.Save(cfg)
}
