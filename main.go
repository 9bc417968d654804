package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/internal/app"
	"github.com/fieldroute/routegen/internal/config"
	"github.com/fieldroute/routegen/providers"
	"github.com/fieldroute/routegen/route"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("routegen", flag.ContinueOnError)
	userID := fs.Int("user", 0, "technician user ID to route")
	all := fs.Bool("all", false, "route every active technician")
	provider := fs.String("provider", "", fmt.Sprintf("mapping provider (%s)", strings.Join(providers.Names(), ", ")))
	origin := fs.String("origin", "", "override the route start address")
	destination := fs.String("destination", "", "override the route end address")
	roundTrip := fs.Bool("round-trip", false, "end the route back at the origin")
	preview := fs.Bool("preview", false, "print the ordered stop list without building a route")
	dryRun := fs.Bool("dry-run", false, "build and print the route without writing it back")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == 0 && !*all {
		fs.Usage()
		return errors.New("either -user or -all is required")
	}
	if *preview && *all {
		return errors.New("-preview works on a single -user")
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if *all {
		return runAll(ctx, a, *provider, *origin, *destination, *roundTrip, *dryRun)
	}

	p, err := a.Pipeline(*provider, *origin, *destination, *roundTrip, *dryRun)
	if err != nil {
		return err
	}
	p.Log = logger.With().Str("run_id", uuid.NewString()).Logger()

	if *preview {
		return printStops(ctx, p, *userID)
	}

	res, err := p.Run(ctx, *userID)
	if err != nil {
		return err
	}
	fmt.Println(res.URL)
	return nil
}

// printStops dumps the ordered stop list for one technician without
// building a route URL.
func printStops(ctx context.Context, p *route.Pipeline, userID int) error {
	stops, err := p.Stops(ctx, userID)
	if err != nil {
		return err
	}
	if len(stops) == 0 {
		fmt.Println("no routable assignments today")
		return nil
	}
	for _, s := range stops {
		label := s.Label
		if s.JobCount > 1 {
			label = fmt.Sprintf("%s (+%d)", label, s.JobCount-1)
		}
		fmt.Printf("%-16s %-7s %s\n", label, s.Window, s.Address)
	}
	return nil
}

// runAll routes every active technician. One technician's failure is logged
// and skipped so a single bad record cannot sink the nightly run.
func runAll(ctx context.Context, a *app.App, provider, origin, destination string, roundTrip, dryRun bool) error {
	users, err := a.Integration.ActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	for _, u := range users {
		p, err := a.Pipeline(provider, origin, destination, roundTrip, dryRun)
		if err != nil {
			return err
		}
		log := a.Log.With().
			Str("run_id", uuid.NewString()).
			Int("user_id", u.UserID).
			Str("name", u.FullName()).
			Logger()
		p.Log = log

		res, err := p.Run(ctx, u.UserID)
		if err != nil {
			if errors.Is(err, route.ErrNoAssignments) {
				log.Info().Msg("nothing scheduled today")
			} else {
				log.Error().Err(err).Msg("route generation failed")
			}
			continue
		}
		fmt.Printf("%s\t%s\n", u.FullName(), res.URL)
	}
	return nil
}
