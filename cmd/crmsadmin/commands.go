package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	appRepos "github.com/yigit/crms/internal/app/repositories"
	appServices "github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/bootstrap"
	"github.com/yigit/crms/internal/config"
	"github.com/yigit/crms/internal/seed"
)

// errIntegrityIssues makes `check` exit non-zero when a check flagged rows
var errIntegrityIssues = errors.New("integrity checks reported issues")

var sectionFlag = &cli.Int64Flag{
	Name:  "section",
	Usage: "limit the command to one section course `ID`",
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "crmsadmin",
		Usage:     "maintenance tasks for the Class Record Management System",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration `FILE`",
				EnvVars: []string{"CRMS_CONFIG"},
				Value:   bootstrap.ConfigPath(),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending SQL migrations",
				Action: withDatabase(runMigrate),
			},
			{
				Name:  "seed",
				Usage: "create the default administrator and, optionally, a demo catalogue",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin-email", Usage: "overrides seed.admin_email"},
					&cli.StringFlag{Name: "admin-password", Usage: "overrides seed.admin_password"},
					&cli.BoolFlag{Name: "demo", Usage: "also create demo courses"},
				},
				Action: withDatabase(runSeed),
			},
			{
				Name:   "repair-attendance",
				Usage:  "set not-marked attendance rows to present",
				Flags:  []cli.Flag{sectionFlag},
				Before: checkSectionFlag,
				Action: withDatabase(runRepairAttendance),
			},
			{
				Name:   "refresh-analytics",
				Usage:  "recompute analytics metrics, clusters and insights",
				Flags:  []cli.Flag{sectionFlag},
				Before: checkSectionFlag,
				Action: withDatabase(runRefreshAnalytics),
			},
			{
				Name:   "check",
				Usage:  "run data integrity checks; exits 1 when any check flags rows",
				Action: withDatabase(runCheck),
			},
		},
	}
}

// checkSectionFlag rejects a non-positive --section before any connection is opened
func checkSectionFlag(c *cli.Context) error {
	if c.IsSet("section") && c.Int64("section") <= 0 {
		return fmt.Errorf("--section must be a positive ID, got %d", c.Int64("section"))
	}
	return nil
}

func sectionScope(c *cli.Context) *int64 {
	if !c.IsSet("section") {
		return nil
	}
	id := c.Int64("section")
	return &id
}

type env struct {
	cfg  *config.Config
	pool *pgxpool.Pool
	log  zerolog.Logger
}

type action func(c *cli.Context, e *env) error

// withDatabase loads configuration and opens the pool around a command
func withDatabase(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return err
		}
		lgr := zerolog.New(zerolog.ConsoleWriter{Out: c.App.ErrWriter}).With().Timestamp().Logger()

		pool, err := bootstrap.ConnectDatabase(cfg, lgr)
		if err != nil {
			return err
		}
		defer pool.Close()

		return fn(c, &env{cfg: cfg, pool: pool, log: lgr})
	}
}

func runMigrate(c *cli.Context, e *env) error {
	applied, err := bootstrap.RunMigrations(c.Context, e.cfg, e.pool, e.log)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", applied)
	return nil
}

func runSeed(c *cli.Context, e *env) error {
	opts := seed.Options{
		AdminEmail:    e.cfg.Seed.AdminEmail,
		AdminPassword: e.cfg.Seed.AdminPassword,
		Demo:          c.Bool("demo"),
	}
	if v := c.String("admin-email"); v != "" {
		opts.AdminEmail = v
	}
	if v := c.String("admin-password"); v != "" {
		opts.AdminPassword = v
	}

	res, err := seed.CreateDefaultData(c.Context, seed.Repos{
		Users:   appRepos.NewUserRepository(e.pool),
		Courses: appRepos.NewCourseRepository(e.pool),
	}, opts, e.log)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "admin created: %t, demo courses created: %d\n", res.AdminCreated, res.CoursesCreated)
	return nil
}

// withServices builds the full service graph and runs the live-feed hub so
// published events are drained while the command runs
func withServices(c *cli.Context, e *env, fn func(deps *bootstrap.Dependencies) error) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	deps, err := bootstrap.BuildDependencies(ctx, e.cfg, e.pool, e.log)
	if err != nil {
		return err
	}
	go deps.Hub.Run(ctx)
	if deps.Redis != nil {
		defer deps.Redis.Close()
	}
	return fn(deps)
}

func runRepairAttendance(c *cli.Context, e *env) error {
	return withServices(c, e, func(deps *bootstrap.Dependencies) error {
		updated, err := deps.AttendanceService.Repair(c.Context, 0, sectionScope(c))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "updated %d attendance row(s)\n", updated)
		return nil
	})
}

func runRefreshAnalytics(c *cli.Context, e *env) error {
	return withServices(c, e, func(deps *bootstrap.Dependencies) error {
		var (
			summary *appServices.RefreshSummary
			err     error
		)
		if scope := sectionScope(c); scope != nil {
			summary, err = deps.AnalyticsService.RefreshSection(c.Context, *scope)
		} else {
			summary, err = deps.AnalyticsService.RefreshAll(c.Context)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "refreshed %d section(s), %d enrollment(s), %d at risk\n",
			summary.Sections, summary.Enrollments, summary.AtRisk)
		return nil
	})
}

func runCheck(c *cli.Context, e *env) error {
	checks, err := appRepos.NewIntegrityRepository(e.pool).Run(c.Context)
	if err != nil {
		return err
	}
	return printChecks(c.App.Writer, checks)
}

// printChecks writes one row per check and fails when any check flagged rows
func printChecks(w io.Writer, checks []appRepos.IntegrityCheck) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tROWS\tDESCRIPTION")
	flagged := 0
	for _, ch := range checks {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", ch.Name, ch.Count, ch.Description)
		if ch.Count > 0 {
			flagged++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if flagged > 0 {
		return fmt.Errorf("%w: %d of %d", errIntegrityIssues, flagged, len(checks))
	}
	return nil
}
