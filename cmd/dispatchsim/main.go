// Command dispatchsim runs the railway dispatch metaheuristic search over a
// JSON route/train scenario, grounded on lox-pokerforbots/cmd/simulate's
// kong.Parse CLI-struct pattern (spec.md §2, §6).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/scenario"
	"github.com/fndando/dispatchsim/server"
	"github.com/fndando/dispatchsim/simulation"
)

type CLI struct {
	Route      string `required:"" help:"JSON route topology file."`
	Trains     string `required:"" help:"JSON train list file."`
	Config     string `help:"HCL controller option file (defaults applied when omitted)."`
	Families   string `default:"random,genetic,pso" help:"Comma-separated controller families to run: random, genetic, pso."`
	ReportFile string `default:"dispatchsim-report.txt" help:"Plain-text report output path."`
	Seed       int64  `default:"0" help:"Override the controller seed (0 keeps the config value)."`

	Serve bool   `help:"Start the read-only status/push HTTP server while running."`
	Addr  string `default:"0.0.0.0" help:"HTTP server bind address."`
	Port  string `default:"22222" help:"HTTP server bind port."`

	Verbose bool `short:"v" help:"Debug-level logging."`
}

func main() {
	var cli CLI
	kong.Parse(&cli)

	logger := log.New()
	handler := log.StreamHandler(os.Stderr, log.LogfmtFormat())
	if cli.Verbose {
		logger.SetHandler(log.LvlFilterHandler(log.LvlDebug, handler))
	} else {
		logger.SetHandler(log.LvlFilterHandler(log.LvlInfo, handler))
	}

	if err := run(cli, logger); err != nil {
		logger.Crit("dispatchsim failed", "error", err)
		os.Exit(1)
	}
}

func run(cli CLI, logger log.Logger) error {
	families, err := parseFamilies(cli.Families)
	if err != nil {
		return err
	}

	cache := simulation.NewCache()
	route, err := scenario.LoadRoute(cli.Route, cache)
	if err != nil {
		return fmt.Errorf("loading route: %w", err)
	}

	trains, err := scenario.LoadTrains(cli.Trains, route)
	if err != nil {
		return fmt.Errorf("loading trains: %w", err)
	}

	config, err := scenario.LoadControllerConfig(cli.Config)
	if err != nil {
		return fmt.Errorf("loading controller config: %w", err)
	}
	opts := config.ToOptions()
	if cli.Seed != 0 {
		opts.Seed = cli.Seed
	}

	driver := scenario.NewDriver(route, trains, opts, nil, logger)

	var srv *server.Server
	if cli.Serve {
		srv = server.NewServer("dispatchsim", "railway dispatch metaheuristic search", driver.StatusJSON, logger)
		driver.Server = srv
		go func() {
			if err := srv.ListenAndServe(cli.Addr, cli.Port); err != nil {
				logger.Error("http server stopped", "error", err)
			}
		}()
	}

	if err := driver.Run(families); err != nil {
		return fmt.Errorf("running scenario: %w", err)
	}

	fmt.Println(scenario.RenderSummary("dispatchsim results", driver.Controllers()))
	if err := scenario.WriteReportFile(cli.ReportFile, driver.Controllers()); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	logger.Info("report written", "path", cli.ReportFile)
	return nil
}

func parseFamilies(raw string) ([]scenario.Family, error) {
	var out []scenario.Family
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		switch scenario.Family(name) {
		case scenario.FamilyRandom, scenario.FamilyGenetic, scenario.FamilyPSO:
			out = append(out, scenario.Family(name))
		default:
			return nil, fmt.Errorf("unknown controller family %q", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no controller families requested")
	}
	return out, nil
}
