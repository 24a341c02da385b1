package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/siteledger/internal/cli"
	"github.com/alexanderramin/siteledger/internal/config"
	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/lock"
	"github.com/alexanderramin/siteledger/internal/server"
	"github.com/alexanderramin/siteledger/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configFlag picks --config out of the arguments before the command tree
// exists, since the services depend on it.
func configFlag(args []string) string {
	fs := pflag.NewFlagSet("siteledger", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "")
	_ = fs.Parse(args)
	return *path
}

func run() error {
	cfg, err := config.Load(configFlag(os.Args[1:]))
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	uow := db.NewSQLiteUnitOfWork(database)
	locker := lock.New(lock.WithDir(cfg.LockDir))

	var observers []service.UseCaseObserver
	if cfg.Log.UseCases {
		observers = append(observers, service.NewLogUseCaseObserver(logger))
	}

	app := &cli.App{
		Projects:   service.NewProjectService(uow, locker, observers...),
		BOQ:        service.NewBOQService(uow, locker, observers...),
		Tasks:      service.NewTaskService(uow, locker, observers...),
		DPRs:       service.NewDPRService(uow, locker, observers...),
		Equipment:  service.NewEquipmentService(uow, locker, observers...),
		Purchases:  service.NewPurchaseService(uow, locker, observers...),
		Billing:    service.NewBillingService(uow, locker, observers...),
		Quotations: service.NewQuotationService(uow, observers...),
		Dashboard:  service.NewDashboardService(uow),
		Import:     service.NewImportService(uow, observers...),
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	app.Serve = func(ctx context.Context, addr string) error {
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		api := server.NewWebAPI(server.Config{
			Addr:            addr,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
			Dependencies: server.Dependencies{
				Projects:  app.Projects,
				BOQ:       app.BOQ,
				Tasks:     app.Tasks,
				Dashboard: app.Dashboard,
				Logger:    logger,
			},
		})
		return api.Start(ctx)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(app)
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML)")
	return rootCmd.ExecuteContext(ctx)
}
