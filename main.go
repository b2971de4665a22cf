package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aashish23092/contribution-calculator/config"
	"github.com/Aashish23092/contribution-calculator/handler"
	"github.com/Aashish23092/contribution-calculator/service"
	"github.com/Aashish23092/contribution-calculator/store"
	"github.com/Aashish23092/contribution-calculator/utils"
)

// app holds the process-wide dependencies built once at startup.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.RecordStore
	svc    *service.ContributionService
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.LoadConfig()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	settings, err := cfg.StoreSettings()
	if err != nil {
		logger.Error("Store is not configured", zap.Error(err))
		return nil, err
	}

	recordStore, err := store.Open(ctx, settings, logger)
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return nil, err
	}

	svc := service.NewContributionService(recordStore, service.Options{
		TargetCity: cfg.TargetCity,
		TargetYear: cfg.TargetYear,
		Location:   cfg.Location,
	}, logger)

	return &app{cfg: cfg, logger: logger, store: recordStore, svc: svc}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.logger.Sync()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contrib",
		Short:         "Social insurance contribution calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE:  runServe,
		},
		newImportCmd(),
		&cobra.Command{
			Use:   "calculate",
			Short: "Recompute contribution results from stored policy and salaries",
			RunE:  runCalculate,
		},
		newExportCmd(),
	)
	return root
}

func newImportCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:       "import {policies|salaries} <file>",
		Short:     "Replace stored policies or salaries with a spreadsheet's rows",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"policies", "salaries"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			mode := utils.DecodeTolerant
			if strict {
				mode = utils.DecodeStrict
			}

			var n int
			switch args[0] {
			case "policies":
				n, err = a.svc.ImportPolicies(cmd.Context(), data, mode)
			case "salaries":
				n, err = a.svc.ImportSalaries(cmd.Context(), data, mode)
			default:
				return fmt.Errorf("unknown collection %q (want policies or salaries)", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject sheets with unparseable numeric cells")
	return cmd
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored results to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, filename, err := a.svc.ExportResults(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				output = filename
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: dated file name)")
	return cmd
}

func runCalculate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.svc.Calculate(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "calculated %d employees\n", len(results))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	contributionHandler := handler.NewContributionHandler(a.svc, a.cfg.MaxFileSize, a.logger)
	router := handler.NewRouter(contributionHandler, a.cfg.MaxFileSize, a.logger)

	a.logger.Info("Starting Contribution Calculator",
		zap.String("port", a.cfg.ServerPort),
		zap.String("target_city", a.cfg.TargetCity),
		zap.String("target_year", a.cfg.TargetYear))

	return serveUntilDone(cmd.Context(), ":"+a.cfg.ServerPort, router, a.logger)
}
