package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"teambuilder/internal/app"
	"teambuilder/internal/config"
	"teambuilder/internal/services"
	"teambuilder/internal/validators"
)

const usage = `usage: admin <command> [flags]

commands:
  create-user         -email -password [-uid] [-name]
  create-admin        -email -password [-uid] [-name]
  cleanup-users       -admin-uid   delete user records and identities except admins
  cleanup-identities  -admin-uid   delete every identity except the admin
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	cmd, args := args[0], args[1:]

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return 1
	}
	defer a.Close()

	switch cmd {
	case "create-user":
		return createIdentity(ctx, a.Admin, args, false)
	case "create-admin":
		return createIdentity(ctx, a.Admin, args, true)
	case "cleanup-users":
		return cleanup(ctx, args, cfg.Team.AdminUID, a.Admin.CleanupUsers)
	case "cleanup-identities":
		return cleanup(ctx, args, cfg.Team.AdminUID, a.Admin.CleanupIdentities)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

func createIdentity(ctx context.Context, svc services.AdminService, args []string, admin bool) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	req := &validators.CreateIdentityRequest{}
	fs.StringVar(&req.UID, "uid", "", "uid to assign (generated when empty)")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "initial password")
	fs.StringVar(&req.DisplayName, "name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	record, err := svc.CreateIdentity(ctx, req, admin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Printf("created identity %s (%s) admin=%t\n", record.UID, record.Email, record.Admin)
	return 0
}

func cleanup(ctx context.Context, args []string, defaultAdmin string, fn func(context.Context, string) (*services.CleanupResult, error)) int {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	adminUID := fs.String("admin-uid", defaultAdmin, "uid that is never deleted (default ADMIN_UID)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *adminUID == "" {
		fmt.Fprintln(os.Stderr, "error: -admin-uid or ADMIN_UID is required")
		return 2
	}

	result, err := fn(ctx, *adminUID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("deleted %d, skipped %d, failed %d\n", result.Deleted, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return 1
	}
	return 0
}
