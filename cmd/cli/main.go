package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/config"
	"github.com/yourorg/credenciales/internal/credential"
	appdb "github.com/yourorg/credenciales/internal/db"
	"github.com/yourorg/credenciales/internal/logging"
	"github.com/yourorg/credenciales/internal/notify"
	"github.com/yourorg/credenciales/internal/store"
)

// env reúne lo que comparten los subcomandos que tocan la base.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	db    *sql.DB
	creds *credential.Service
	users *store.UserStore
}

func main() {
	root := &cobra.Command{
		Use:           "credenciales-cli",
		Short:         "Herramientas de administración de credenciales",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("actor", "", "email del usuario al que se atribuyen los cambios en auditoría")

	root.AddCommand(
		healthCmd(),
		seedAdminCmd(),
		importCmd(),
		printCmd(),
		emitirCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Consulta /api/health del servidor (BASE_URL)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			base := os.Getenv("BASE_URL")
			if base == "" {
				base = "http://127.0.0.1:8080"
			}
			url := strings.TrimRight(base, "/") + "/api/health"
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			defer resp.Body.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Health status:", resp.Status)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health: servidor degradado (%d)", resp.StatusCode)
			}
			return nil
		},
	}
}

// open carga configuración, abre la base y arma los servicios. El contexto
// devuelto lleva el actor de auditoría si se pasó --actor.
func open(cmd *cobra.Command) (*env, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	db, dialect, err := appdb.Connect(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if err := appdb.EnsureSchema(ctx, db, dialect, cfg.DB.SkipSchema, log); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	e := &env{cfg: cfg, log: log, db: db, users: store.NewUserStore(db)}
	auditSvc := audit.NewService(store.NewAuditStore(db), log)
	e.creds = credential.NewService(store.NewCredentialStore(db), auditSvc, notify.Nop{}, log)

	if email, _ := cmd.Flags().GetString("actor"); email != "" {
		u, err := e.users.GetByEmail(ctx, email)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("actor %s: %w", email, err)
		}
		ctx = audit.WithActor(ctx, audit.Actor{UserID: u.ID, UserEmail: u.Email, IPAddress: "cli"})
	}
	return e, ctx, nil
}

func (e *env) Close() {
	_ = e.db.Close()
	_ = e.log.Sync()
}
