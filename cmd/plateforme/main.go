package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/application"
	"github.com/example/plateforme-admin/internal/config"
	httptransport "github.com/example/plateforme-admin/internal/http"
	"github.com/example/plateforme-admin/internal/logging"
	"github.com/example/plateforme-admin/internal/persistence/sqlite"
	"github.com/example/plateforme-admin/internal/session"
)

const usage = `usage: plateforme <command> [flags]

commands:
  serve    start the admin gateway (default)
  login    sign in and store the session
  logout   discard the stored session
  status   show the stored session
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, cfg config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := logging.New(stderr, cfg.LogFormat, cfg.LogLevel)

	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	var handler func(context.Context, *app, []string, io.Reader, io.Writer) error
	switch command {
	case "serve":
		handler = serve
	case "login":
		handler = login
	case "logout":
		handler = logout
	case "status":
		handler = status
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		return 1
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := handler(ctx, a, args, stdin, stdout); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(stderr, err)
			return 2
		}
		logger.Error("command failed", "command", command, "error", err, "error_kind", application.ErrorKind(err))
		fmt.Fprintln(stderr, application.UserMessage(err))
		return 1
	}
	return 0
}

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

// app holds the wired services shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	storage  *sqlite.ConnectionPool
	sessions *session.Manager
	client   *apiclient.Client

	auth          *application.AuthService
	departments   *application.DepartmentService
	presentations *application.PresentationService
	comments      *application.CommentService
	votes         *application.VoteService
	notifications *application.NotificationService
	dashboard     *application.DashboardService
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	storage, err := sqlite.Open(ctx, cfg.SessionDSN, logger)
	if err != nil {
		return nil, err
	}
	store, err := sqlite.NewSessionStore(ctx, storage, sqlite.SessionStoreOptions{
		Secret: cfg.SessionSecret,
		Logger: logger,
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	sessions := session.NewManagerWithLogger(store, time.Now, logger)

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger,
		OnUnauthorized: func(ctx context.Context) {
			logging.FromContextOr(ctx, logger).WarnContext(ctx, "backend rejected the session; login required")
		},
	}, sessions)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	votes := application.NewVoteServiceWithLogger(client, logger)
	return &app{
		cfg:           cfg,
		logger:        logger,
		storage:       storage,
		sessions:      sessions,
		client:        client,
		auth:          application.NewAuthServiceWithLogger(client, sessions, logger),
		departments:   application.NewDepartmentServiceWithLogger(client, logger),
		comments:      application.NewCommentServiceWithLogger(client, logger),
		votes:         votes,
		notifications: application.NewNotificationServiceWithLogger(client, logger),
		dashboard:     application.NewDashboardServiceWithLogger(client, logger),
		presentations: application.NewPresentationService(client, application.PresentationOptions{
			Stats:            votes,
			UploadsBaseURL:   cfg.UploadsBaseURL,
			StatsConcurrency: cfg.StatsConcurrency,
			Logger:           logger,
		}),
	}, nil
}

func (a *app) Close() error {
	if a == nil || a.storage == nil {
		return nil
	}
	return a.storage.Close()
}

func (a *app) handler() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(a.auth, a.sessions, a.logger),
		Departments: httptransport.NewDepartmentHandler(a.departments, a.logger),
		Platform: httptransport.NewPlatformHandler(httptransport.PlatformServices{
			Dashboard:     a.dashboard,
			Notifications: a.notifications,
			Presentations: a.presentations,
		}, a.logger),
		Presentations: httptransport.NewPresentationHandler(httptransport.PresentationServices{
			Presentations: a.presentations,
			Comments:      a.comments,
			Votes:         a.votes,
		}, a.logger),
		Guard:  a.sessions,
		Logger: a.logger,
	})
}

func serve(ctx context.Context, a *app, args []string, _ io.Reader, _ io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	port := fs.Int("port", a.cfg.ListenPort, "listen port")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.Info("admin gateway listening", "addr", server.Addr, "api_base_url", a.cfg.APIBaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func login(ctx context.Context, a *app, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	if strings.TrimSpace(*email) == "" {
		return usageError{errors.New("login: -email is required")}
	}

	if *password == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	signed, err := a.auth.Login(ctx, application.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Connecté en tant que %s (%s), session valable jusqu'au %s\n",
		signed.DisplayName, signed.Email, signed.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func logout(ctx context.Context, a *app, _ []string, _ io.Reader, stdout io.Writer) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Déconnecté.")
	return nil
}

func status(ctx context.Context, a *app, _ []string, _ io.Reader, stdout io.Writer) error {
	decision := a.sessions.Check(ctx)
	if !decision.Authenticated() {
		fmt.Fprintf(stdout, "Aucune session active (%s).\n", decision.Outcome)
		return nil
	}
	record, _ := a.sessions.Current(ctx)
	fmt.Fprintf(stdout, "Connecté en tant que %s (%s), session valable jusqu'au %s\n",
		record.DisplayName, record.Email, decision.Claims.ExpiresAt.Local().Format(time.DateTime))
	return nil
}
