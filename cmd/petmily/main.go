package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/petmily/petmily-go/api"
	"github.com/petmily/petmily-go/credentials"
	"github.com/petmily/petmily-go/internal/config"
	apperrors "github.com/petmily/petmily-go/internal/errors"
	"github.com/petmily/petmily-go/provider"
	"github.com/petmily/petmily-go/session"
	"github.com/petmily/petmily-go/transport"
)

const credentialFileName = "credentials.json"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	configPath := flag.String("config", os.Getenv("PETMILY_CONFIG"), "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	application, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	args := flag.Args()
	if len(args) == 0 {
		usage(cfg.GetAppName())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "login":
		return application.login(ctx, args[1:])
	case "register":
		return application.register(ctx, args[1:])
	case "kakao-login":
		return application.kakaoLogin(ctx)
	case "whoami":
		return application.whoami(ctx)
	case "logout":
		return application.logout(ctx)
	case "pets":
		return application.pets(ctx)
	case "delete-account":
		return application.deleteAccount(ctx)
	default:
		usage(cfg.GetAppName())
		return errors.Errorf("unknown command %q", args[0])
	}
}

func usage(appName string) {
	displayAppname(appName)
	fmt.Println("Usage: petmily [-config path] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login -u <username> -p <password> [-remember]")
	fmt.Println("  register -id <id> -p <password> -email <email> -name <name> -phone <phone>")
	fmt.Println("  kakao-login")
	fmt.Println("  whoami")
	fmt.Println("  logout")
	fmt.Println("  pets")
	fmt.Println("  delete-account")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

type app struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *credentials.Store
	backend  *api.Client
	sessions *session.Manager
	bridge   *provider.Bridge
}

// cliNavigator maps the browser-level reactions (hard navigation to login,
// full page reload) onto their CLI equivalents.
type cliNavigator struct {
	log      zerolog.Logger
	sessions *session.Manager
}

func (n *cliNavigator) ToLogin() {
	n.log.Info().Msg("session cleared; run `petmily login` to sign in again")
}

func (n *cliNavigator) Reload() {
	if n.sessions != nil && n.sessions.Restore() {
		current := n.sessions.Current()
		n.log.Info().Str("username", current.User.Username).Msg("signed in")
	}
}

func buildApp(cfg config.Config, logger zerolog.Logger) (*app, error) {
	durable, err := openDurableBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := credentials.NewStore(durable, credentials.NewMemoryBackend(), credentials.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	nav := &cliNavigator{log: logger}

	// The unauthorized hook needs the session manager, which needs the API
	// client, which needs the authorizer. Bind late.
	var sessions *session.Manager
	authorizer, err := transport.NewAuthorizer(store,
		transport.WithAuthorizerLogger(logger),
		transport.WithOnUnauthorized(func() {
			if sessions != nil {
				sessions.Invalidate()
			}
			nav.ToLogin()
		}),
	)
	if err != nil {
		return nil, err
	}

	backend, err := api.NewClient(cfg.GetAPIBaseURL(), authorizer,
		api.WithLocale(cfg.GetLocale()),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	sessions, err = session.NewManager(store, backend, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	nav.sessions = sessions

	bridge, err := provider.NewBridge(cfg, store, sessions, backend,
		provider.WithNavigator(nav),
		provider.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      logger,
		store:    store,
		backend:  backend,
		sessions: sessions,
		bridge:   bridge,
	}, nil
}

// openDurableBackend opens the credential file, discarding it when it no
// longer decodes (fail-safe: proceed unauthenticated rather than crash).
func openDurableBackend(cfg config.Config, logger zerolog.Logger) (*credentials.FileBackend, error) {
	var options []credentials.FileBackendOption
	if passphrase := cfg.GetStorePassphrase(); passphrase != "" {
		cipher, err := credentials.NewCipher(passphrase)
		if err != nil {
			return nil, err
		}
		options = append(options, credentials.WithCipher(cipher))
	}

	path := filepath.Join(cfg.GetDataFolder(), credentialFileName)
	backend, err := credentials.OpenFileBackend(path, options...)
	if err == nil {
		return backend, nil
	}

	logger.Warn().Err(err).Str("path", path).Msg("discarding unreadable credential file")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "[openDurableBackend] remove unreadable credential file")
	}
	return credentials.OpenFileBackend(path, options...)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", a.sessions.SavedUsername(), "Username")
	password := fs.String("p", "", "Password")
	remember := fs.Bool("remember", false, "Keep the session across restarts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("login requires -u and -p")
	}

	current, err := a.sessions.Login(ctx, *username, *password, *remember)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", current.User.Username, current.User.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	id := fs.String("id", "", "Account ID")
	password := fs.String("p", "", "Password")
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	phone := fs.String("phone", "", "Phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.sessions.Register(ctx, api.RegisterRequest{
		ID:          *id,
		Password:    *password,
		Email:       *email,
		Name:        *name,
		PhoneNumber: *phone,
	})
	if err != nil {
		return err
	}
	fmt.Println("Registered. Run `petmily login` to sign in.")
	return nil
}

func (a *app) kakaoLogin(ctx context.Context) error {
	authURL, state, err := a.bridge.BeginAuthorization(ctx)
	if err != nil {
		return err
	}

	callback, err := provider.NewCallbackServer(a.bridge, a.cfg.GetCallbackListenAddr(), state, a.log)
	if err != nil {
		return err
	}
	go func() {
		if err := callback.ListenAndServe(); err != nil {
			a.log.Error().Err(err).Msg("callback listener error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = callback.Shutdown(shutdownCtx)
	}()

	fmt.Println("Open this URL in your browser to continue:")
	fmt.Println(" ", authURL)

	select {
	case err := <-callback.Done():
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	current := a.sessions.Current()
	if current.IsAuthenticated {
		fmt.Printf("Signed in as %s\n", current.User.Username)
	}
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.sessions.Restore() {
		fmt.Println("Not signed in.")
		return nil
	}

	// Confirm against the backend; a stale credential gets cleared by the
	// middleware and reported through the navigator.
	user, err := a.backend.Me(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.sessions.Restore()
	a.sessions.Logout(ctx)
	fmt.Println("Signed out.")
	return nil
}

func (a *app) pets(ctx context.Context) error {
	if !a.sessions.Restore() {
		return apperrors.ErrNotAuthenticated
	}
	pets, err := a.backend.ListPets(ctx)
	if err != nil {
		return err
	}
	if len(pets) == 0 {
		fmt.Println("No pets registered yet.")
		return nil
	}
	for _, pet := range pets {
		fmt.Printf("%s\t%s\t%s\n", pet.ID, pet.Name, pet.Breed)
	}
	return nil
}

func (a *app) deleteAccount(ctx context.Context) error {
	if !a.sessions.Restore() {
		return apperrors.ErrNotAuthenticated
	}
	if err := a.backend.DeleteAccount(ctx); err != nil {
		return err
	}
	a.sessions.Invalidate()
	fmt.Println("Account deleted.")
	return nil
}
