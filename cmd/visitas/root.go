package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/go-visitas/apiclient"
	"github.com/jrsteele09/go-visitas/auth"
	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/jrsteele09/go-visitas/internal/config"
	"github.com/jrsteele09/go-visitas/resources"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built once the flags are parsed.
type app struct {
	printer
	in      *bufio.Reader
	cfg     config.Config
	store   credentials.Store
	client  *apiclient.Client
	auth    *auth.Service
	catalog *resources.Catalog
	storage credentials.StorageKind
}

type rootFlags struct {
	apiURL      string
	storage     string
	credentials string
	timeout     time.Duration
	verbose     bool
}

// sessionRedirector tells the user to sign in again when the session can no
// longer be refreshed.
type sessionRedirector struct {
	p printer
}

func (r sessionRedirector) OnLoginScreen() bool { return false }

func (r sessionRedirector) RedirectToLogin() {
	r.p.warning("your session has expired, run `visitas login` to sign in again")
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{printer: printer{out: out, err: errOut}, in: bufio.NewReader(in)}
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "visitas",
		Short:         "Command line client for the visitas API",
		Long:          "visitas - record and browse lodge visits from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd == cmd.Root() {
				return nil
			}
			return a.init(flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.banner("Visitas")
			return cmd.Help()
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "API base URL (default $VISITAS_API_URL)")
	pf.StringVar(&flags.storage, "storage", "", "credential storage: session, durable or sqlite (default $VISITAS_TOKEN_STORAGE)")
	pf.StringVar(&flags.credentials, "credentials", "", "credentials file for durable or sqlite storage")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per request timeout")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)
	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newPasswdCmd(a),
		newResourcesCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)

	return rootCmd
}

func (a *app) init(flags *rootFlags) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger := zerolog.Nop()
	if flags.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: a.err, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	storage := flags.storage
	if storage == "" {
		storage = cfg.GetTokenStorage()
	}
	a.storage, err = credentials.ParseStorageKind(storage)
	if err != nil {
		return err
	}
	path := flags.credentials
	if path == "" {
		path = cfg.GetCredentialsPath()
	}
	if a.storage == credentials.StorageSQLite && strings.HasSuffix(path, ".json") {
		path = strings.TrimSuffix(path, ".json") + ".db"
	}
	a.store, err = credentials.Open(a.storage, path)
	if err != nil {
		return err
	}
	vault, err := credentials.NewVault(a.store, cfg.GetCredentialsKeyPrefix())
	if err != nil {
		return err
	}

	apiURL := flags.apiURL
	if apiURL == "" {
		apiURL = cfg.GetAPIURL()
	}
	timeout := flags.timeout
	if timeout <= 0 {
		timeout = cfg.GetRequestTimeout()
	}
	a.client, err = apiclient.New(apiURL, vault,
		apiclient.WithTimeout(timeout),
		apiclient.WithLogger(logger),
		apiclient.WithLoginRedirector(sessionRedirector{p: a.printer}),
	)
	if err != nil {
		return err
	}
	a.auth, err = auth.NewService(a.client, auth.WithLogger(logger))
	if err != nil {
		return err
	}
	a.catalog = resources.NewCatalog(a.client)
	return nil
}

func (a *app) close() error {
	if closer, ok := a.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// prompt reads one line from the input, printing label first.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// valueOr returns value, prompting for it when empty.
func (a *app) valueOr(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.prompt(label)
}

func (a *app) context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
