package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakif/wellwishers/internal/client"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/session"
	"github.com/sakif/wellwishers/internal/treeview"
)

// app is built once per invocation in PersistentPreRunE and handed to every
// subcommand.
type app struct {
	cfg      *viper.Viper
	out      io.Writer
	errOut   io.Writer
	logger   *slog.Logger
	sess     *session.Session
	api      *client.Client
	schedule gate.Schedule
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{cfg: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "wishctl",
		Short:         "Decorate Christmas trees and leave well wishes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("api", client.DefaultBaseURL, "API base URL")
	flags.String("origin", "http://localhost:3000", "frontend origin used in share links")
	flags.String("session", "", "session file (default $HOME/.wellwishers/session.json)")
	flags.BoolP("verbose", "v", false, "debug logging to stderr")

	// WISHCTL_API, WISHCTL_ORIGIN and WISHCTL_SESSION override the defaults;
	// explicit flags override both.
	a.cfg.SetEnvPrefix("wishctl")
	a.cfg.AutomaticEnv()
	for _, name := range []string{"api", "origin", "session", "verbose"} {
		_ = a.cfg.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.treeCmd(),
		a.decorateCmd(),
		a.wishCmd(),
		a.wishesCmd(),
		a.shareCmd(),
		a.newTreeCmd(),
		a.watchCmd(),
		a.iconsCmd(),
	)
	return root
}

func (a *app) init() error {
	level := slog.LevelWarn
	if a.cfg.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	path := a.cfg.GetString("session")
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return err
		}
	}
	sess, err := session.Open(path)
	if err != nil {
		return err
	}
	a.sess = sess

	a.api = client.New(a.cfg.GetString("api"), client.WithOrigin(a.cfg.GetString("origin"))).
		WithToken(sess.Token())
	a.schedule = gate.DefaultSchedule()

	a.logger.Debug("wishctl ready",
		slog.String("api", a.cfg.GetString("api")),
		slog.String("session", path),
		slog.Bool("signedIn", sess.SignedIn()),
	)
	return nil
}

func (a *app) loader() *treeview.Loader {
	return treeview.NewLoader(a.api, a.sess, a.schedule, a.logger)
}

// target is the tree named on the command line, else the participant's own.
func (a *app) target(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if id := a.sess.TreeID(); id != "" {
		return id, nil
	}
	return "", errors.New("no tree id given and no tree stored; run `wishctl login` first")
}

func (a *app) requireSignIn() error {
	if !a.sess.SignedIn() {
		return errors.New("not signed in; run `wishctl login --name ... --email ...`")
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// userMessage is the text shown for a failed command.
func userMessage(err error) string {
	var (
		ve *client.ValidationError
		nf *client.NotFoundError
		ne *client.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &nf):
		if nf.Resource == "tree" {
			return "tree not found"
		}
		return nf.Error()
	case errors.Is(err, treeview.ErrAlreadyPlaced):
		return "you have already decorated this tree"
	case errors.Is(err, treeview.ErrOwnTree):
		return "you cannot decorate your own tree"
	case errors.Is(err, treeview.ErrOwnWish):
		return "you cannot leave a wish on your own tree"
	case errors.Is(err, treeview.ErrBusy):
		return "a placement is already being submitted"
	case errors.As(err, &ne):
		if ne.Message != "" {
			return ne.Message
		}
		return ne.Error()
	default:
		return err.Error()
	}
}
