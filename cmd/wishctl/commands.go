package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/wellwishers/internal/client"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/treeview"
)

func (a *app) loginCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your name and email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.api.Signup(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			a.sess.SignIn(&res.User, res.Token)
			if err := a.sess.Save(); err != nil {
				return err
			}
			a.printf("Signed in as %s <%s>\n", res.User.Name, res.User.Email)
			if res.User.TreeID != "" {
				a.printf("Your tree: %s\n", res.User.TreeID)
			}
			if res.User.Admin {
				a.printf("You can upload to kiti's room.\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.sess.Clear()
			if err := a.sess.Save(); err != nil {
				return err
			}
			a.printf("Signed out.\n")
			return nil
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [treeId]",
		Short: "Show a tree: owner, decorators and what you can do on it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, err := a.target(args)
			if err != nil {
				return err
			}
			page, err := a.loader().Load(cmd.Context(), treeID)
			if err != nil {
				return err
			}
			a.renderPage(page)
			return nil
		},
	}
}

func (a *app) decorateCmd() *cobra.Command {
	var (
		icon    string
		x, y    float64
		message string
	)
	cmd := &cobra.Command{
		Use:   "decorate [treeId]",
		Short: "Hang one ornament on a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			treeID, err := a.target(args)
			if err != nil {
				return err
			}
			page, err := a.loader().Load(cmd.Context(), treeID)
			if err != nil {
				return err
			}
			if page.Submission.State == gate.SubmissionUnknown {
				a.printf("Could not check your earlier placements (%v); trying anyway.\n", page.Submission.Err)
			}

			d := treeview.NewDecorator(a.api, a.sess, a.logger)
			placed, err := d.Place(cmd.Context(), page, client.OrnamentInput{
				Icon:    model.Icon(icon),
				Message: message,
				X:       x,
				Y:       y,
			})
			if err != nil {
				return err
			}
			a.printf("Hung a %s at (%.0f, %.0f) on %s.\n", placed.Ornament.Icon, placed.Ornament.X, placed.Ornament.Y, page.TreeName)
			a.printf("The tree now has %d ornament(s).\n", len(placed.Ornaments))
			return nil
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "", "ornament icon (see `wishctl icons`)")
	cmd.Flags().Float64Var(&x, "x", 50, "horizontal position, 0-100")
	cmd.Flags().Float64Var(&y, "y", 50, "vertical position, 0-100")
	cmd.Flags().StringVar(&message, "message", "", "message (defaults to your last wish)")
	_ = cmd.MarkFlagRequired("icon")
	return cmd
}

func (a *app) wishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wish <text> [treeId]",
		Short: "Leave a well wish, revealed to the owner on Christmas Day",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			treeID, err := a.target(args[1:])
			if err != nil {
				return err
			}

			w := treeview.NewWisher(a.api, a.sess, a.logger)
			w.OnChange = func(st treeview.WishState) {
				a.printf("wish %s\n", st.Status)
			}
			_, err = w.Send(cmd.Context(), treeID, args[0])
			return err
		},
	}
}

func (a *app) wishesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wishes [treeId]",
		Short: "Read the wishes on your own tree, once the window opens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, err := a.target(args)
			if err != nil {
				return err
			}
			l := a.loader()
			page, err := l.Load(cmd.Context(), treeID)
			if err != nil {
				return err
			}
			if page.Mode != treeview.ModeOwn {
				a.printf("Only the owner of %s can read its wishes.\n", page.TreeName)
				return nil
			}
			a.renderWishes(l.Wishes(cmd.Context(), page))
			return nil
		},
	}
}

func (a *app) shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share [treeId]",
		Short: "Print the link friends use to decorate a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			treeID, err := a.target(args)
			if err != nil {
				return err
			}
			a.printf("%s\n", a.api.ShareLink(treeID))
			return nil
		},
	}
}

func (a *app) newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-tree <name>",
		Short: "Create another tree and make it your own",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			tree, err := a.api.CreateTree(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.sess.SetTreeID(tree.ID)
			if err := a.sess.Save(); err != nil {
				return err
			}
			a.printf("Created %q (%s)\n", tree.Name, tree.ID)
			a.printf("Share it: %s\n", a.api.ShareLink(tree.ID))
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [treeId]",
		Short: "Follow a tree live until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, err := a.target(args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l := a.loader()
			page, err := l.Load(ctx, treeID)
			if err != nil {
				return err
			}
			a.renderPage(page)

			w := treeview.NewWatcher(l)
			count, reveal := len(page.Ornaments), revealLine(page.Reveal)
			w.OnUpdate = func(p *treeview.Page) {
				if n := len(p.Ornaments); n != count {
					a.printf("%s: %d ornament(s)\n", p.FetchedAt.Format("15:04:05"), n)
					count = n
				}
				if line := revealLine(p.Reveal); p.Mode.ConsultsGate() && line != reveal {
					a.printf("%s\n", line)
					reveal = line
				}
			}

			a.printf("Watching %s. Ctrl+C to stop.\n", page.TreeName)
			if err := w.Run(ctx, page); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func (a *app) iconsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "icons",
		Short: "List the ornament icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			icons, err := a.api.Icons(cmd.Context())
			if err != nil {
				// The catalogue is fixed, so the built-in copy serves when offline.
				a.logger.Warn("fetching icons failed; using the built-in list", "error", err)
				icons = model.Icons
			}
			for _, i := range icons {
				a.printf("%s\n", i)
			}
			return nil
		},
	}
}

