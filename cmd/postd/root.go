package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/app"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/accounts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/forums"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/friends"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/posts"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/rewards"
	"github.com/joeydtaylor/steeze-social/pkg/concepts/sessions"
	"github.com/joeydtaylor/steeze-social/pkg/core"
	"github.com/joeydtaylor/steeze-social/pkg/serverfx"
	"github.com/joeydtaylor/steeze-social/pkg/store/memory"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "postd",
		Short:        "postd serves the social posting API",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), routesCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var devBypass bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(c *cobra.Command, _ []string) error {
			opts := []serverfx.Option{serverfx.WithService("postd")}
			if c.Flags().Changed("dev-bypass") {
				opts = append(opts, serverfx.WithDevBypass(devBypass))
			}
			fx.New(serverfx.Module(opts...)).Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&devBypass, "dev-bypass", false, "trust the X-Dev-User header (local testing only)")
	return cmd
}

func routesCmd() *cobra.Command {
	var syncs bool
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		RunE: func(c *cobra.Command, _ []string) error {
			a := offlineApp()
			if syncs {
				return printSyncs(c.OutOrStdout(), a)
			}
			reg := core.NewRegistry()
			if err := a.Register(reg); err != nil {
				return err
			}
			return printRoutes(c.OutOrStdout(), reg)
		},
	}
	cmd.Flags().BoolVar(&syncs, "syncs", false, "print the synchronization plans as JSON instead")
	return cmd
}

// offlineApp builds the app over an empty memory store; nothing is served.
func offlineApp() *app.App {
	b := memory.New()
	return app.New(app.Concepts{
		Accounts: accounts.New(b, "users"),
		Sessions: sessions.New(),
		Posts:    posts.New(b, "posts"),
		Forums:   forums.New(b, "forums"),
		Friends:  friends.New(b, "friends"),
		Rewards:  rewards.New(b, "userBadges", "badgeDefinitions"),
	}, app.Config{}, zap.NewNop())
}

func printRoutes(w io.Writer, reg *core.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERB\tPATTERN\tHANDLER\tPARAMS")
	for _, def := range reg.Routes() {
		params := make([]string, len(def.Params))
		for i, p := range def.Params {
			params[i] = fmt.Sprintf("%s:%s:%s", p.Name, p.Origin, p.Type)
			if p.Required {
				params[i] += "!"
			}
		}
		fmt.Fprintf(tw, "%s\t/api%s\t%s\t%s\n", def.Verb, def.Pattern, def.Handler.Name, strings.Join(params, " "))
	}
	return tw.Flush()
}

func printSyncs(w io.Writer, a *app.App) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a.Syncs())
}
