package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zpdzap/orgpool/internal/authstore"
	"github.com/zpdzap/orgpool/internal/config"
	"github.com/zpdzap/orgpool/internal/devhub"
	"github.com/zpdzap/orgpool/internal/logging"
	"github.com/zpdzap/orgpool/internal/notify"
	"github.com/zpdzap/orgpool/internal/pool"
	"github.com/zpdzap/orgpool/internal/script"
)

var (
	flagVerbose bool
	flagJSON    bool
)

func main() {
	root := &cobra.Command{
		Use:           "orgpool",
		Short:         "Manage pools of pre-provisioned scratch orgs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "JSON log output")

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Create, fetch, list and delete pooled scratch orgs",
	}
	poolCmd.AddCommand(createCmd(), fetchCmd(), listCmd(), deleteCmd())
	root.AddCommand(poolCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	return logging.New(flagVerbose, flagJSON, os.Stderr)
}

// hubSession resolves the DevHub connection: environment first, then the
// local auth store.
func hubSession(log zerolog.Logger) (*devhub.Client, authstore.DevHubAuth, error) {
	auth := authstore.DevHubAuth{
		InstanceURL: os.Getenv("DEVHUB_INSTANCE_URL"),
		AccessToken: os.Getenv("DEVHUB_ACCESS_TOKEN"),
		Username:    os.Getenv("DEVHUB_USERNAME"),
		Email:       os.Getenv("DEVHUB_EMAIL"),
	}
	if auth.InstanceURL == "" || auth.AccessToken == "" {
		store, err := authstore.New()
		if err != nil {
			return nil, auth, err
		}
		f, err := store.Load()
		if err != nil {
			return nil, auth, err
		}
		auth = f.DevHub
	}
	if auth.InstanceURL == "" || auth.AccessToken == "" {
		return nil, auth, fmt.Errorf("no DevHub session: set DEVHUB_INSTANCE_URL and DEVHUB_ACCESS_TOKEN or authenticate first")
	}
	return devhub.New(auth.InstanceURL, auth.AccessToken, log), auth, nil
}

func createCmd() *cobra.Command {
	var (
		configPath string
		batchSize  int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision scratch orgs into a pool from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			hub, auth, err := hubSession(log)
			if err != nil {
				return err
			}

			store, err := pool.NewStore(cmd.Context(), hub, log)
			if err != nil {
				return err
			}

			mgr := pool.NewManager(store, script.ExecRunner{Log: log}, auth.Username, batchSize, log)
			report, err := mgr.CreatePool(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Print(renderReport(report))
			if report.Provisioned > 0 && report.Committed == 0 {
				return fmt.Errorf("no scratch org survived provisioning for tag %q", report.Tag)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "configfile", "f", "", "pool config file (required)")
	cmd.Flags().Int64VarP(&batchSize, "batchsize", "b", 0, "cap on concurrent org creations")
	cmd.MarkFlagRequired("configfile")
	return cmd
}

func fetchCmd() *cobra.Command {
	var (
		tag    string
		mypool bool
		alias  string
		sendTo string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Claim one available scratch org from a pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			hub, auth, err := hubSession(log)
			if err != nil {
				return err
			}

			store, err := pool.NewStore(cmd.Context(), hub, log)
			if err != nil {
				return err
			}

			local, err := authstore.New()
			if err != nil {
				return err
			}

			var notifier notify.Notifier
			if n := notify.FromEnv(log); n != nil {
				notifier = n
			}

			ops := pool.NewOps(store, notifier, local, log)
			opts := pool.FetchOptions{Tag: tag, Alias: alias, SendTo: sendTo}
			if mypool {
				opts.MyPoolEmail = auth.Email
			}

			row, err := ops.Fetch(cmd.Context(), opts)
			if errors.Is(err, pool.ErrNotFound) {
				return fmt.Errorf("no available scratch org for tag %q", tag)
			}
			if err != nil {
				return err
			}

			fmt.Print(renderClaim(row))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "pool tag (required)")
	cmd.Flags().BoolVarP(&mypool, "mypool", "m", false, "only claim orgs from my own pool")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "store the claimed org's session under this alias")
	cmd.Flags().StringVarP(&sendTo, "sendto", "s", "", "mail the credentials to this address")
	cmd.MarkFlagRequired("tag")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		tag     string
		mypool  bool
		showAll bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a pool's orgs and status rollup",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			hub, auth, err := hubSession(log)
			if err != nil {
				return err
			}

			store, err := pool.NewStore(cmd.Context(), hub, log)
			if err != nil {
				return err
			}

			ops := pool.NewOps(store, nil, nil, log)
			opts := pool.ListOptions{Tag: tag, WithPasswords: mypool}
			if mypool {
				opts.MyPoolEmail = auth.Email
			}

			res, err := ops.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Print(renderList(tag, res, showAll))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "pool tag (required)")
	cmd.Flags().BoolVarP(&mypool, "mypool", "m", false, "restrict to my own pool and include passwords")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "list every row, not just the rollup")
	cmd.MarkFlagRequired("tag")
	return cmd
}

func deleteCmd() *cobra.Command {
	var (
		tag            string
		mypool         bool
		allOrgs        bool
		inProgressOnly bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Bulk-delete a pool's scratch orgs",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			hub, auth, err := hubSession(log)
			if err != nil {
				return err
			}

			store, err := pool.NewStore(cmd.Context(), hub, log)
			if err != nil {
				return err
			}

			ops := pool.NewOps(store, nil, nil, log)
			opts := pool.DeleteOptions{Tag: tag, AllOrgs: allOrgs, InProgressOnly: inProgressOnly}
			if mypool {
				opts.MyPoolEmail = auth.Email
			}

			res, err := ops.Delete(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Print(renderDelete(tag, res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "pool tag (required)")
	cmd.Flags().BoolVarP(&mypool, "mypool", "m", false, "only delete orgs from my own pool")
	cmd.Flags().BoolVarP(&allOrgs, "allscratchorgs", "a", false, "include assigned orgs")
	cmd.Flags().BoolVarP(&inProgressOnly, "inprogressonly", "i", false, "only delete orgs still provisioning")
	cmd.MarkFlagRequired("tag")
	return cmd
}
