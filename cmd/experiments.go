package main

import (
	"fmt"

	"sacredview/internal/config"
	"sacredview/internal/model"
	"sacredview/internal/service"

	"github.com/spf13/cobra"
)

var connectFlags model.ConnectRequest

var experimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "Print the experiment names of a Sacred database, one per line",
	Example: `  sacredview experiments --uri mongodb://user:pass@db:27017/?authSource=admin --db sacred
  sacredview experiments --host localhost --port 27017`,
	Args: cobra.NoArgs,
	RunE: runExperiments,
}

func init() {
	f := experimentsCmd.Flags()
	f.StringVar(&connectFlags.URI, "uri", "", "full connection string; wins over the discrete flags")
	f.StringVar(&connectFlags.Host, "host", "", "database host")
	f.StringVar(&connectFlags.Port, "port", "", "database port (default 27017)")
	f.StringVar(&connectFlags.Username, "username", "", "user name")
	f.StringVar(&connectFlags.Password, "password", "", "password")
	f.StringVar(&connectFlags.AuthSource, "auth-source", "", "authentication database")
	f.StringVar(&connectFlags.DBName, "db", "", "database holding the runs collection")
}

func runExperiments(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	conn, err := service.NewResolver(cfg.DefaultDatabase).Resolve(service.InputFromRequest(connectFlags))
	if err != nil {
		return err
	}

	names, err := service.NewLister(cfg.ConnectTimeout).ListExperimentNames(cmd.Context(), conn)
	if err != nil {
		return fmt.Errorf("%s", service.RedactURI(err.Error()))
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
