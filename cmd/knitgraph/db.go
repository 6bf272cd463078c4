package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knitgraph/knitgraph/config"
	"github.com/knitgraph/knitgraph/core"
	"github.com/knitgraph/knitgraph/knit"
	"github.com/knitgraph/knitgraph/pattern"
	"github.com/knitgraph/knitgraph/store"
)

var errNoDatabase = errors.New("no database configured (use --db or set db in the config)")

func init() {
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbShowCmd)
	rootCmd.AddCommand(dbCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect persisted networks and matrices",
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored networks and pattern matrices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		networks, err := s.ListNetworks()
		if err != nil {
			return err
		}
		matrices, err := s.ListMatrices()
		if err != nil {
			return err
		}

		return outputJSON(struct {
			Networks []string `json:"networks"`
			Matrices []string `json:"matrices"`
		}{networks, matrices})
	},
}

var dbShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored pattern matrix as a text grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.LoadMatrix(args[0])
		if err != nil {
			return err
		}
		fmt.Println(m.String())

		return nil
	},
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DB == "" {
		return nil, errNoDatabase
	}

	return store.Open(cfg.DB)
}

// persistRun saves a pipeline run: the primary network, the mapping
// network, the dual and the sorted matrix, all under the given name.
func persistRun(cfg config.Config, name string, kn *knit.Network, dual *core.Network, m pattern.Matrix) error {
	if cfg.DB == "" {
		return errNoDatabase
	}
	s, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.SaveNetwork(name, kn.Network); err != nil {
		return err
	}
	if mapping, err := kn.Mapping(); err == nil {
		if _, err := s.SaveNetwork(name+".mapping", mapping); err != nil {
			return err
		}
	}
	if _, err := s.SaveNetwork(name+".dual", dual); err != nil {
		return err
	}

	return s.SaveMatrix(name, m)
}
