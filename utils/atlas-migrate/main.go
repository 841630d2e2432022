// Package main - Atlas GORM migration support binary
package main

import (
	"fmt"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/alwitt/requestboard/db"
	"github.com/apex/log"
	"github.com/spf13/cobra"
)

func main() {
	var dialect string

	cmd := &cobra.Command{
		Use:   "atlas-migrate",
		Short: "Print the DDL of the request board tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			stmts, err := gormschema.New(dialect).Load(
				&db.RequestDBEntry{},
				&db.RequestEventAuditDBEntry{},
			)
			if err != nil {
				return fmt.Errorf("failed to load GORM models [%w]", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", stmts)
			return nil
		},
	}
	cmd.Flags().StringVarP(
		&dialect, "dialect", "d", db.DialectPostgres, "target dialect: postgres, mysql or sqlite",
	)

	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("Failed to print DDL")
		os.Exit(1)
	}
}
