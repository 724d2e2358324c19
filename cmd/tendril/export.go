package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	// Read-only legacy driver: older registry deployments ran against plain
	// libpq before the service moved to pgx, and some operators still point
	// this command at those databases during migration.
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "registry-export",
	Short: "Dump stored patterns from a legacy (pre-pgx) registry database",
	Long: "Connects to a Postgres database over lib/pq and dumps every row of\n" +
		"the patterns table as JSON, for operators migrating an older\n" +
		"libpq-based registry deployment onto this one.",
	RunE: runExport,
}

func init() {
	flags := exportCmd.Flags()
	flags.String("legacy-dsn", "", "lib/pq connection string for the legacy database (required)")
	_ = viper.BindPFlags(flags)
}

type legacyPattern struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func runExport(cmd *cobra.Command, args []string) error {
	dsn := viper.GetString("legacy-dsn")
	if dsn == "" {
		return fmt.Errorf("--legacy-dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("opening legacy database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(cmd.Context(),
		`SELECT id, name, source, created_by, created_at, updated_at FROM patterns ORDER BY name`)
	if err != nil {
		return fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	var out []legacyPattern
	for rows.Next() {
		var p legacyPattern
		if err := rows.Scan(&p.ID, &p.Name, &p.Source, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("scanning pattern row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
