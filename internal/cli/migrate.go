package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/migration"
)

// MigrateFlags holds migrate command flags
type MigrateFlags struct {
	RootDir string
}

var migrateFlags MigrateFlags

// NewMigrateCommand creates the migrate command. journal.Open already
// upgrades an on-disk export_status.json transparently on every load;
// this command exists to surface that upgrade explicitly and report the
// before/after schema version, grounded on pkg/migration's
// CurrentSchemaVersion/DefaultSteps.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade an export root's journal to the current schema version",
		RunE:  runMigrate,
	}

	cmd.Flags().StringVar(&migrateFlags.RootDir, "root-dir", "", "export root directory whose journal should be upgraded")
	cmd.MarkFlagRequired("root-dir")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	gw := fsgateway.NewLocalGateway()

	before, err := peekSchemaVersion(ctx, gw, migrateFlags.RootDir)
	if err != nil {
		return fmt.Errorf("failed to inspect journal: %w", err)
	}

	j, err := journal.Open(ctx, gw, migrateFlags.RootDir)
	if err != nil {
		return fmt.Errorf("failed to open (and migrate) journal: %w", err)
	}
	defer j.Close()

	if before < 0 {
		fmt.Printf("no existing journal found; initialized at schema version %d\n", migration.CurrentSchemaVersion)
		return nil
	}
	if before == migration.CurrentSchemaVersion {
		fmt.Printf("journal already at schema version %d, nothing to do\n", migration.CurrentSchemaVersion)
		return nil
	}

	fmt.Printf("migrated journal from schema version %d to %d\n", before, migration.CurrentSchemaVersion)
	return nil
}

// peekSchemaVersion reads the raw schema_version field without applying
// any migration step, so the command can report what the file looked
// like before journal.Open rewrote it. Returns -1 if no journal exists
// yet.
func peekSchemaVersion(ctx context.Context, gw fsgateway.FsGateway, rootDir string) (int, error) {
	path := rootDir + "/export_status.json"
	exists, err := gw.Exists(ctx, path)
	if err != nil {
		return 0, err
	}
	if !exists {
		return -1, nil
	}

	raw, err := gw.ReadTextFile(ctx, path)
	if err != nil {
		return 0, err
	}

	var doc struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, err
	}
	return doc.SchemaVersion, nil
}
