package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/anansi/internal/app"
	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/sources/yamlfile"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bookmarks YAML file once and exit",
		Long: `Import a bookmarks YAML file into the configured store. ` +
			`The file defaults to ANANSI_IMPORT_FILE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			defer func() { _ = log.Sync() }()

			file := cfg.ImportFile
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return errors.New("no file given and ANANSI_IMPORT_FILE is not set")
			}

			backend, err := app.OpenBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer backend.Close()

			svc := domain.NewBookmarkService(backend.Store)
			res, err := yamlfile.NewImporter(file, svc, log).Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d skipped=%d failed=%d\n",
				res.Created, res.Updated, res.Skipped, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d entries failed to import", res.Failed)
			}
			return nil
		},
	}
}
