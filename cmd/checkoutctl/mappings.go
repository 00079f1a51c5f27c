package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/cache"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/catalog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/config"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
)

func newMappingsCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Print the payment link mapping store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(catalog.Default().IDs())
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			var store linkstore.Store = linkstore.NewFileStore(cfg.LinkMappingPath())
			if cfg.LinkStore == config.LinkStoreRedis {
				store = linkstore.NewRedisStore(cache.GetClient(), linkstore.DefaultRedisHashKey)
			}
			all, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override DATA_DIR")
	return cmd
}
