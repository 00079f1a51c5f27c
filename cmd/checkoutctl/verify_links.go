package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/catalog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/config"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/pagarme"
)

func newVerifyLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-links",
		Short: "Resolve pre-provisioned links the way the server does at startup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			cfg := config.Load(cat.IDs())
			client := pagarme.NewClient(cfg.PagarmeAPIKey, cfg.PagarmeAPIBaseURL, cfg.ProviderTimeout)

			var lookup catalog.AmountLookup
			if client.Configured() {
				lookup = func(ctx context.Context, id string) (int64, error) {
					link, err := client.GetLink(ctx, id)
					if err != nil {
						return 0, err
					}
					return link.Amount, nil
				}
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "PAGARME_API_KEY not set, amounts are not verified")
			}

			links := catalog.ResolveLinks(cmd.Context(), cat, cfg.PrecreatedLinks, cfg.PagarmeLinkBaseURL, lookup)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLAN\tAMOUNT\tLINK\tURL")
			for _, p := range cat.List() {
				ref, ok := links.Get(p.ID)
				if !ok {
					fmt.Fprintf(w, "%s\t%d\t-\t%s (static)\n", p.ID, p.Amount, p.StaticFallbackURL)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.ID, p.Amount, ref.ID, ref.URL)
			}
			return w.Flush()
		},
	}
}
