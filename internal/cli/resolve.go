package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templatefall/templatefall/internal/resolver"
	"github.com/templatefall/templatefall/internal/rule"
)

// NewResolveCommand creates the resolve command: a one-off resolution
// for inspection and debugging.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		itemID    int
		postType  string
		termIDs   []int
		roles     []string
		anonymous bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the fallback template for a hypothetical render",
		Long: `Evaluate the stored rule list against a hand-built viewing context
and print the winning template id, or "no result".

Roles are expanded to capability sets through the site catalog, the
same lookup the host performs before calling the resolver.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, cmd, resolveInput{
				itemID:    itemID,
				postType:  postType,
				termIDs:   termIDs,
				roles:     roles,
				anonymous: anonymous,
			})
		},
	}

	cmd.Flags().IntVar(&itemID, "item", 0, "content item id")
	cmd.Flags().StringVar(&postType, "post-type", "", "content type of the item (required)")
	cmd.Flags().IntSliceVar(&termIDs, "terms", nil, "taxonomy term ids attached to the item")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "roles held by the viewer (implies authenticated)")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "force an unauthenticated viewer")
	_ = cmd.MarkFlagRequired("post-type")

	return cmd
}

type resolveInput struct {
	itemID    int
	postType  string
	termIDs   []int
	roles     []string
	anonymous bool
}

func runResolve(opts *RootOptions, cmd *cobra.Command, in resolveInput) error {
	e, err := openEnv(opts, true)
	if err != nil {
		return err
	}
	defer e.Close()

	viewer := rule.Viewer{}
	if len(in.roles) > 0 && !in.anonymous {
		viewer.Authenticated = true
		viewer.Capabilities = e.catalog.Capabilities(in.roles...)
	}

	res := resolver.New(e.store)
	templateID, found := res.Resolve(cmd.Context(), rule.Item{
		ID:       in.itemID,
		PostType: in.postType,
		TermIDs:  in.termIDs,
	}, viewer)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"matched":     found,
			"template_id": templateID,
		})
	}

	if !found {
		fmt.Fprintln(cmd.OutOrStdout(), "no result")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "template %d\n", templateID)
	return nil
}
