package main

import (
	"fmt"

	"github.com/krsnavtr-code/gallery/internal/tag"
	"github.com/spf13/cobra"
)

func newTagsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag maintenance",
	}
	cmd.AddCommand(newTagsRecountCommand(a))
	return cmd
}

func newTagsRecountCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recount",
		Short: "Store live media counts on every tag",
		Long: `Recompute how many media items carry each tag and write the result
into the cached count column. Listing tags always reports live counts;
the cached column serves readers that query the database directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			meta, err := openMetadata(ctx, a.cfg.Metadata, false, a.log)
			if err != nil {
				return err
			}
			defer meta.close()

			tags := tag.NewService(meta.tags, meta.media, a.log)
			counted, err := tags.Recount(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(counted) == 0 {
				fmt.Fprintln(out, "no tags")
				return nil
			}
			for _, t := range counted {
				fmt.Fprintf(out, "%-32s %d\n", t.Name, t.MediaCount)
			}
			return nil
		},
	}
}
