package main

import (
	"fmt"

	"github.com/krsnavtr-code/gallery/internal/media"
	"github.com/spf13/cobra"
)

func newBlobsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobs",
		Short: "Blob store maintenance",
	}
	cmd.AddCommand(newBlobsSweepCommand(a))
	return cmd
}

func newBlobsSweepCommand(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove blobs that no media record references",
		Long: `Compare the blob store against the stored names in the metadata store
and delete every blob without a record. Uploads in progress write their
blob before the record, so run this while the API is idle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			meta, err := openMetadata(ctx, a.cfg.Metadata, false, a.log)
			if err != nil {
				return err
			}
			defer meta.close()

			blobs, err := openBlobs(ctx, a.cfg.Blob, a.log)
			if err != nil {
				return err
			}

			result, err := media.SweepOrphans(ctx, meta.media, blobs, dryRun, a.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range result.Orphans {
				fmt.Fprintln(out, name)
			}
			if dryRun {
				fmt.Fprintf(out, "scanned %d blobs, %d orphaned (dry run)\n", result.Scanned, len(result.Orphans))
				return nil
			}
			fmt.Fprintf(out, "scanned %d blobs, removed %d of %d orphaned\n", result.Scanned, len(result.Removed), len(result.Orphans))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report orphaned blobs")
	return cmd
}
