package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/logging"
	"reelforge/internal/project"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Build player bundles and upload manifests",
	}

	publishCmd.AddCommand(newPublishBundleCommand(ctx))
	publishCmd.AddCommand(newPublishUploadCommand(ctx))

	return publishCmd
}

func newPublishBundleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <bundle-id>",
		Short: "Assemble the player bundle archive for a bundle release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundleID, err := parseReleaseID("bundle", args[0])
			if err != nil {
				return err
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				bundle, err := proj.Releases.BundleRelease(c, bundleID)
				if err != nil {
					return err
				}
				result, err := proj.Publisher.PublishPlayerBundle(c, bundle.CodeReleaseID, bundle.MediaReleaseID, bundle.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Published bundle %d: %d episode(s), %d payload(s)\n", result.BundleReleaseID, result.Episodes, result.Payloads)
				fmt.Fprintf(out, "Archive: %s\n", result.Archive)
				if size, ok := fileSize(result.Archive); ok {
					fmt.Fprintf(out, "Size:    %s\n", logging.FormatBytes(size))
				}
				return nil
			})
		},
	}
}

func newPublishUploadCommand(ctx *commandContext) *cobra.Command {
	var bundleID int64

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload episode manifests and the database to remote storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var bundle *int64
			if cmd.Flags().Changed("bundle") {
				bundle = &bundleID
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				if err := proj.Publisher.UploadDatabaseBackup(c, bundle); err != nil {
					return err
				}
				source := "live project"
				if bundle != nil {
					source = fmt.Sprintf("bundle release %d", *bundle)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"uploaded": true, "source": source})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded manifests and database from %s\n", source)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&bundleID, "bundle", 0, "Upload from a bundle release snapshot instead of the live project")
	return cmd
}
