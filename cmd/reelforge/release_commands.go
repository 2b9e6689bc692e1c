package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/project"
)

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	releaseCmd := &cobra.Command{
		Use:   "release",
		Short: "Create and list code, media and bundle releases",
	}

	releaseCmd.AddCommand(newReleaseCodeCommand(ctx))
	releaseCmd.AddCommand(newReleaseMediaCommand(ctx))
	releaseCmd.AddCommand(newReleaseBundleCommand(ctx))
	releaseCmd.AddCommand(newReleaseListCommand(ctx))

	return releaseCmd
}

func newReleaseCodeCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "code <artifact.zip>",
		Short: "Record a built player artifact as a code release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve artifact path: %w", err)
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				rel, err := proj.Releases.CreateCodeRelease(c, artifact, notes)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rel)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created code release %d\n", rel.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Release notes")
	return cmd
}

func newReleaseMediaCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "media",
		Short: "Snapshot payloads and the database as a media release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				rel, err := proj.Releases.CreateMediaRelease(c, notes)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rel)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created media release %d with %d payload(s)\n", rel.ID, len(rel.Resources))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Release notes")
	return cmd
}

func newReleaseBundleCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "bundle <code-id> <media-id>",
		Short: "Bind a code release to a media release",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codeID, err := parseReleaseID("code", args[0])
			if err != nil {
				return err
			}
			mediaID, err := parseReleaseID("media", args[1])
			if err != nil {
				return err
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				rel, err := proj.Releases.CreateBundleRelease(c, codeID, mediaID, notes)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rel)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created bundle release %d (code %d, media %d)\n", rel.ID, rel.CodeReleaseID, rel.MediaReleaseID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Release notes")
	return cmd
}

func newReleaseListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every release",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				codes, err := proj.Releases.ListCodeReleases(c)
				if err != nil {
					return err
				}
				media, err := proj.Releases.ListMediaReleases(c)
				if err != nil {
					return err
				}
				bundles, err := proj.Releases.ListBundleReleases(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"code":   codes,
						"media":  media,
						"bundle": bundles,
					})
				}

				var rows [][]string
				for _, r := range codes {
					rows = append(rows, []string{"code", strconv.FormatInt(r.ID, 10), "", formatTime(r.CreateTime), r.Notes})
				}
				for _, r := range media {
					rows = append(rows, []string{"media", strconv.FormatInt(r.ID, 10), fmt.Sprintf("%d payload(s)", len(r.Resources)), formatTime(r.CreateTime), r.Notes})
				}
				for _, r := range bundles {
					rows = append(rows, []string{"bundle", strconv.FormatInt(r.ID, 10), fmt.Sprintf("code %d, media %d", r.CodeReleaseID, r.MediaReleaseID), formatTime(r.CreateTime), r.Notes})
				}
				printRows(cmd.OutOrStdout(), []string{"Kind", "ID", "Contents", "Created", "Notes"}, rows, []columnAlignment{alignLeft, alignRight})
				return nil
			})
		},
	}
}

func parseReleaseID(kind, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s release id %q", kind, value)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
