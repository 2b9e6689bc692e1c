package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/manifest"
	"reelforge/internal/profile"
	"reelforge/internal/project"
	"reelforge/internal/series"
)

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	episodeCmd := &cobra.Command{
		Use:     "episode",
		Aliases: []string{"ep"},
		Short:   "Manage episodes and inspect their manifests",
	}

	episodeCmd.AddCommand(newEpisodeAddCommand(ctx))
	episodeCmd.AddCommand(newEpisodeListCommand(ctx))
	episodeCmd.AddCommand(newEpisodeShowCommand(ctx))

	return episodeCmd
}

func newEpisodeAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <label>",
		Short: "Create an episode after the existing ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				ep, err := proj.Series.AddEpisode(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, ep)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created episode %s (%s) at position %d\n", ep.ID, ep.Label, ep.Order)
				return nil
			})
		},
	}
}

func newEpisodeListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List episodes in play order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				episodes, err := proj.Series.ListEpisodes(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, episodes)
				}
				rows := make([][]string, 0, len(episodes))
				for _, ep := range episodes {
					rows = append(rows, []string{strconv.Itoa(ep.Order), ep.ID, ep.Label})
				}
				printRows(cmd.OutOrStdout(), []string{"#", "ID", "Label"}, rows, []columnAlignment{alignRight})
				return nil
			})
		},
	}
}

func newEpisodeShowCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var bundleID int64

	cmd := &cobra.Command{
		Use:   "show <episode-id>",
		Short: "Assemble an episode manifest for a target profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profCfg := profile.FromSettings(cfg, profile.Kind(kind))
			var bundle *int64
			if cmd.Flags().Changed("bundle") {
				bundle = &bundleID
				profCfg.BundleReleaseID = bundle
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				handle, err := proj.Resolver.Resolve(c, bundle)
				if err != nil {
					return err
				}
				defer handle.Close()
				profCfg.MediaReleaseID = handle.MediaBundleID

				detail, err := proj.Assembler.GetEpisodeDetail(c, args[0], profCfg, handle.Docs)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, detail)
				}
				printEpisodeDetail(cmd, detail)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "profile", string(profile.KindStudioPreview), "Target profile whose URLs the manifest carries")
	cmd.Flags().Int64Var(&bundleID, "bundle", 0, "Read from a bundle release snapshot instead of the live project")
	return cmd
}

func printEpisodeDetail(cmd *cobra.Command, detail *manifest.Detail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Episode: %s (%s)\n", detail.Episode.Label, detail.Episode.ID)
	fmt.Fprintf(out, "Key:     %s\n\n", detail.Key)

	rows := make([][]string, 0, len(detail.Assets))
	for _, asset := range detail.Assets {
		duration := "-"
		if asset.ExtensionID == series.ExtensionVideo {
			duration = "infinite"
			if asset.Duration != nil {
				duration = strconv.FormatFloat(*asset.Duration, 'f', 3, 64)
			}
		}
		rows = append(rows, []string{strconv.Itoa(asset.Order), asset.ExtensionID, asset.ContentID, duration, strings.Join(asset.Triggers, ",")})
	}
	printRows(out, []string{"#", "Extension", "Content", "Duration", "Triggers"}, rows, []columnAlignment{alignRight})

	fmt.Fprintf(out, "\n%d resource(s)\n", len(detail.Resources))
}

func newAssetCommand(ctx *commandContext) *cobra.Command {
	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Place resources and act points in episodes",
	}

	var asset series.Asset
	addCmd := &cobra.Command{
		Use:   "add <episode-id> <content-id>",
		Short: "Add an asset to an episode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset.EpisodeID = args[0]
			asset.ContentID = args[1]
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				if err := proj.Series.AddAsset(c, &asset); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, asset)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s asset %s to episode %s\n", asset.ExtensionID, asset.ID, asset.EpisodeID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&asset.ExtensionID, "extension", series.ExtensionVideo, "Asset extension: video or act-point")
	addCmd.Flags().IntVar(&asset.Order, "order", 0, "Position of the asset in the episode")
	addCmd.Flags().StringSliceVar(&asset.Triggers, "trigger", nil, "Trigger name (repeatable)")
	addCmd.Flags().BoolVar(&asset.PreloadDisabled, "no-preload", false, "Disable preloading for the asset")
	addCmd.Flags().BoolVar(&asset.EarlyDestroyOnSwitch, "early-destroy", false, "Destroy the asset early on episode switch")

	assetCmd.AddCommand(addCmd)
	return assetCmd
}

func newActPointCommand(ctx *commandContext) *cobra.Command {
	actPointCmd := &cobra.Command{
		Use:     "actpoint",
		Aliases: []string{"ap"},
		Short:   "Manage interactive act points",
	}

	var point series.ActPoint
	addCmd := &cobra.Command{
		Use:   "add <label> <first-level-path> <second-level-path>",
		Short: "Register an act point inside the code artifact",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			point.Label = args[0]
			point.FirstLevelPath = args[1]
			point.SecondLevelPath = args[2]
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				if err := proj.Series.PutActPoint(c, &point); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, point)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added act point %s at %s\n", point.ID, point.HTMLPath())
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&point.ID, "id", "", "Act point id (generated when empty)")

	actPointCmd.AddCommand(addCmd)
	return actPointCmd
}
