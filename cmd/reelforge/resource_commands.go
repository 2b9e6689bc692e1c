package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/graph"
	"reelforge/internal/ingest"
	"reelforge/internal/project"
	"reelforge/internal/resource"
)

func newResourceCommand(ctx *commandContext) *cobra.Command {
	resourceCmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"res"},
		Short:   "Inspect and edit the resource graph",
	}

	resourceCmd.AddCommand(newResourceImportCommand(ctx))
	resourceCmd.AddCommand(newResourceListCommand(ctx))
	resourceCmd.AddCommand(newResourceShowCommand(ctx))
	resourceCmd.AddCommand(newResourceEditTagsCommand(ctx))
	resourceCmd.AddCommand(newResourceGroupCommand(ctx))
	resourceCmd.AddCommand(newResourceMergeCommand(ctx))
	resourceCmd.AddCommand(newResourceSplitCommand(ctx))
	resourceCmd.AddCommand(newResourceRemoveCommand(ctx))
	resourceCmd.AddCommand(newResourceRestoreCommand(ctx))
	resourceCmd.AddCommand(newResourceCheckCommand(ctx))

	return resourceCmd
}

func newResourceImportCommand(ctx *commandContext) *cobra.Command {
	var label string
	var tags []string
	var episodes []string
	var groupID string
	var cache bool

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Import media files into the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label != "" && len(args) > 1 {
				return errors.New("--label can only be used with a single path")
			}
			reqs := make([]ingest.Request, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return fmt.Errorf("resolve %q: %w", arg, err)
				}
				reqs = append(reqs, ingest.Request{
					Path:            path,
					Label:           label,
					Tags:            tags,
					EpisodeIDs:      episodes,
					CacheToHardDisk: cache,
					GroupID:         groupID,
				})
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				outcomes := proj.Importer.Import(c, reqs)
				if ctx.jsonOutput() {
					type jsonOutcome struct {
						Path  string         `json:"path"`
						Item  *resource.Item `json:"item,omitempty"`
						Error string         `json:"error,omitempty"`
					}
					out := make([]jsonOutcome, 0, len(outcomes))
					for _, o := range outcomes {
						entry := jsonOutcome{Path: o.Path, Item: o.Item}
						if o.Err != nil {
							entry.Error = o.Err.Error()
						}
						out = append(out, entry)
					}
					if err := writeJSON(cmd, out); err != nil {
						return err
					}
				} else {
					rows := make([][]string, 0, len(outcomes))
					for _, o := range outcomes {
						if o.Err != nil {
							rows = append(rows, []string{o.Path, "", "error: " + o.Err.Error()})
							continue
						}
						rows = append(rows, []string{o.Path, o.Item.ID, o.Item.Label})
					}
					printRows(cmd.OutOrStdout(), []string{"Path", "ID", "Label"}, rows, nil)
				}
				failed := 0
				for _, o := range outcomes {
					if o.Err != nil {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d import(s) failed", failed, len(outcomes))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Label for the imported file (single path only)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to apply (repeatable)")
	cmd.Flags().StringSliceVar(&episodes, "episode", nil, "Episode id the file belongs to (repeatable)")
	cmd.Flags().StringVar(&groupID, "group", "", "Existing group to attach the files to")
	cmd.Flags().BoolVar(&cache, "cache", false, "Mark the files for offline caching")
	return cmd
}

func newResourceListCommand(ctx *commandContext) *cobra.Command {
	var filter graph.Filter
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case "":
			case string(resource.KindFile), string(resource.KindGroup):
				filter.Type = resource.Kind(kind)
			default:
				return fmt.Errorf("--type must be file or group (got %q)", kind)
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				items, err := proj.Graph.List(c, filter)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, resourceRow(it))
				}
				printRows(cmd.OutOrStdout(), []string{"ID", "Type", "Label", "Group", "Tags", "Removed"}, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Only list file or group records")
	cmd.Flags().StringVar(&filter.GroupID, "group", "", "Only list members of a group")
	cmd.Flags().StringVar(&filter.EpisodeID, "episode", "", "Only list resources visible to an episode")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "Only list resources carrying a tag")
	cmd.Flags().BoolVar(&filter.IncludeRemoved, "all", false, "Include removed resources")
	return cmd
}

func resourceRow(it *resource.Item) []string {
	group := ""
	if it.IsFile() {
		group = it.GroupID()
	} else if it.IsGroup() {
		group = fmt.Sprintf("%d file(s)", len(it.Group.Files))
	}
	return []string{it.ID, string(it.Type), it.Label, group, strings.Join(it.Tags, ","), yesNo(it.Removed)}
}

func newResourceShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one resource record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				item, err := proj.Graph.Get(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, item)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", item.ID)
				fmt.Fprintf(out, "Type:     %s\n", item.Type)
				fmt.Fprintf(out, "Label:    %s\n", item.Label)
				fmt.Fprintf(out, "Tags:     %s\n", strings.Join(item.Tags, ", "))
				fmt.Fprintf(out, "Episodes: %s\n", strings.Join(item.EpisodeIDs, ", "))
				fmt.Fprintf(out, "Removed:  %s\n", yesNo(item.Removed))
				switch {
				case item.IsFile():
					fmt.Fprintf(out, "MIME:     %s\n", item.File.MimeType)
					fmt.Fprintf(out, "Group:    %s\n", item.GroupID())
					if controller := item.Controller(); controller != "" {
						fmt.Fprintf(out, "Managed:  by %s\n", controller)
					}
					if item.File.Duration != nil {
						fmt.Fprintf(out, "Duration: %.3fs\n", *item.File.Duration)
					}
					if rec := item.File.PostProcessRecord; rec != nil {
						for _, op := range rec.Operations {
							fmt.Fprintf(out, "Op:       %s/%s at %s\n", op.ExtensionID, op.Operation, op.Time.Format("2006-01-02 15:04:05"))
						}
					}
				case item.IsGroup():
					fmt.Fprintf(out, "Files:    %s\n", strings.Join(item.Group.Files, ", "))
				}
				return nil
			})
		},
	}
}

func newResourceEditTagsCommand(ctx *commandContext) *cobra.Command {
	var add []string
	var remove []string

	cmd := &cobra.Command{
		Use:   "edit-tags <id>",
		Short: "Add or remove tags on a resource",
		Long:  "Tags ending in \"!\" are pinned: a controlling file will not overwrite them on managed files.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(add) == 0 && len(remove) == 0 {
				return errors.New("nothing to do: pass --add or --remove")
			}
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				item, err := proj.Graph.Edit(c, args[0], func(it *resource.Item) error {
					it.Tags = slices.DeleteFunc(it.Tags, func(tag string) bool { return slices.Contains(remove, tag) })
					for _, tag := range add {
						if !slices.Contains(it.Tags, tag) {
							it.Tags = append(it.Tags, tag)
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s tags: %s\n", item.ID, strings.Join(item.Tags, ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&add, "add", nil, "Tag to add (repeatable)")
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "Tag to remove (repeatable)")
	return cmd
}

func newResourceGroupCommand(ctx *commandContext) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Move files in and out of groups",
	}

	var bypass bool
	addCmd := &cobra.Command{
		Use:   "add <file-id> <group-id>",
		Short: "Move a file into a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				moved, err := proj.Graph.AddFileToGroup(c, args[0], args[1], graph.AddOptions{BypassManaged: bypass})
				if err != nil {
					return err
				}
				return reportIDs(cmd, ctx, "Moved", moved)
			})
		},
	}
	addCmd.Flags().BoolVar(&bypass, "bypass-managed", false, "Move a managed file itself instead of its controller")

	var cascade bool
	removeCmd := &cobra.Command{
		Use:   "remove <file-id>",
		Short: "Detach a file from its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				detached, err := proj.Graph.RemoveFileFromGroup(c, args[0], cascade)
				if err != nil {
					return err
				}
				return reportIDs(cmd, ctx, "Detached", detached)
			})
		},
	}
	removeCmd.Flags().BoolVar(&cascade, "cascade", true, "Also detach files managed by this file")

	groupCmd.AddCommand(addCmd, removeCmd)
	return groupCmd
}

func newResourceMergeCommand(ctx *commandContext) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "merge <id>...",
		Short: "Merge files and groups into a new group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				group, err := proj.Graph.MergeIntoGroup(c, args, tag)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, group)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created group %s with %d file(s)\n", group.ID, len(group.Group.Files))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Tag to apply to the new group")
	return cmd
}

func newResourceSplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split <group-id>...",
		Short: "Dissolve groups, leaving their files ungrouped",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				released, err := proj.Graph.SplitGroup(c, args)
				if err != nil {
					return err
				}
				return reportIDs(cmd, ctx, "Released", released)
			})
		},
	}
}

func newResourceRemoveCommand(ctx *commandContext) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Mark a resource removed, or delete it with --hard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				var ids []string
				var err error
				if hard {
					ids, err = proj.Graph.HardRemove(c, args[0])
				} else {
					ids, err = proj.Graph.MarkRemoved(c, args[0])
				}
				if err != nil {
					return err
				}
				verb := "Removed"
				if hard {
					verb = "Deleted"
				}
				return reportIDs(cmd, ctx, verb, ids)
			})
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "Delete the record and its payload")
	return cmd
}

func newResourceRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a removed resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				ids, err := proj.Graph.Restore(c, args[0])
				if err != nil {
					return err
				}
				return reportIDs(cmd, ctx, "Restored", ids)
			})
		},
	}
}

func newResourceCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify group links and managed-by references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd, func(c context.Context, proj *project.Project) error {
				issues, err := proj.Graph.CheckConsistency(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if issues == nil {
						issues = []graph.Issue{}
					}
					if err := writeJSON(cmd, issues); err != nil {
						return err
					}
				} else if len(issues) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Resource graph is consistent")
				} else {
					rows := make([][]string, 0, len(issues))
					for _, issue := range issues {
						rows = append(rows, []string{issue.ResourceID, issue.Problem})
					}
					printRows(cmd.OutOrStdout(), []string{"Resource", "Problem"}, rows, nil)
				}
				if len(issues) > 0 {
					return fmt.Errorf("%d consistency issue(s) found", len(issues))
				}
				return nil
			})
		},
	}
}

func reportIDs(cmd *cobra.Command, ctx *commandContext, verb string, ids []string) error {
	if ctx.jsonOutput() {
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(cmd, map[string][]string{"ids": ids})
	}
	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "Nothing changed")
		return nil
	}
	fmt.Fprintf(out, "%s %d resource(s): %s\n", verb, len(ids), strings.Join(ids, ", "))
	return nil
}
