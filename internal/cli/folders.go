package cli

import (
	"fmt"
	"strings"

	"inkfold/internal/domain/models/docsystem"

	"github.com/spf13/cobra"
)

func (a *app) newFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "List, create and delete folders",
	}
	cmd.AddCommand(
		a.newFoldersTreeCmd(),
		a.newFoldersCreateCmd(),
		a.newFoldersRmCmd(),
	)
	return cmd
}

func (a *app) newFoldersTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the folder tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			tree, err := c.FolderTree(cmd.Context())
			if err != nil {
				return err
			}
			if len(tree) == 0 {
				fmt.Fprintln(a.out, "No folders")
				return nil
			}
			printTree(a, tree)
			return nil
		},
	}
}

func printTree(a *app, tree []*docsystem.FolderTreeNode) {
	docsystem.Walk(tree, func(node *docsystem.FolderTreeNode) bool {
		fmt.Fprintf(a.out, "%s%s  %s\n", strings.Repeat("  ", node.Depth), node.Name, node.ID)
		return true
	})
}

func (a *app) newFoldersCreateCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder, at the root unless --parent is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, events, err := a.session(ctx)
			if err != nil {
				return err
			}
			if err := ws.LoadFolders(ctx); err != nil {
				return err
			}

			var parentID *string
			if parent != "" {
				parentID = &parent
			}
			folder, err := ws.Sidebar().CreateFolder(ctx, args[0], parentID)
			if err != nil {
				return err
			}
			if err := finish(ctx, ws, events); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created folder %s  %s\n", folder.Name, folder.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent folder id")
	return cmd
}

func (a *app) newFoldersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <folder-id>",
		Short: "Delete a folder with its subfolders and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, events, err := a.session(ctx)
			if err != nil {
				return err
			}
			if err := ws.LoadFolders(ctx); err != nil {
				return err
			}
			if err := ws.Sidebar().DeleteFolder(ctx, args[0]); err != nil {
				return err
			}
			if err := finish(ctx, ws, events); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted folder %s\n", args[0])
			return nil
		},
	}
}
