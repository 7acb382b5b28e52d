package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"inkfold/internal/domain/models/docsystem"
	"inkfold/internal/workspace"

	"github.com/spf13/cobra"
)

func (a *app) newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"doc", "documents"},
		Short:   "List, create, show, search and delete documents",
	}
	cmd.AddCommand(
		a.newDocsLsCmd(),
		a.newDocsNewCmd(),
		a.newDocsShowCmd(),
		a.newDocsRmCmd(),
		a.newDocsSearchCmd(),
	)
	return cmd
}

func (a *app) printDocuments(docs []docsystem.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "No documents")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Title, d.UpdatedAt.Local().Format(time.DateTime))
	}
	w.Flush()
}

func (a *app) newDocsLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <folder-id>",
		Short: "List the documents of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			docs, err := c.ListDocuments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printDocuments(docs)
			return nil
		},
	}
}

func (a *app) newDocsNewCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "new <folder-id> <title>",
		Short: "Create a document, optionally filled from --file (- for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var content string
			if file != "" {
				data, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				content = data
			}

			ws, events, err := a.session(ctx)
			if err != nil {
				return err
			}
			view, err := ws.OpenFolder(ctx, args[0])
			if err != nil {
				return err
			}
			doc, err := view.CreateDocument(ctx, args[1])
			if err != nil {
				return err
			}
			// The create must land before the editor can load it
			view.Close()
			if err := events.err(); err != nil {
				return err
			}

			if content != "" {
				editor, err := ws.OpenDocument(ctx, doc.ID)
				if err != nil {
					return err
				}
				editor.SetContent(content)
			}
			if err := finish(ctx, ws, events); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created document %s  %s\n", doc.Title, doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Initial content file, - for stdin")
	return cmd
}

func (a *app) newDocsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <document-id>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			doc, err := c.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "# %s\n\n%s\n", doc.Title, doc.Content)
			return nil
		},
	}
}

func (a *app) newDocsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted document %s\n", args[0])
			return nil
		},
	}
}

func (a *app) newDocsSearchCmd() *cobra.Command {
	var folder string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search document titles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			var folderID *string
			if folder != "" {
				folderID = &folder
			}
			docs, err := c.Search(cmd.Context(), args[0], folderID, limit)
			if err != nil {
				return err
			}
			a.printDocuments(docs)
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Only search this folder")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	return cmd
}

func (a *app) newEditCmd() *cobra.Command {
	var file, title string
	cmd := &cobra.Command{
		Use:   "edit <document-id>",
		Short: "Replace a document's content from --file (- for stdin) and/or rename it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && title == "" {
				return fmt.Errorf("nothing to change: pass --file or --title")
			}
			ctx := cmd.Context()

			ws, events, err := a.session(ctx)
			if err != nil {
				return err
			}
			editor, err := ws.OpenDocument(ctx, args[0])
			if err != nil {
				return err
			}
			if title != "" {
				editor.SetTitle(title)
			}
			if file != "" {
				content, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					_ = finish(ctx, ws, events)
					return err
				}
				editor.SetContent(content)
			}

			status := editor.Autosave().Status()
			if err := finish(ctx, ws, events); err != nil {
				return err
			}
			if status.State == workspace.SaveClean {
				fmt.Fprintln(a.out, "No changes")
				return nil
			}
			fmt.Fprintf(a.out, "Saved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "New content file, - for stdin")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
