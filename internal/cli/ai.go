package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkfold/internal/client"
	"inkfold/internal/domain/models"

	"github.com/spf13/cobra"
)

// batchPollInterval is how often a remote batch is polled with --wait
var batchPollInterval = time.Second

func (a *app) newTransformCmd() *cobra.Command {
	var configID, promptID string
	cmd := &cobra.Command{
		Use:   "transform <document-id>",
		Short: "Run a document through a model; the result is saved as a new document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, events, err := a.session(ctx)
			if err != nil {
				return err
			}
			if _, err := ws.OpenDocument(ctx, args[0]); err != nil {
				return err
			}
			created, err := ws.Transform(ctx, configID, promptID)
			closeErr := finish(ctx, ws, events)
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}
			fmt.Fprintf(a.out, "Created document %s  %s\n", created.Title, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&configID, "config", "", "AI config id")
	cmd.Flags().StringVar(&promptID, "prompt", "", "Prompt template id")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *app) newBatchCmd() *cobra.Command {
	var (
		configID, promptID string
		docIDs             []string
		remote, wait       bool
	)
	cmd := &cobra.Command{
		Use:   "batch <folder-id>",
		Short: "Transform several documents of a folder, one after another",
		Long: `batch runs one AI config and prompt over the documents of a folder, in order.
Every document is selected unless --doc is given. With --remote the batch is
handed to the server and runs in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client()
			if err != nil {
				return err
			}
			if len(docIDs) == 0 {
				docs, err := c.ListDocuments(ctx, args[0])
				if err != nil {
					return err
				}
				for _, d := range docs {
					docIDs = append(docIDs, d.ID)
				}
			}
			if len(docIDs) == 0 {
				return errors.New("the folder has no documents")
			}

			if remote {
				return a.runRemoteBatch(ctx, c, models.BatchRequest{DocumentIDs: docIDs, ConfigID: configID, PromptID: promptID}, wait)
			}
			return a.runLocalBatch(ctx, args[0], docIDs, configID, promptID)
		},
	}
	cmd.Flags().StringVar(&configID, "config", "", "AI config id")
	cmd.Flags().StringVar(&promptID, "prompt", "", "Prompt template id")
	cmd.Flags().StringSliceVar(&docIDs, "doc", nil, "Document id to include (repeatable)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Submit the batch to the server")
	cmd.Flags().BoolVar(&wait, "wait", false, "With --remote, wait for the batch to finish")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *app) runLocalBatch(ctx context.Context, folderID string, docIDs []string, configID, promptID string) error {
	ws, events, err := a.session(ctx)
	if err != nil {
		return err
	}
	view, err := ws.OpenFolder(ctx, folderID)
	if err != nil {
		return err
	}

	batch := view.Batch()
	batch.Enter()
	for _, id := range docIDs {
		batch.Toggle(id)
	}
	result, err := batch.Run(ctx, configID, promptID)
	closeErr := finish(ctx, ws, events)
	if err != nil {
		return err
	}
	a.printBatchResult(result)
	return closeErr
}

func (a *app) runRemoteBatch(ctx context.Context, c *client.Client, req models.BatchRequest, wait bool) error {
	status, err := c.SubmitBatch(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Submitted batch %s (%s)\n", status.ID, status.State)
	if !wait {
		return nil
	}

	ticker := time.NewTicker(batchPollInterval)
	defer ticker.Stop()
	for !batchDone(status.State) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		status, err = c.BatchStatus(ctx, status.ID)
		if err != nil {
			return err
		}
	}

	if status.State == models.BatchFailed {
		return fmt.Errorf("batch %s failed: %s", status.ID, status.Error)
	}
	if status.Result != nil {
		a.printBatchResult(*status.Result)
	}
	return nil
}

func batchDone(state string) bool {
	return state == models.BatchCompleted || state == models.BatchFailed
}

func (a *app) printBatchResult(r models.BatchResult) {
	fmt.Fprintf(a.out, "Done: %d total, %d succeeded, %d failed\n", r.Total, r.Success, r.Fail)
	for _, f := range r.Failures {
		fmt.Fprintf(a.out, "  %s: %s\n", f.DocumentID, f.Error)
	}
}

func (a *app) newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the model endpoint presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			presets, err := c.Presets(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range presets {
				fmt.Fprintf(a.out, "%s  %s\n", p.DisplayName, p.BaseURL)
				for _, m := range p.Models {
					fmt.Fprintf(a.out, "  %s\n", m.ID)
				}
			}
			return nil
		},
	}
}
