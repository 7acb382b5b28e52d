package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"inkfold/internal/client"
	"inkfold/internal/domain/models"
	"inkfold/internal/workspace"

	"github.com/spf13/cobra"
)

// app carries the resolved settings to every command
type app struct {
	settings Settings
	out      io.Writer
	logger   *slog.Logger
}

// NewRootCommand builds the inkfold command tree. Output goes to out.
func NewRootCommand(settings Settings, out io.Writer, logger *slog.Logger) *cobra.Command {
	a := &app{settings: settings, out: out, logger: logger}

	cmd := &cobra.Command{
		Use:   "inkfold",
		Short: "inkfold document workspace CLI",
		Long: `inkfold manages folders and documents on an inkfold server, edits documents
with autosave, and runs AI transforms on one document or a whole selection.`,
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&a.settings.APIURL, "api-url", settings.APIURL, "Server base URL")
	cmd.PersistentFlags().StringVar(&a.settings.Token, "token", settings.Token, "Access token (overrides the saved login)")

	cmd.AddCommand(
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newFoldersCmd(),
		a.newDocsCmd(),
		a.newEditCmd(),
		a.newTransformCmd(),
		a.newBatchCmd(),
		a.newPresetsCmd(),
	)
	return cmd
}

func (a *app) client() (*client.Client, error) {
	token, err := a.settings.ResolveToken()
	if err != nil {
		return nil, err
	}
	return client.New(a.settings.APIURL, token, a.settings.Timeout), nil
}

// session opens a workspace over the API. Background write failures are
// collected by the returned events and reported by finish.
func (a *app) session(ctx context.Context) (*workspace.Workspace, *cliEvents, error) {
	c, err := a.client()
	if err != nil {
		return nil, nil, err
	}
	events := &cliEvents{out: a.out}
	ws := workspace.New(ctx, c.Backends(), events, workspace.Options{Logger: a.logger})
	return ws, events, nil
}

// finish closes ws, flushing pending saves, and returns the first failure
func finish(ctx context.Context, ws *workspace.Workspace, events *cliEvents) error {
	closeErr := ws.Close(ctx)
	return errors.Join(closeErr, events.err())
}

// cliEvents prints batch progress and records errors
type cliEvents struct {
	workspace.NopEvents

	out  io.Writer
	mu   sync.Mutex
	errs []error
}

func (e *cliEvents) Error(op string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, fmt.Errorf("%s: %w", op, err))
}

func (e *cliEvents) BatchProgress(p models.BatchProgress) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.OK {
		fmt.Fprintf(e.out, "[%d/%d] %s ok\n", p.Index, p.Total, p.DocumentID)
		return
	}
	fmt.Fprintf(e.out, "[%d/%d] %s failed: %s\n", p.Index, p.Total, p.DocumentID, p.Error)
}

func (e *cliEvents) err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}
