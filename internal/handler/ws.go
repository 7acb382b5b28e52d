package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"inkfold/internal/domain"
	"inkfold/internal/domain/models"
	docsystem "inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/services"
	docsysSvc "inkfold/internal/domain/services/docsystem"
	"inkfold/internal/httputil"
	"inkfold/internal/workspace"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsMaxMessageSize = httputil.MaxBodyBytes
	wsSendBuffer     = 256
)

// WorkspaceHandler upgrades /ws to a workspace session bound to the
// signed-in user's services
type WorkspaceHandler struct {
	folders     docsysSvc.FolderService
	documents   docsysSvc.DocumentService
	transformer services.Transformer
	upgrader    websocket.Upgrader
	opts        workspace.Options
	logger      *slog.Logger
}

// NewWorkspaceHandler creates a WebSocket handler. allowedOrigins empty
// accepts any origin.
func NewWorkspaceHandler(
	folders docsysSvc.FolderService,
	documents docsysSvc.DocumentService,
	transformer services.Transformer,
	allowedOrigins []string,
	opts workspace.Options,
	logger *slog.Logger,
) *WorkspaceHandler {
	opts.Logger = logger
	return &WorkspaceHandler{
		folders:     folders,
		documents:   documents,
		transformer: transformer,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		opts:   opts,
		logger: logger,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS runs one workspace session until the connection closes
// GET /ws
func (h *WorkspaceHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &wsSession{
		conn:   conn,
		userID: user.ID,
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
		logger: h.logger.With("user_id", user.ID),
	}
	backends := workspace.LocalBackends(user.ID, h.folders, h.documents, h.transformer)
	ctx := context.WithoutCancel(r.Context())
	s.ws = workspace.New(ctx, backends, s, h.opts)

	s.logger.Info("workspace session opened")
	go s.writePump()

	if err := s.ws.LoadFolders(ctx); err != nil {
		s.Error("folders", err)
	}
	s.readPump(ctx)

	if err := s.ws.Close(ctx); err != nil {
		s.logger.Warn("final save failed", "error", err)
	}
	s.tasks.Wait()
	s.logger.Info("workspace session closed")
}

// wsSession is one connection's workspace. It implements workspace.Events
// by queueing JSON messages for the write pump.
type wsSession struct {
	conn   *websocket.Conn
	userID string
	ws     *workspace.Workspace
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// long-running commands (batch, transform) run off the read loop
	tasks sync.WaitGroup
}

func (s *wsSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *wsSession) push(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode websocket message", "type", msg.Type, "error", err)
		return
	}
	select {
	case <-s.done:
	case s.send <- data:
	default:
		s.logger.Warn("websocket client too slow, closing", "type", msg.Type)
		s.close()
	}
}

func (s *wsSession) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in websocket read loop", "error", r, "stack", string(debug.Stack()))
		}
		s.close()
	}()

	s.conn.SetReadLimit(wsMaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Error("decode", fmt.Errorf("%w: invalid message", domain.ErrValidation))
			continue
		}
		s.dispatch(ctx, msg)
	}
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// background runs fn off the read loop so the session keeps answering
func (s *wsSession) background(op string, fn func() error) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in websocket task", "op", op, "error", r, "stack", string(debug.Stack()))
				s.Error(op, errors.New("internal error"))
			}
		}()
		if err := fn(); err != nil {
			s.Error(op, err)
		}
	}()
}

var errNoFolder = fmt.Errorf("%w: no folder is open", domain.ErrValidation)

func (s *wsSession) dispatch(ctx context.Context, msg clientMessage) {
	switch msg.Type {
	case msgPing:
		s.push(serverMessage{Type: msgPong})

	case msgOpenFolder:
		if _, err := s.ws.OpenFolder(ctx, msg.ID); err != nil {
			s.Error(msg.Type, err)
		}

	case msgCreateFolder:
		if _, err := s.ws.Sidebar().CreateFolder(ctx, msg.Name, msg.ParentID); err != nil {
			s.Error(msg.Type, err)
		}

	case msgDeleteFolder:
		if err := s.ws.Sidebar().DeleteFolder(ctx, msg.ID); err != nil {
			s.Error(msg.Type, err)
		}

	case msgCreateDocument:
		view := s.ws.Folder()
		if view == nil {
			s.Error(msg.Type, errNoFolder)
			return
		}
		title := ""
		if msg.Title != nil {
			title = *msg.Title
		}
		if _, err := view.CreateDocument(ctx, title); err != nil {
			s.Error(msg.Type, err)
		}

	case msgDeleteDocument:
		view := s.ws.Folder()
		if view == nil {
			s.Error(msg.Type, errNoFolder)
			return
		}
		if err := view.DeleteDocument(ctx, msg.ID); err != nil {
			s.Error(msg.Type, err)
		}

	case msgSearch:
		if view := s.ws.Folder(); view != nil {
			view.Search().SetQuery(msg.Query)
		} else {
			s.Error(msg.Type, errNoFolder)
		}

	case msgScope:
		view := s.ws.Folder()
		if view == nil {
			s.Error(msg.Type, errNoFolder)
			return
		}
		switch workspace.Scope(msg.Scope) {
		case workspace.ScopeFolder, workspace.ScopeAll:
			view.Search().SetScope(workspace.Scope(msg.Scope))
		default:
			s.Error(msg.Type, fmt.Errorf("%w: unknown scope %q", domain.ErrValidation, msg.Scope))
		}

	case msgBatchMode:
		view := s.ws.Folder()
		if view == nil {
			s.Error(msg.Type, errNoFolder)
			return
		}
		if msg.On {
			view.Batch().Enter()
		} else {
			view.Batch().Exit()
		}

	case msgToggleSelect:
		if view := s.ws.Folder(); view != nil {
			view.Batch().Toggle(msg.ID)
		} else {
			s.Error(msg.Type, errNoFolder)
		}

	case msgRunBatch:
		view := s.ws.Folder()
		if view == nil {
			s.Error(msg.Type, errNoFolder)
			return
		}
		s.background(msg.Type, func() error {
			_, err := view.Batch().Run(ctx, msg.ConfigID, msg.PromptID)
			return err
		})

	case msgOpenDocument:
		editor, err := s.ws.OpenDocument(ctx, msg.ID)
		if err != nil {
			s.Error(msg.Type, err)
			return
		}
		doc := docsystem.Document{
			ID:       editor.DocumentID(),
			FolderID: editor.FolderID(),
			Title:    editor.Autosave().Title(),
			Content:  editor.Autosave().Content(),
		}
		s.push(serverMessage{Type: msgDocument, DocumentID: doc.ID, Document: &doc})

	case msgEdit:
		editor := s.ws.Editor()
		if editor == nil {
			s.Error(msg.Type, fmt.Errorf("%w: no document is open", domain.ErrValidation))
			return
		}
		if msg.Title != nil {
			editor.SetTitle(*msg.Title)
		}
		if msg.Content != nil {
			editor.SetContent(*msg.Content)
		}

	case msgCloseDocument:
		if err := s.ws.CloseDocument(ctx); err != nil {
			s.Error(msg.Type, err)
		}

	case msgTransform:
		s.background(msg.Type, func() error {
			created, err := s.ws.Transform(ctx, msg.ConfigID, msg.PromptID)
			if err != nil {
				return err
			}
			s.push(serverMessage{Type: msgDocument, DocumentID: created.ID, FolderID: created.FolderID, Document: created, Op: msgTransform})
			return nil
		})

	default:
		s.Error("decode", fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, msg.Type))
	}
}

func (s *wsSession) FoldersChanged(tree []*docsystem.FolderTreeNode) {
	if tree == nil {
		tree = []*docsystem.FolderTreeNode{}
	}
	s.push(serverMessage{Type: msgFolders, Tree: tree})
}

func (s *wsSession) DocumentsChanged(folderID string, docs []docsystem.Document) {
	if docs == nil {
		docs = []docsystem.Document{}
	}
	s.push(serverMessage{Type: msgDocuments, FolderID: folderID, Documents: docs})
}

func (s *wsSession) SaveStatusChanged(documentID string, status workspace.SaveStatus) {
	s.push(serverMessage{Type: msgSaveStatus, DocumentID: documentID, Status: newSaveStatusPayload(status)})
}

func (s *wsSession) DocumentSaved(doc docsystem.Document) {
	s.push(serverMessage{Type: msgDocument, DocumentID: doc.ID, FolderID: doc.FolderID, Document: &doc, Op: "saved"})
}

func (s *wsSession) BatchProgress(progress models.BatchProgress) {
	s.push(serverMessage{Type: msgBatchProgress, Progress: &progress})
}

func (s *wsSession) BatchResult(result models.BatchResult) {
	s.push(serverMessage{Type: msgBatchResult, Result: &result})
}

func (s *wsSession) BatchCleared() {
	s.push(serverMessage{Type: msgBatchCleared})
}

func (s *wsSession) Error(op string, err error) {
	s.push(serverMessage{Type: msgError, Op: op, Error: clientErrorMessage(err)})
}

// clientErrorMessage hides internal failures from the browser
func clientErrorMessage(err error) string {
	var httpErr domain.HTTPError
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrForbidden),
		errors.As(err, &httpErr):
		return err.Error()
	default:
		return "internal server error"
	}
}
