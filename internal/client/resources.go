package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"inkfold/internal/capabilities"
	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
)

type createFolderBody struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

type createDocumentBody struct {
	ID       string `json:"id,omitempty"`
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

type transformBody struct {
	ConfigID string `json:"config_id"`
	PromptID string `json:"prompt_id"`
}

// CurrentUser returns the signed-in user and their settings
func (c *Client) CurrentUser(ctx context.Context) (*models.CurrentUser, error) {
	var out models.CurrentUser
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings replaces the namespaces present in req
func (c *Client) UpdateSettings(ctx context.Context, req *models.UpdateSettingsRequest) (*models.SettingsView, error) {
	var out models.SettingsView
	if err := c.do(ctx, http.MethodPatch, "/api/users/me/settings", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFolders(ctx context.Context) ([]docsystem.Folder, error) {
	var out []docsystem.Folder
	if err := c.do(ctx, http.MethodGet, "/api/folders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FolderTree returns the nested folder forest
func (c *Client) FolderTree(ctx context.Context) ([]*docsystem.FolderTreeNode, error) {
	var out []*docsystem.FolderTreeNode
	if err := c.do(ctx, http.MethodGet, "/api/folders/tree", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFolder(ctx context.Context, folder docsystem.Folder) (*docsystem.Folder, error) {
	var out docsystem.Folder
	body := createFolderBody{ID: folder.ID, Name: folder.Name, ParentID: folder.ParentID}
	if err := c.do(ctx, http.MethodPost, "/api/folders", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/folders/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListDocuments(ctx context.Context, folderID string) ([]docsystem.Document, error) {
	var out []docsystem.Document
	if err := c.do(ctx, http.MethodGet, "/api/folders/"+url.PathEscape(folderID)+"/documents", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*docsystem.Document, error) {
	var out docsystem.Document
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDocument(ctx context.Context, doc docsystem.Document) (*docsystem.Document, error) {
	var out docsystem.Document
	body := createDocumentBody{ID: doc.ID, FolderID: doc.FolderID, Title: doc.Title, Content: doc.Content}
	if err := c.do(ctx, http.MethodPost, "/api/documents", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, patch docsystem.DocumentPatch) (*docsystem.Document, error) {
	var out docsystem.Document
	if err := c.do(ctx, http.MethodPatch, "/api/documents/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) SearchDocuments(ctx context.Context, query string, folderID *string) ([]docsystem.Document, error) {
	return c.Search(ctx, query, folderID, 0)
}

// Search matches titles with an explicit result limit, 0 for the server default
func (c *Client) Search(ctx context.Context, query string, folderID *string, limit int) ([]docsystem.Document, error) {
	q := url.Values{"q": {query}}
	if folderID != nil {
		q.Set("folder_id", *folderID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []docsystem.Document
	if err := c.do(ctx, http.MethodGet, "/api/documents/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transform runs a document through a model on the server
func (c *Client) Transform(ctx context.Context, req models.TransformRequest) (*docsystem.Document, error) {
	var out docsystem.Document
	body := transformBody{ConfigID: req.ConfigID, PromptID: req.PromptID}
	if err := c.do(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(req.DocumentID)+"/transform", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBatch hands a batch to the server
func (c *Client) SubmitBatch(ctx context.Context, req models.BatchRequest) (*models.BatchStatus, error) {
	var out models.BatchStatus
	if err := c.do(ctx, http.MethodPost, "/api/batches", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchStatus reports a submitted batch
func (c *Client) BatchStatus(ctx context.Context, id string) (*models.BatchStatus, error) {
	var out models.BatchStatus
	if err := c.do(ctx, http.MethodGet, "/api/batches/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Presets lists the AI endpoint presets
func (c *Client) Presets(ctx context.Context) ([]capabilities.ProviderPreset, error) {
	var out []capabilities.ProviderPreset
	if err := c.do(ctx, http.MethodGet, "/api/ai/presets", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
