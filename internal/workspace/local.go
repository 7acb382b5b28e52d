package workspace

import (
	"context"

	"inkfold/internal/domain/models"
	"inkfold/internal/domain/models/docsystem"
	"inkfold/internal/domain/services"
	docsysSvc "inkfold/internal/domain/services/docsystem"
)

// LocalBackends binds the in-process services to one user
func LocalBackends(
	userID string,
	folders docsysSvc.FolderService,
	documents docsysSvc.DocumentService,
	transformer services.Transformer,
) Backends {
	return Backends{
		Folders:     &userFolders{userID: userID, svc: folders},
		Documents:   &userDocuments{userID: userID, svc: documents},
		Transformer: BindTransformer(userID, transformer),
	}
}

// BindTransformer binds the transform service to one user
func BindTransformer(userID string, svc services.Transformer) Transformer {
	return &userTransformer{userID: userID, svc: svc}
}

type userFolders struct {
	userID string
	svc    docsysSvc.FolderService
}

func (b *userFolders) ListFolders(ctx context.Context) ([]docsystem.Folder, error) {
	return b.svc.ListFolders(ctx, b.userID)
}

func (b *userFolders) CreateFolder(ctx context.Context, folder docsystem.Folder) (*docsystem.Folder, error) {
	return b.svc.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{
		ID:       optionalID(folder.ID),
		UserID:   b.userID,
		Name:     folder.Name,
		ParentID: folder.ParentID,
	})
}

func (b *userFolders) DeleteFolder(ctx context.Context, id string) error {
	return b.svc.DeleteFolder(ctx, id, b.userID)
}

type userDocuments struct {
	userID string
	svc    docsysSvc.DocumentService
}

func (b *userDocuments) ListDocuments(ctx context.Context, folderID string) ([]docsystem.Document, error) {
	return b.svc.ListDocuments(ctx, folderID, b.userID)
}

func (b *userDocuments) GetDocument(ctx context.Context, id string) (*docsystem.Document, error) {
	return b.svc.GetDocument(ctx, id, b.userID)
}

func (b *userDocuments) CreateDocument(ctx context.Context, doc docsystem.Document) (*docsystem.Document, error) {
	return b.svc.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		ID:       optionalID(doc.ID),
		UserID:   b.userID,
		FolderID: doc.FolderID,
		Title:    doc.Title,
		Content:  doc.Content,
	})
}

func (b *userDocuments) UpdateDocument(ctx context.Context, id string, patch docsystem.DocumentPatch) (*docsystem.Document, error) {
	return b.svc.UpdateDocument(ctx, id, b.userID, patch)
}

func (b *userDocuments) DeleteDocument(ctx context.Context, id string) error {
	return b.svc.DeleteDocument(ctx, id, b.userID)
}

func (b *userDocuments) SearchDocuments(ctx context.Context, query string, folderID *string) ([]docsystem.Document, error) {
	return b.svc.SearchDocuments(ctx, b.userID, &docsystem.SearchOptions{Query: query, FolderID: folderID})
}

type userTransformer struct {
	userID string
	svc    services.Transformer
}

func (b *userTransformer) Transform(ctx context.Context, req models.TransformRequest) (*docsystem.Document, error) {
	return b.svc.Transform(ctx, b.userID, req)
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
