package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"answerxtractor/internal/util"
	"answerxtractor/pkg/domain"
	"answerxtractor/pkg/extract"
	"answerxtractor/pkg/storage"
)

// UploadDocument extracts the text of an uploaded file and stores it for the user.
// When object storage is configured the original bytes are archived as well.
func (a *App) UploadDocument(ctx context.Context, user domain.User, filename string, data []byte) (domain.Document, error) {
	filename = strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if filename == "" || filename == "." || filename == "/" {
		return domain.Document{}, ErrFileRequired
	}
	kind, err := extract.ParseKind(filename)
	if err != nil {
		return domain.Document{}, ErrUnsupportedFileType
	}
	if int64(len(data)) > a.maxUploadBytes {
		return domain.Document{}, ErrFileTooLarge
	}
	logger := util.LoggerFromContext(ctx)

	text, err := extract.Extract(data, kind)
	if err != nil {
		logger.Warn("document extraction failed", "filename", filename, "kind", kind, "err", err)
		return domain.Document{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, ErrExtractionFailed
	}

	doc := domain.Document{
		UserID:        user.ID,
		Filename:      filename,
		Kind:          string(kind),
		ExtractedText: text,
		SizeBytes:     int64(len(data)),
		UploadedAt:    a.now(),
	}
	if a.objects != nil {
		key := storage.DocumentKey(user.ID, filename)
		if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeFor(filename)); err != nil {
			// The extracted text is what chat needs; a failed archive only disables download.
			logger.Warn("archive original failed", "filename", filename, "err", err)
		} else {
			doc.StorageKey = key
		}
	}
	if err := a.store.CreateDocument(&doc); err != nil {
		a.removeObject(ctx, doc.StorageKey)
		return domain.Document{}, err
	}
	logger.Info("document uploaded", "document_id", doc.ID, "kind", kind, "chars", len(text))
	return doc, nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ListDocuments returns the user's documents newest first.
func (a *App) ListDocuments(user domain.User) ([]domain.Document, error) {
	return a.store.ListDocuments(user.ID)
}

// DeleteDocument removes a document, its chats, messages and study materials.
func (a *App) DeleteDocument(ctx context.Context, user domain.User, id int64) error {
	doc, ok, err := a.store.GetDocument(user.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDocumentNotFound
	}
	ok, err = a.store.DeleteDocument(user.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDocumentNotFound
	}
	a.removeObject(ctx, doc.StorageKey)
	return nil
}

// DownloadURL returns a short-lived link to the archived original.
func (a *App) DownloadURL(ctx context.Context, user domain.User, id int64) (string, domain.Document, error) {
	doc, ok, err := a.store.GetDocument(user.ID, id)
	if err != nil {
		return "", domain.Document{}, err
	}
	if !ok {
		return "", domain.Document{}, ErrDocumentNotFound
	}
	if a.objects == nil || doc.StorageKey == "" {
		return "", domain.Document{}, ErrDownloadUnavailable
	}
	link, err := a.objects.PresignGet(ctx, doc.StorageKey, doc.Filename, a.presignExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", domain.Document{}, ErrDownloadUnavailable
		}
		return "", domain.Document{}, err
	}
	return link, doc, nil
}

func (a *App) removeObject(ctx context.Context, key string) {
	if a.objects == nil || key == "" {
		return
	}
	if err := a.objects.Delete(ctx, key); err != nil {
		util.LoggerFromContext(ctx).Warn("delete archived original failed", "key", key, "err", err)
	}
}
