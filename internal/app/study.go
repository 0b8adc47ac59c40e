package app

import (
	"context"
	"fmt"
	"strings"

	"answerxtractor/internal/prompt"
	"answerxtractor/internal/shaper"
	"answerxtractor/internal/util"
	"answerxtractor/pkg/domain"
)

// ParseStudyKind validates a study tool name from a request.
func ParseStudyKind(raw string) (domain.StudyKind, error) {
	kind := domain.StudyKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", ErrUnsupportedTool
	}
	return kind, nil
}

// GenerateStudyMaterial asks the model for flashcards, a quiz or a mind map
// over the document, stores the unwrapped result and returns it.
// The kind is checked before anything is loaded, so a bad kind never reaches the model.
func (a *App) GenerateStudyMaterial(ctx context.Context, user domain.User, documentID int64, kind domain.StudyKind) (domain.StudyMaterial, error) {
	if !kind.Valid() {
		return domain.StudyMaterial{}, ErrUnsupportedTool
	}
	doc, ok, err := a.store.GetDocument(user.ID, documentID)
	if err != nil {
		return domain.StudyMaterial{}, err
	}
	if !ok {
		return domain.StudyMaterial{}, ErrDocumentNotFound
	}
	p, err := prompt.Study(kind, doc.ExtractedText)
	if err != nil {
		return domain.StudyMaterial{}, ErrUnsupportedTool
	}
	logger := util.LoggerFromContext(ctx).With("document_id", documentID, "type", kind)

	genCtx, cancel := context.WithTimeout(ctx, a.generationTimeout)
	defer cancel()
	raw, err := a.generator.GenerateText(genCtx, p.Request(nil))
	if err != nil {
		logger.Warn("study generation failed", "err", err)
		return domain.StudyMaterial{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	parsed, err := shaper.Decode(raw)
	if err != nil {
		logger.Warn("study output not JSON", "err", err, "chars", len(raw))
		return domain.StudyMaterial{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	material := domain.StudyMaterial{
		UserID:     user.ID,
		DocumentID: documentID,
		Kind:       kind,
		Payload:    shaper.Unwrap(parsed, string(kind)),
		CreatedAt:  a.now(),
	}
	if err := a.store.SaveStudyMaterial(&material); err != nil {
		return domain.StudyMaterial{}, err
	}
	logger.Debug("study material saved", "id", material.ID)
	return material, nil
}

// LatestStudyMaterial returns the most recently generated material of kind.
func (a *App) LatestStudyMaterial(user domain.User, documentID int64, kind domain.StudyKind) (domain.StudyMaterial, error) {
	if !kind.Valid() {
		return domain.StudyMaterial{}, ErrUnsupportedTool
	}
	if _, ok, err := a.store.GetDocument(user.ID, documentID); err != nil {
		return domain.StudyMaterial{}, err
	} else if !ok {
		return domain.StudyMaterial{}, ErrDocumentNotFound
	}
	m, ok, err := a.store.LatestStudyMaterial(user.ID, documentID, kind)
	if err != nil {
		return domain.StudyMaterial{}, err
	}
	if !ok {
		return domain.StudyMaterial{}, ErrStudyMaterialNotFound
	}
	return m, nil
}
