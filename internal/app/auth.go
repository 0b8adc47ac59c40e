package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"answerxtractor/internal/util"
	"answerxtractor/pkg/auth"
	"answerxtractor/pkg/domain"
	"answerxtractor/pkg/store"
)

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Register creates a user account.
func (a *App) Register(email, password string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, validation(err.Error())
	}
	if _, ok, err := a.store.GetUserByEmail(email); err != nil {
		return domain.User{}, err
	} else if ok {
		return domain.User{}, ErrDuplicateEmail
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{Email: email, PasswordHash: hash, CreatedAt: a.now()}
	if err := a.store.CreateUser(&user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (a *App) Login(email, password string) (string, domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", domain.User{}, ErrEmailAndPasswordRequired
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return "", domain.User{}, err
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return "", domain.User{}, ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue session: %w", err)
	}
	return token, user, nil
}

// UserFromToken resolves the user behind a bearer token.
func (a *App) UserFromToken(token string) (domain.User, error) {
	userID, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		if err == nil {
			err = ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrUnauthorized
	}
	return user, nil
}

// Logout revokes the token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// DeleteAccount removes the user and everything they own. Archived originals
// are removed after the database cascade commits.
func (a *App) DeleteAccount(ctx context.Context, user domain.User) error {
	docs, err := a.store.ListDocuments(user.ID)
	if err != nil {
		return err
	}
	ok, err := a.store.DeleteUser(user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	for _, d := range docs {
		a.removeObject(ctx, d.StorageKey)
	}
	util.LoggerFromContext(ctx).Info("account deleted", "user_id", user.ID, "documents", len(docs))
	return nil
}
