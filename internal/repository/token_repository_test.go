package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewTokenRepo(db), mock, func() { db.Close() }
}

func TestConsumeRevokesAndReturnsOwner(t *testing.T) {
	repo, mock, done := newTokenRepo(t)
	defer done()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE token_hash=\\? AND revoked_at IS NULL AND expires_at > NOW\\(\\)").
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM refresh_tokens WHERE token_hash=\\? LIMIT 1").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	userID, err := repo.Consume(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if userID != 7 {
		t.Fatalf("userID = %d, want 7", userID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConsumeReplayedTokenLoses(t *testing.T) {
	repo, mock, done := newTokenRepo(t)
	defer done()

	// The conditional update touches zero rows once the token has been
	// consumed, expired or was never issued.
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\)").
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Consume(context.Background(), "abc123")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
