package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"mcmarket/wizard"
)

func snapshot() wizard.FormSnapshot {
	return wizard.FormSnapshot{
		MCNumber:  "123456",
		Title:     "Acme Trucking LLC - MC #123456",
		Price:     "15000",
		ListState: "TX",
	}
}

func TestCoordinator_CommitCreatesListing(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeCommitRepo{created: Record{ID: "listing-1"}}
	coord := NewCoordinator(pool, repo)

	id, err := coord.Commit(context.Background(), snapshot())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if id != "listing-1" {
		t.Fatalf("expected listing-1, got %q", id)
	}
	if repo.markerKey != "listing-commit:123456" {
		t.Fatalf("unexpected marker key %q", repo.markerKey)
	}
	if !pool.tx.committed {
		t.Error("expected tx commit")
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected one create, got %d", repo.createCalls)
	}
}

func TestCoordinator_DuplicateMarkerReturnsExistingListing(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeCommitRepo{
		markerErr: ErrDuplicateCommitKey,
		existing:  Record{ID: "listing-original"},
	}
	coord := NewCoordinator(pool, repo)

	id, err := coord.Commit(context.Background(), snapshot())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if id != "listing-original" {
		t.Fatalf("expected the original listing id, got %q", id)
	}
	if repo.createCalls != 0 {
		t.Fatalf("duplicate marker must not create a listing, got %d creates", repo.createCalls)
	}
	if pool.tx.committed {
		t.Error("expected tx commit to be skipped on duplicate")
	}
	if !pool.tx.rolled {
		t.Error("expected rollback on duplicate")
	}
}

func TestCoordinator_RequiresIdentifier(t *testing.T) {
	coord := NewCoordinator(&fakePool{}, &fakeCommitRepo{})
	if _, err := coord.Commit(context.Background(), wizard.FormSnapshot{}); !errors.Is(err, wizard.ErrIdentifierRequired) {
		t.Fatalf("expected ErrIdentifierRequired, got %v", err)
	}
}

func TestCoordinator_CreateFailurePropagates(t *testing.T) {
	pool := &fakePool{}
	createErr := errors.New("listing: insert: server error")
	repo := &fakeCommitRepo{createErr: createErr}
	coord := NewCoordinator(pool, repo)

	_, err := coord.Commit(context.Background(), snapshot())
	if !errors.Is(err, createErr) {
		t.Fatalf("expected create error, got %v", err)
	}
	if pool.tx.committed {
		t.Error("failed create must not commit the tx")
	}
}

type fakeCommitRepo struct {
	markerErr   error
	markerKey   string
	createErr   error
	createCalls int
	created     Record
	existing    Record
}

func (f *fakeCommitRepo) InsertCommitMarker(_ context.Context, _ pgx.Tx, key string) error {
	f.markerKey = key
	return f.markerErr
}

func (f *fakeCommitRepo) Create(_ context.Context, _ pgx.Tx, _ CreateParams) (Record, error) {
	f.createCalls++
	if f.createErr != nil {
		return Record{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeCommitRepo) FindByAuthorityID(_ context.Context, _ Querier, _ string) (Record, error) {
	return f.existing, nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

func (f *fakePool) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
