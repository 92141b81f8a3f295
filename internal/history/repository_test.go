package history

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"tomgalvin.uk/monoform/internal/bitmap"
	"tomgalvin.uk/monoform/internal/codegen"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	r, err := Open("file:" + filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func aDocument(symbol string, createdAt time.Time) *Document {
	return &Document{
		Symbol:    symbol,
		Mode:      bitmap.RowMajor,
		Flavor:    codegen.Header,
		Width:     8,
		Height:    8,
		Threshold: 128,
		Length:    8,
		Body:      "#define " + symbol,
		CreatedAt: createdAt,
	}
}

func create(t *testing.T, r *Repository, d *Document) {
	t.Helper()
	if err := r.Transact(func(tx *sql.Tx) error {
		return r.Create(tx, d)
	}); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndGet(t *testing.T) {
	r := openTestRepository(t)
	d := aDocument("logo", time.Time{})
	d.Mode = bitmap.PageMajor
	d.Flavor = codegen.Snippet
	create(t, r, d)

	if d.Id == 0 || d.Uuid == uuid.Nil || d.CreatedAt.IsZero() {
		t.Fatalf("Create didn't fill in identity: %+v", d)
	}

	got, err := r.Get(d.Uuid)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("document not found")
	}
	if got.Symbol != "logo" || got.Body != d.Body || got.Mode != bitmap.PageMajor || got.Flavor != codegen.Snippet {
		t.Errorf("Get() = %+v", got)
	}
	if !got.CreatedAt.Equal(d.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, d.CreatedAt)
	}
	if got.FileName() != "img8x8.h" {
		t.Errorf("FileName() = %q", got.FileName())
	}
}

func TestGetMissing(t *testing.T) {
	r := openTestRepository(t)
	got, err := r.Get(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestListNewestFirst(t *testing.T) {
	r := openTestRepository(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	create(t, r, aDocument("first", base))
	create(t, r, aDocument("third", base.Add(2*time.Minute)))
	create(t, r, aDocument("second", base.Add(time.Minute)))

	got, err := r.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("List(2) returned %v documents", len(got))
	}
	if got[0].Symbol != "third" || got[1].Symbol != "second" {
		t.Errorf("List(2) = %v, %v", got[0].Symbol, got[1].Symbol)
	}
	if got[0].Body != "" {
		t.Error("List shouldn't load bodies")
	}
}

func TestTransactRollsBack(t *testing.T) {
	r := openTestRepository(t)
	d := aDocument("doomed", time.Time{})
	boom := errors.New("boom")

	err := r.Transact(func(tx *sql.Tx) error {
		if err := r.Create(tx, d); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact() = %v, want boom", err)
	}
	if got, _ := r.Get(d.Uuid); got != nil {
		t.Error("document survived rollback")
	}
}

func TestDelete(t *testing.T) {
	r := openTestRepository(t)
	d := aDocument("gone", time.Time{})
	create(t, r, d)

	var deleted bool
	if err := r.Transact(func(tx *sql.Tx) (err error) {
		deleted, err = r.Delete(tx, d.Uuid)
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Error("Delete() reported nothing removed")
	}
	if got, _ := r.Get(d.Uuid); got != nil {
		t.Error("document still present")
	}

	if err := r.Transact(func(tx *sql.Tx) (err error) {
		deleted, err = r.Delete(tx, d.Uuid)
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Error("second Delete() reported a removal")
	}
}
