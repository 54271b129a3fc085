package establishments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/cbtulcan/inspection-platform/internal/geo"
)

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	e := &Establishment{
		OwnerAccountID: uuid.New(),
		OwnerName:      "Rosa Benavides",
		OwnerEmail:     "rosa@example.ec",
		LegalName:      "FERRETERIA EL CONSTRUCTOR",
		Address:        "AV. CORAL Y JUNIN",
		Zone:           geo.ZoneTulcanCentro,
		ContactPhone:   "0991234567",
	}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Fatal("create must assign an id")
	}

	got, err := repo.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LegalName != e.LegalName || got.Zone != geo.ZoneTulcanCentro {
		t.Fatalf("unexpected establishment: %+v", got)
	}
	if got.Location != nil {
		t.Fatal("location must start unset")
	}

	owner, err := repo.Owner(ctx, e.ID)
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner.AccountID != e.OwnerAccountID || owner.Email != "rosa@example.ec" {
		t.Fatalf("unexpected owner: %+v", owner)
	}

	point := geo.Point{Latitude: 0.8112, Longitude: -77.7178}
	if err := repo.SetLocation(ctx, e.ID, point); err != nil {
		t.Fatalf("set location: %v", err)
	}
	got, _ = repo.GetByID(ctx, e.ID)
	if got.Location == nil || got.Location.Latitude != point.Latitude {
		t.Fatalf("location not pinned: %+v", got.Location)
	}
}

func TestInMemoryRepositoryNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, ErrEstablishmentNotFound) {
		t.Fatalf("expected ErrEstablishmentNotFound, got %v", err)
	}
	if _, err := repo.Owner(ctx, uuid.New()); !errors.Is(err, ErrEstablishmentNotFound) {
		t.Fatalf("expected ErrEstablishmentNotFound, got %v", err)
	}
	if err := repo.SetLocation(ctx, uuid.New(), geo.Point{}); !errors.Is(err, ErrEstablishmentNotFound) {
		t.Fatalf("expected ErrEstablishmentNotFound, got %v", err)
	}
}

func TestPostgresCreateUppercasesRegistryFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)
	e := &Establishment{
		OwnerAccountID: uuid.New(),
		OwnerName:      "Rosa Benavides",
		OwnerEmail:     "rosa@example.ec",
		LegalName:      "  Ferreteria El Constructor ",
		TradeName:      "el constructor",
		Address:        "av. coral y junin",
		Zone:           geo.ZoneTulcanCentro,
		ContactPhone:   "0991234567",
	}
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO establishments").
		WithArgs(pgxmock.AnyArg(), e.OwnerAccountID, e.OwnerName, e.OwnerEmail,
			"FERRETERIA EL CONSTRUCTOR", "EL CONSTRUCTOR", "AV. CORAL Y JUNIN",
			geo.ZoneTulcanCentro, e.ContactPhone, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.LegalName != "FERRETERIA EL CONSTRUCTOR" {
		t.Fatalf("legal name not normalized: %q", e.LegalName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSetLocationNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE establishments").
		WithArgs(id, 0.8112, -77.7178).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.SetLocation(context.Background(), id, geo.Point{Latitude: 0.8112, Longitude: -77.7178})
	if !errors.Is(err, ErrEstablishmentNotFound) {
		t.Fatalf("expected ErrEstablishmentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
