package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
)

func mockSlot() *agenda.Slot {
	return &agenda.Slot{
		ID:                uuid.New(),
		Date:              date(2026, 9, 9),
		Zone:              geo.ZoneTulcanCentro,
		MorningCapacity:   2,
		AfternoonCapacity: 4,
		Enabled:           true,
	}
}

func mockAppointment(slot *agenda.Slot) *turnos.Appointment {
	return &turnos.Appointment{
		SlotID:          slot.ID,
		EstablishmentID: uuid.New(),
		Shift:           turnos.ShiftMorning,
		State:           turnos.StateRequested,
		SlotDate:        slot.Date,
		Zone:            slot.Zone,
		ContactPhone:    "0991234567",
	}
}

func TestPostgresCoordinatorReservesUnderLock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	slot := mockSlot()
	a := mockAppointment(slot)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(slot.ID).
		WillReturnRows(pgxmock.NewRows([]string{"morning_capacity", "afternoon_capacity", "enabled"}).AddRow(2, 4, true))
	mock.ExpectQuery("SELECT COUNT").WithArgs(slot.ID, turnos.ShiftMorning).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()
	mock.ExpectRollback()

	coord := newPostgresCoordinatorWithDB(mock)
	if err := coord.Reserve(context.Background(), slot, a); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Fatal("appointment id not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresCoordinatorRejectsFullShift(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	slot := mockSlot()
	a := mockAppointment(slot)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(slot.ID).
		WillReturnRows(pgxmock.NewRows([]string{"morning_capacity", "afternoon_capacity", "enabled"}).AddRow(2, 4, true))
	mock.ExpectQuery("SELECT COUNT").WithArgs(slot.ID, turnos.ShiftMorning).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	coord := newPostgresCoordinatorWithDB(mock)
	err = coord.Reserve(context.Background(), slot, a)
	if !IsCapacityExceeded(err) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresCoordinatorMapsDuplicateActiveAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	slot := mockSlot()
	a := mockAppointment(slot)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(slot.ID).
		WillReturnRows(pgxmock.NewRows([]string{"morning_capacity", "afternoon_capacity", "enabled"}).AddRow(2, 4, true))
	mock.ExpectQuery("SELECT COUNT").WithArgs(slot.ID, turnos.ShiftMorning).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_appointments_one_active_per_establishment",
		})
	mock.ExpectRollback()

	coord := newPostgresCoordinatorWithDB(mock)
	err = coord.Reserve(context.Background(), slot, a)
	if !errors.Is(err, ErrActiveAppointment) {
		t.Fatalf("expected ErrActiveAppointment, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresCoordinatorChecksEnabledUnderLock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	slot := mockSlot()
	a := mockAppointment(slot)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(slot.ID).
		WillReturnRows(pgxmock.NewRows([]string{"morning_capacity", "afternoon_capacity", "enabled"}).AddRow(2, 4, false))
	mock.ExpectRollback()

	coord := newPostgresCoordinatorWithDB(mock)
	if err := coord.Reserve(context.Background(), slot, a); err != ErrSlotClosed {
		t.Fatalf("expected ErrSlotClosed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
