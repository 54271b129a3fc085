package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/booking"
	"github.com/cbtulcan/inspection-platform/internal/establishments"
	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/routing"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

type emptyVisitSource struct{}

func (emptyVisitSource) VisitsFor(ctx context.Context, date time.Time, zone geo.Zone, shift turnos.Shift) ([]routing.Visit, error) {
	return nil, nil
}

type testStores struct {
	slots *agenda.InMemoryRepository
	appts *turnos.InMemoryRepository
	ests  *establishments.InMemoryRepository
}

func newTestRouter(t *testing.T, staffSecret string) (http.Handler, *testStores) {
	t.Helper()

	logger := logging.New("error")
	st := &testStores{
		slots: agenda.NewInMemoryRepository(),
		appts: turnos.NewInMemoryRepository(),
		ests:  establishments.NewInMemoryRepository(),
	}
	notifier := notify.NewService(notify.NewInMemoryStore(), nil, logger)

	agendaSvc := agenda.NewService(st.slots, st.appts, logger)
	turnosSvc := turnos.NewService(st.appts, st.ests, notifier, nil, logger)
	bookingSvc := booking.NewService(st.slots, st.appts, booking.NewMemoryCoordinator(st.appts), st.ests, notifier, nil, logger)
	routingSvc := routing.NewService(emptyVisitSource{}, geo.Point{Latitude: 0.8234943, Longitude: -77.7071697}, nil, logger)

	return New(&Config{
		Logger:                logger,
		AgendaHandler:         agenda.NewHandler(agendaSvc, logger),
		TurnosHandler:         turnos.NewHandler(turnosSvc, logger),
		BookingHandler:        booking.NewHandler(bookingSvc, logger),
		EstablishmentsHandler: establishments.NewHandler(st.ests, logger),
		NotifyHandler:         notify.NewHandler(notifier, logger),
		RoutingHandler:        routing.NewHandler(routingSvc, logger),
		StaffAuthSecret:       staffSecret,
	}), st
}

func staffToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "inspector-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestPublicSlotListingIsOpen(t *testing.T) {
	r, _ := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/agenda/zones/TULCAN_CENTRO/slots", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t, "secret")

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/admin/agenda/generate"},
		{http.MethodGet, "/admin/turnos/stats"},
		{http.MethodGet, "/admin/routes/2026-09-09/TULCAN_CENTRO/MORNING"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestAdminRejectsForgedToken(t *testing.T) {
	r, _ := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/admin/turnos/stats", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, "wrong-secret"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminAcceptsSignedToken(t *testing.T) {
	r, _ := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/admin/turnos/stats", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, "secret"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func seedConfirmedAppointment(t *testing.T, st *testStores, ownerAccount uuid.UUID) *turnos.Appointment {
	t.Helper()

	est := &establishments.Establishment{
		OwnerAccountID: ownerAccount,
		OwnerName:      "Rosa",
		LegalName:      "FERRETERIA EL CONSTRUCTOR",
		Address:        "AV. CORAL Y JUNIN",
		Zone:           geo.ZoneTulcanCentro,
	}
	if err := st.ests.Create(context.Background(), est); err != nil {
		t.Fatalf("seed establishment: %v", err)
	}

	inspector := uuid.New()
	a := &turnos.Appointment{
		SlotID:          uuid.New(),
		EstablishmentID: est.ID,
		InspectorID:     &inspector,
		Shift:           turnos.ShiftMorning,
		State:           turnos.StateConfirmed,
		SlotDate:        time.Now().UTC().AddDate(0, 0, 7),
		Zone:            geo.ZoneTulcanCentro,
		ContactPhone:    "0991234567",
	}
	if err := st.appts.Create(context.Background(), a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func TestPublicCancelEnforcesOwnership(t *testing.T) {
	r, st := newTestRouter(t, "secret")

	owner := uuid.New()
	a := seedConfirmedAppointment(t, st, owner)

	// A stranger's account id gets rejected even when the body claims
	// staff privileges; the public route never grants them.
	body := fmt.Sprintf(`{"reason":"ajena","actor_account_id":%q,"staff":true}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/turnos/"+a.ID.String()+"/cancel", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	stored, err := st.appts.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != turnos.StateConfirmed {
		t.Fatalf("appointment cancelled without credentials, state %s", stored.State)
	}

	body = fmt.Sprintf(`{"reason":"viaje","actor_account_id":%q}`, owner)
	req = httptest.NewRequest(http.MethodPost, "/turnos/"+a.ID.String()+"/cancel", strings.NewReader(body))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner cancel: expected 200, got %d", rec.Code)
	}
}

func TestAdminCancelOnBehalfOfOwner(t *testing.T) {
	r, st := newTestRouter(t, "secret")

	a := seedConfirmedAppointment(t, st, uuid.New())

	body := strings.NewReader(`{"reason":"reprogramación"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/turnos/"+a.ID.String()+"/cancel", body)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, "secret"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stored, err := st.appts.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != turnos.StateCancelled {
		t.Fatalf("expected CANCELLED, got %s", stored.State)
	}
}

func TestAdminRoutesAbsentWithoutSecret(t *testing.T) {
	r, _ := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/turnos/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when staff auth is unconfigured, got %d", rec.Code)
	}
}
