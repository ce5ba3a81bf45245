package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/auth"
	"github.com/Shivanand-hulikatti/tour-booking/internal/events"
	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const testSecret = "test-secret"

type stubProvider struct {
	sessions map[string]*model.ProviderSession
	next     int
}

func (p *stubProvider) CreateSession(_ context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error) {
	p.next++
	id := fmt.Sprintf("cs_test_%d", p.next)
	p.sessions[id] = &model.ProviderSession{
		ID:              id,
		PaymentIntentID: "pi_" + id,
		AmountTotal:     req.UnitAmount,
		Currency:        req.Currency,
		Metadata:        req.Metadata,
		PaymentStatus:   "unpaid",
	}
	return &model.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (p *stubProvider) RetrieveSession(_ context.Context, id string) (*model.ProviderSession, error) {
	s, ok := p.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session: " + id)
	}
	cp := *s
	return &cp, nil
}

// pay simulates the customer completing the hosted page.
func (p *stubProvider) pay(id string) {
	p.sessions[id].PaymentStatus = "paid"
}

type testAPI struct {
	h        http.Handler
	db       *repository.MemoryDB
	provider *stubProvider
	logs     *logtest.Hook
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log, hook := logtest.NewNullLogger()

	db := repository.NewMemoryDB()
	provider := &stubProvider{sessions: make(map[string]*model.ProviderSession)}

	h := NewRouter(Handlers{
		Bookings: NewBookingHandler(service.NewBookingService(db.Bookings())),
		Users:    NewUserHandler(service.NewUserService(db.Users())),
		Payments: NewPaymentHandler(
			service.NewCheckoutService(db.Bookings(), provider, service.CheckoutConfig{Currency: "usd", ClientURL: "http://client.test"}),
			service.NewReconciler(db.Bookings(), db.Payments(), provider, events.Nop{}, log),
			service.NewPaymentService(db.Payments()),
		),
		Dashboard: NewDashboardHandler(service.NewDashboardService(db.Bookings(), db.Payments(), db.Users())),
		Verifier:  auth.NewVerifier(testSecret, ""),
	}, log)

	return &testAPI{h: h, db: db, provider: provider, logs: hook}
}

func (a *testAPI) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (a *testAPI) createBooking(t *testing.T, body string) model.Booking {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create booking: status %d body %s", rec.Code, rec.Body)
	}
	return decode[model.Booking](t, rec)
}

const bookingBody = `{"tourId":"tour-1","tourName":"Harbour Cruise","userEmail":"ann@example.com","travelDate":"2026-12-01","guests":2,"pricePerPerson":50}`

func TestHealthCheck(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestBookingRoutes(t *testing.T) {
	a := newTestAPI(t)
	b := a.createBooking(t, bookingBody)
	if b.Status != model.BookingPending || b.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("created = %+v", b)
	}

	rec := a.do(t, http.MethodGet, "/bookings/"+b.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = a.do(t, http.MethodGet, "/bookings?userEmail=ann@example.com&status=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list := decode[[]model.Booking](t, rec); len(list) != 1 {
		t.Errorf("list len = %d, want 1", len(list))
	}

	rec = a.do(t, http.MethodPatch, "/bookings/"+b.ID, `{"status":"cancelled"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d body %s", rec.Code, rec.Body)
	}
	if got := decode[model.Booking](t, rec); got.Status != model.BookingCancelled {
		t.Errorf("status = %s", got.Status)
	}

	rec = a.do(t, http.MethodDelete, "/bookings/"+b.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = a.do(t, http.MethodGet, "/bookings/"+b.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestBookingListEmptyIsArray(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/bookings", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body)
	}
}

func TestBookingErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing fields", http.MethodPost, "/bookings", `{"guests":2}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/bookings", `{"tourId":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/bookings", `{"tourId":"t","paymentStatus":"paid"}`, http.StatusBadRequest},
		{"price as text", http.MethodPost, "/bookings", `{"tourId":"t","userEmail":"a@b.co","travelDate":"2026-01-01","pricePerPerson":"fifty"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/bookings", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/bookings?limit=ten", "", http.StatusBadRequest},
		{"unknown status filter", http.MethodGet, "/bookings?status=lost", "", http.StatusBadRequest},
		{"get missing", http.MethodGet, "/bookings/nope", "", http.StatusNotFound},
		{"update missing", http.MethodPatch, "/bookings/nope", `{"guests":3}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/bookings/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI(t)
			rec := a.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if n, _ := a.db.Bookings().Count(context.Background(), ""); n != 0 {
				t.Errorf("bookings stored = %d, want 0", n)
			}
		})
	}
}

func TestCreateBookingReportsFieldErrors(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodPost, "/bookings", `{"tourId":"tour-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[model.ErrorResponse](t, rec)
	if _, ok := got.Fields["userEmail"]; !ok {
		t.Errorf("fields = %v, want userEmail", got.Fields)
	}
	if _, ok := got.Fields["travelDate"]; !ok {
		t.Errorf("fields = %v, want travelDate", got.Fields)
	}
}

func TestCheckoutAndConfirm(t *testing.T) {
	a := newTestAPI(t)
	b := a.createBooking(t, bookingBody)

	rec := a.do(t, http.MethodPost, "/payments/checkout", `{"bookingId":"`+b.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout status = %d body %s", rec.Code, rec.Body)
	}
	co := decode[model.CheckoutResponse](t, rec)
	if co.SessionID == "" || co.URL == "" {
		t.Fatalf("checkout = %+v", co)
	}
	if got := a.provider.sessions[co.SessionID].AmountTotal; got != 10000 {
		t.Errorf("amount = %d, want 10000", got)
	}

	// Customer abandons the page.
	rec = a.do(t, http.MethodPost, "/payments/confirm", `{"sessionId":"`+co.SessionID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm unpaid status = %d", rec.Code)
	}
	if res := decode[model.ReconciliationResult](t, rec); res.Outcome != model.OutcomeNotPaid {
		t.Errorf("outcome = %s, want not_paid", res.Outcome)
	}

	a.provider.pay(co.SessionID)
	rec = a.do(t, http.MethodGet, "/payments/confirm?session_id="+co.SessionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d body %s", rec.Code, rec.Body)
	}
	res := decode[model.ReconciliationResult](t, rec)
	if res.Outcome != model.OutcomeConfirmed || res.Booking == nil || res.Booking.Status != model.BookingConfirmed {
		t.Fatalf("result = %+v", res)
	}

	rec = a.do(t, http.MethodPost, "/payments/confirm", `{"sessionId":"`+co.SessionID+`"}`)
	again := decode[model.ReconciliationResult](t, rec)
	if again.Outcome != model.OutcomeAlreadyRecorded || again.PaymentID != res.PaymentID {
		t.Errorf("second confirm = %+v", again)
	}

	rec = a.do(t, http.MethodGet, "/payments?userEmail=ann@example.com", "")
	if payments := decode[[]model.Payment](t, rec); len(payments) != 1 || payments[0].Amount != 10000 {
		t.Errorf("payments = %+v", payments)
	}
}

func TestPaymentErrors(t *testing.T) {
	a := newTestAPI(t)
	free := a.createBooking(t, `{"tourId":"tour-1","userEmail":"ann@example.com","travelDate":"2026-12-01","guests":2,"pricePerPerson":0}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"checkout without booking id", http.MethodPost, "/payments/checkout", `{}`, http.StatusBadRequest},
		{"checkout unknown booking", http.MethodPost, "/payments/checkout", `{"bookingId":"nope"}`, http.StatusNotFound},
		{"checkout zero price", http.MethodPost, "/payments/checkout", `{"bookingId":"` + free.ID + `"}`, http.StatusUnprocessableEntity},
		{"confirm without session", http.MethodPost, "/payments/confirm", `{}`, http.StatusBadRequest},
		{"confirm redirect without session", http.MethodGet, "/payments/confirm", "", http.StatusBadRequest},
		{"confirm unknown session", http.MethodPost, "/payments/confirm", `{"sessionId":"cs_missing"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
	if len(a.provider.sessions) != 0 {
		t.Errorf("sessions created = %d, want 0", len(a.provider.sessions))
	}
}

func TestUserRoutes(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/users", `{"email":"Ann@Example.com","name":"Ann"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d body %s", rec.Code, rec.Body)
	}
	if u := decode[model.User](t, rec); u.Role != model.RoleUser || u.Email != "ann@example.com" {
		t.Errorf("saved = %+v", u)
	}

	rec = a.do(t, http.MethodGet, "/users/ann@example.com/role", "")
	if got := decode[map[string]string](t, rec); got["role"] != "user" {
		t.Errorf("role = %v", got)
	}

	rec = a.do(t, http.MethodPatch, "/users/ann@example.com", `{"bio":"hiker","role":"admin","email":"eve@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d body %s", rec.Code, rec.Body)
	}
	u := decode[model.User](t, rec)
	if u.Role != model.RoleUser || u.Email != "ann@example.com" || u.Profile.Bio != "hiker" {
		t.Errorf("patched = %+v", u)
	}

	if rec := a.do(t, http.MethodGet, "/users/ghost@example.com", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing user status = %d", rec.Code)
	}
}

func TestUserListRequiresBearer(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/users", `{"email":"ann@example.com"}`)

	good, err := auth.Issue(testSecret, "", "admin@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	forged, err := auth.Issue("other-secret", "", "admin@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"wrong scheme", []string{"Authorization", "Basic abc"}, http.StatusUnauthorized},
		{"forged token", []string{"Authorization", "Bearer " + forged}, http.StatusUnauthorized},
		{"valid token", []string{"Authorization", "Bearer " + good}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, "/users", "", tt.header...)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	var admins []any
	for _, e := range a.logs.AllEntries() {
		if e.Message == "listing users" {
			admins = append(admins, e.Data["admin"])
		}
	}
	if len(admins) != 1 || admins[0] != "admin@example.com" {
		t.Errorf("listing log admins = %v, want [admin@example.com]", admins)
	}
}

func TestRequireBearerStoresPrincipal(t *testing.T) {
	var got string
	h := RequireBearer(auth.NewVerifier(testSecret, ""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Principal(r.Context())
	}))

	token, err := auth.Issue(testSecret, "", "Root@Example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "root@example.com" {
		t.Errorf("Principal = %q, want root@example.com", got)
	}
	if p := Principal(context.Background()); p != "" {
		t.Errorf("Principal without bearer = %q, want empty", p)
	}
}

func TestDashboardStats(t *testing.T) {
	a := newTestAPI(t)
	a.createBooking(t, bookingBody)
	a.do(t, http.MethodPost, "/users", `{"email":"ann@example.com"}`)

	rec := a.do(t, http.MethodGet, "/dashboard/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	st := decode[model.DashboardStats](t, rec)
	if st.TotalBookings != 1 || st.PendingBookings != 1 || st.TotalUsers != 1 || len(st.RecentBookings) != 1 {
		t.Errorf("stats = %+v", st)
	}
	if len(st.MonthlyBookings) != 1 || st.MonthlyBookings[0].Count != 1 {
		t.Errorf("monthly = %+v", st.MonthlyBookings)
	}
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodOptions, "/bookings", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing allow-origin header")
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", service.ErrBadRequest), http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: booking 1", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: zero", service.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: timeout", service.ErrUpstream), http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("internal cause leaked: %s", rec.Body)
	}
}
