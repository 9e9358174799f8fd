package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-seat-booking/internal/config"
	"github.com/iliyamo/theater-seat-booking/internal/database/dbtest"
	"github.com/iliyamo/theater-seat-booking/internal/events"
	"github.com/iliyamo/theater-seat-booking/internal/importer"
	"github.com/iliyamo/theater-seat-booking/internal/model"
	"github.com/iliyamo/theater-seat-booking/internal/service"
	"github.com/iliyamo/theater-seat-booking/internal/utils"
)

const testSecret = "test-secret"

type apiEnv struct {
	t     *testing.T
	e     *echo.Echo
	pub   *events.Memory
	admin string
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	db := dbtest.Open(t)
	log, _ := logtest.NewNullLogger()
	cfg := config.Config{
		App:    config.AppConfig{UploadDir: t.TempDir()},
		JWT:    config.JWTConfig{Secret: testSecret, TTLMin: 10},
		Import: config.ImportConfig{Workers: 2, TxTimeout: 5 * time.Second},
	}
	pub := &events.Memory{}
	a := &App{Config: cfg, Log: log, DB: db, Publisher: pub, Services: NewServices(cfg, db, pub, log)}
	return &apiEnv{t: t, e: a.NewEcho(nil), pub: pub, admin: token(t, utils.RoleAdmin)}
}

func token(t *testing.T, role string, theaters ...uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, "tester", role, theaters, 10)
	require.NoError(t, err)
	return tok.Token
}

func (env *apiEnv) do(method, path, tok string, body any) *httptest.ResponseRecorder {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seed creates theater "Grand" with a 2x3 section "A" priced 1500 cents.
func (env *apiEnv) seed() (theaterID, sectionID uint64) {
	t := env.t
	t.Helper()
	rec := env.do(http.MethodPost, "/api/v1/theaters", env.admin, map[string]any{"name": "Grand", "location": "Main St"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	th := decode[model.Theater](t, rec)

	base := fmt.Sprintf("/api/v1/theaters/%d", th.ID)
	rec = env.do(http.MethodPost, base+"/seat-types", env.admin, map[string]any{"name": "standard", "price_cents": 1500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decode[model.SeatType](t, rec)
	assert.Equal(t, "STANDARD", st.Name)

	rec = env.do(http.MethodPost, base+"/sections", env.admin, map[string]any{
		"name": "A", "seat_type_id": st.ID, "rows": 2, "seats_per_row": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gen := decode[service.GenerationResult](t, rec)
	assert.Equal(t, 6, gen.Seats)
	return th.ID, gen.Section.ID
}

func TestHealthProbes(t *testing.T) {
	env := newAPI(t)

	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = env.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestAuthAndScope(t *testing.T) {
	env := newAPI(t)
	tid, _ := env.seed()
	base := fmt.Sprintf("/api/v1/theaters/%d", tid)

	tests := []struct {
		name   string
		method string
		path   string
		tok    string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, base + "/sections", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, base + "/sections", "not-a-jwt", nil, http.StatusUnauthorized},
		{"wrong secret", http.MethodGet, base + "/sections", forgedToken(t), nil, http.StatusUnauthorized},
		{"staff of another theater", http.MethodGet, base + "/sections", token(t, utils.RoleStaff, tid+1), nil, http.StatusForbidden},
		{"staff reads own theater", http.MethodGet, base + "/sections", token(t, utils.RoleStaff, tid), nil, http.StatusOK},
		{"staff cannot create theaters", http.MethodPost, "/api/v1/theaters", token(t, utils.RoleStaff, tid), map[string]any{"name": "X"}, http.StatusForbidden},
		{"staff cannot change layout", http.MethodDelete, base + "/sections/1", token(t, utils.RoleStaff, tid), nil, http.StatusForbidden},
		{"bad theater id", http.MethodGet, "/api/v1/theaters/abc/sections", env.admin, nil, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(tc.method, tc.path, tc.tok, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func forgedToken(t *testing.T) string {
	tok, err := utils.NewAccessToken("other-secret", "mallory", utils.RoleAdmin, nil, 10)
	require.NoError(t, err)
	return tok.Token
}

func TestTheaterListIsFilteredForStaff(t *testing.T) {
	env := newAPI(t)
	tid, _ := env.seed()
	rec := env.do(http.MethodPost, "/api/v1/theaters", env.admin, map[string]any{"name": "Annex"})
	require.Equal(t, http.StatusCreated, rec.Code)

	all := decode[[]model.Theater](t, env.do(http.MethodGet, "/api/v1/theaters", env.admin, nil))
	assert.Len(t, all, 2)

	mine := decode[[]model.Theater](t, env.do(http.MethodGet, "/api/v1/theaters", token(t, utils.RoleStaff, tid), nil))
	require.Len(t, mine, 1)
	assert.Equal(t, "Grand", mine[0].Name)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	env := newAPI(t)
	tid, sid := env.seed()
	base := fmt.Sprintf("/api/v1/theaters/%d", tid)
	staff := token(t, utils.RoleStaff, tid)

	seats := decode[[]model.Seat](t, env.do(http.MethodGet, fmt.Sprintf("%s/sections/%d/seats?available=true", base, sid), staff, nil))
	assert.Len(t, seats, 6)

	rec := env.do(http.MethodPost, base+"/bookings", staff, map[string]any{
		"section": "A", "row": 1, "seat_code": "A1-2",
		"customer": map[string]any{"name": "Jane", "email": "jane@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		State   service.BookingState `json:"state"`
		Booking model.Booking        `json:"booking"`
	}](t, rec)
	assert.Equal(t, service.StateRecorded, created.State)
	assert.Equal(t, int64(1500), created.Booking.TotalPriceCents)
	assert.Equal(t, model.BookingConfirmed, created.Booking.Status)

	t.Run("taken seat is a conflict", func(t *testing.T) {
		rec := env.do(http.MethodPost, base+"/bookings", staff, map[string]any{
			"section": "A", "row": 1, "seat_code": "A1-2", "customer": map[string]any{"name": "Bob"},
		})
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})
	t.Run("unknown seat is not found", func(t *testing.T) {
		rec := env.do(http.MethodPost, base+"/bookings", staff, map[string]any{
			"seat_code": "Z9-9", "customer": map[string]any{"name": "Bob"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})
	t.Run("seat outside the chosen row is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, base+"/bookings", staff, map[string]any{
			"section": "A", "row": 1, "seat_code": "A2-1", "customer": map[string]any{"name": "Bob"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
	t.Run("missing customer name fails validation", func(t *testing.T) {
		rec := env.do(http.MethodPost, base+"/bookings", staff, map[string]any{"seat_code": "A1-1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
	t.Run("free override by seat code", func(t *testing.T) {
		rec := env.do(http.MethodPost, base+"/bookings", staff, map[string]any{
			"seat_code": "A2-3", "price_cents": 0, "customer": map[string]any{"name": "Comp"},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		body := decode[map[string]json.RawMessage](t, rec)
		var b model.Booking
		require.NoError(t, json.Unmarshal(body["booking"], &b))
		assert.Zero(t, b.TotalPriceCents)
	})

	stats := decode[model.TheaterStats](t, env.do(http.MethodGet, base+"/stats", staff, nil))
	assert.Equal(t, 6, stats.TotalSeats)
	assert.Equal(t, 2, stats.Booked)
	assert.Equal(t, int64(1500), stats.RevenueCents)

	booked := decode[[]model.BookedSeat](t, env.do(http.MethodGet, base+"/seats/booked", staff, nil))
	assert.Len(t, booked, 2)

	cancelPath := fmt.Sprintf("%s/bookings/%d/cancel", base, created.Booking.ID)
	rec = env.do(http.MethodPost, cancelPath, staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPost, cancelPath, staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "second cancel finds nothing to cancel")

	seat := decode[model.Seat](t, env.do(http.MethodGet, base+"/seats/A1-2", staff, nil))
	assert.Equal(t, model.SeatAvailable, seat.Status)

	cancelled := decode[[]model.Booking](t, env.do(http.MethodGet, base+"/bookings?status=cancelled", staff, nil))
	require.Len(t, cancelled, 1)
	assert.Equal(t, created.Booking.ID, cancelled[0].ID)

	assert.Len(t, env.pub.OfType(events.BookingConfirmed), 2)
	assert.Len(t, env.pub.OfType(events.BookingCancelled), 1)
}

func TestBookingDisabledByConfig(t *testing.T) {
	env := newAPI(t)
	tid, _ := env.seed()
	base := fmt.Sprintf("/api/v1/theaters/%d", tid)

	rec := env.do(http.MethodPut, base+"/config/booking_enabled", env.admin, map[string]any{"value": "false"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, base+"/bookings", env.admin, map[string]any{
		"seat_code": "A1-1", "customer": map[string]any{"name": "Jane"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPut, base+"/config/booking_enabled", env.admin, map[string]any{"value": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSectionLayoutChangeOverHTTP(t *testing.T) {
	env := newAPI(t)
	tid, sid := env.seed()
	base := fmt.Sprintf("/api/v1/theaters/%d", tid)

	rec := env.do(http.MethodPost, base+"/bookings", env.admin, map[string]any{
		"seat_code": "A1-1", "customer": map[string]any{"name": "Jane"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodDelete, fmt.Sprintf("%s/sections/%d", base, sid), env.admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "section with bookings cannot be deleted")

	sec := decode[model.Section](t, env.do(http.MethodGet, fmt.Sprintf("%s/sections/%d", base, sid), env.admin, nil))
	rec = env.do(http.MethodPut, fmt.Sprintf("%s/sections/%d", base, sid), env.admin, map[string]any{
		"name": "A", "seat_type_id": sec.SeatTypeID, "rows": 3, "seats_per_row": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	gen := decode[service.GenerationResult](t, rec)
	assert.True(t, gen.Regenerated)
	assert.Equal(t, 1, gen.DiscardedBookings)
	assert.Equal(t, 6, gen.Seats)

	row := decode[[]model.Seat](t, env.do(http.MethodGet, fmt.Sprintf("%s/sections/%d/rows/3/seats", base, sid), env.admin, nil))
	assert.Len(t, row, 2)
	rec = env.do(http.MethodGet, fmt.Sprintf("%s/sections/%d/rows/4/seats", base, sid), env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportUpload(t *testing.T) {
	env := newAPI(t)
	tid, _ := env.seed()
	path := fmt.Sprintf("/api/v1/theaters/%d/imports/bookings", tid)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "walkins.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("seatCode,customerName,customerEmail,customerPhone\n" +
		"A1-1,Ann,ann@example.com,555-0100\n" +
		"A1-2,Ben,ben@example.com,555-0101\n" +
		"A1-1,Cal,cal@example.com,555-0102\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, utils.RoleStaff, tid))
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[importer.Result](t, rec)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Errors)
	assert.NotEmpty(t, res.BatchID)
	assert.Len(t, env.pub.OfType(events.ImportCompleted), 1)
}

func TestImportRejectsUnsupportedUpload(t *testing.T) {
	env := newAPI(t)
	tid, _ := env.seed()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "walkins.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("binary"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/theaters/%d/imports/bookings", tid), &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.admin)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
