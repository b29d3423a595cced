package reservations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/dwax1324/roomescape-payment/internal/payment"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "handler-test-secret"

func init() { gin.SetMode(gin.TestMode) }

type fakeService struct {
	addCalls    int
	added       reservation.ReservationRequest
	addErr      error
	removed     []int64
	removeErr   error
	statusCalls []string
	timesDate   time.Time
	timesTheme  int64
	search      reservation.ReservationSearchRequest
}

func (f *fakeService) FindAll(context.Context) (reservation.ReservationsResponse, error) {
	return reservation.ReservationsResponse{Reservations: []reservation.ReservationResponse{{ID: 1}}}, nil
}

func (f *fakeService) FindWaitingWithRank(_ context.Context, memberID int64) (reservation.WaitingWithRanksResponse, error) {
	return reservation.WaitingWithRanksResponse{Reservations: []reservation.WaitingWithRankResponse{
		{ID: memberID, Status: reservation.StatusWaiting, Rank: 2},
	}}, nil
}

func (f *fakeService) FindTimeInfos(_ context.Context, date time.Time, themeID int64) (reservation.ReservationTimeInfosResponse, error) {
	f.timesDate, f.timesTheme = date, themeID
	return reservation.ReservationTimeInfosResponse{Times: []reservation.ReservationTimeInfoResponse{}}, nil
}

func (f *fakeService) FindFiltered(_ context.Context, req reservation.ReservationSearchRequest) (reservation.ReservationsResponse, error) {
	f.search = req
	if _, err := req.Filter(); err != nil {
		return reservation.ReservationsResponse{}, err
	}
	return reservation.ReservationsResponse{Reservations: []reservation.ReservationResponse{}}, nil
}

func (f *fakeService) Add(_ context.Context, req reservation.ReservationRequest, memberID int64) (reservation.ReservationResponse, error) {
	f.addCalls++
	f.added = req
	if f.addErr != nil {
		return reservation.ReservationResponse{}, f.addErr
	}
	return reservation.ReservationResponse{
		ID:     42,
		Member: reservation.MemberInfo{ID: memberID},
		Date:   req.Date,
		Status: reservation.StatusConfirmed,
	}, nil
}

func (f *fakeService) Remove(_ context.Context, id int64, _ reservation.Caller) error {
	f.removed = append(f.removed, id)
	return f.removeErr
}

func (f *fakeService) UpdateStatus(_ context.Context, _ reservation.Caller, id int64, status string) error {
	f.statusCalls = append(f.statusCalls, fmt.Sprintf("%d:%s", id, status))
	return nil
}

// gateway fakes the payment confirmation endpoint and counts its calls.
type gateway struct {
	*httptest.Server
	mu   sync.Mutex
	n    int
	body map[string]any
}

func (g *gateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

func (g *gateway) field(name string) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.body[name]
}

func newGateway(t *testing.T, status int) *gateway {
	t.Helper()
	g := &gateway{}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.n++
		_ = json.Unmarshal(raw, &g.body)
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"card rejected"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"DONE"}`))
	}))
	t.Cleanup(g.Close)
	return g
}

func newRouter(svc Service, payments PaymentConfirmer) *gin.Engine {
	h := NewHandler(svc, payments)
	r := gin.New()
	r.GET("/reservations/themes/:themeId/times", h.Times)

	authed := r.Group("/", middleware.JWTAuth(secret))
	authed.POST("/reservations", h.Create)
	authed.GET("/reservations-mine", h.Mine)
	authed.DELETE("/reservations/:id", h.Cancel)

	admin := authed.Group("/", middleware.RequireAdmin())
	admin.GET("/reservations", h.List)
	admin.GET("/reservations/search", h.Search)
	admin.DELETE("/reservations/:id/", h.UpdateStatus)
	return r
}

func bearer(t *testing.T, id middleware.Identity) string {
	t.Helper()
	tok, err := middleware.SignToken(secret, id, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) common.Envelope {
	t.Helper()
	var env common.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func validBody() map[string]any {
	return map[string]any{
		"date":       "2030-05-01",
		"themeId":    1,
		"timeId":     2,
		"paymentKey": "pk_1",
		"orderId":    "order-1",
		"amount":     1000,
	}
}

var member = middleware.Identity{MemberID: 5, Name: "kim"}
var admin = middleware.Identity{MemberID: 1, Name: "admin", Admin: true}

func TestCreateConfirmsPaymentThenPersists(t *testing.T) {
	gw := newGateway(t, http.StatusOK)
	svc := &fakeService{}
	r := newRouter(svc, payment.NewClient(gw.URL, "test_sk", time.Second, nil))

	w := do(t, r, http.MethodPost, "/reservations", bearer(t, member), validBody())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/reservations/42", w.Header().Get("Location"))
	assert.Equal(t, 1, gw.calls())
	assert.Equal(t, "order-1", gw.field("orderId"))
	assert.Equal(t, 1, svc.addCalls)
	assert.Equal(t, "2030-05-01", svc.added.Date)
	assert.True(t, decode(t, w).Success)
}

func TestCreateStopsWhenPaymentDeclined(t *testing.T) {
	gw := newGateway(t, http.StatusBadRequest)
	svc := &fakeService{}
	r := newRouter(svc, payment.NewClient(gw.URL, "test_sk", time.Second, nil))

	w := do(t, r, http.MethodPost, "/reservations", bearer(t, member), validBody())

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Equal(t, 0, svc.addCalls)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "payment_declined", env.Error)
}

func TestCreateValidatesBeforePayment(t *testing.T) {
	gw := newGateway(t, http.StatusOK)
	svc := &fakeService{}
	r := newRouter(svc, payment.NewClient(gw.URL, "test_sk", time.Second, nil))

	for _, field := range []string{"date", "themeId", "timeId", "paymentKey", "orderId", "amount"} {
		t.Run(field, func(t *testing.T) {
			body := validBody()
			delete(body, field)
			w := do(t, r, http.MethodPost, "/reservations", bearer(t, member), body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w).Message, field)
		})
	}
	assert.Equal(t, 0, gw.calls())
	assert.Equal(t, 0, svc.addCalls)
}

func TestCreateRejectsMalformedDate(t *testing.T) {
	gw := newGateway(t, http.StatusOK)
	r := newRouter(&fakeService{}, payment.NewClient(gw.URL, "test_sk", time.Second, nil))

	body := validBody()
	body["date"] = "05/01/2030"
	w := do(t, r, http.MethodPost, "/reservations", bearer(t, member), body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, gw.calls())
}

func TestCreateRequiresToken(t *testing.T) {
	gw := newGateway(t, http.StatusOK)
	r := newRouter(&fakeService{}, payment.NewClient(gw.URL, "test_sk", time.Second, nil))

	w := do(t, r, http.MethodPost, "/reservations", "", validBody())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, gw.calls())
}

func TestCreateSurfacesConflictAfterPayment(t *testing.T) {
	gw := newGateway(t, http.StatusOK)
	svc := &fakeService{addErr: fmt.Errorf("%w: already reserved", reservation.ErrConflict)}
	r := newRouter(svc, payment.NewClient(gw.URL, "test_sk", time.Second, nil))

	w := do(t, r, http.MethodPost, "/reservations", bearer(t, member), validBody())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, gw.calls())
	assert.Empty(t, w.Header().Get("Location"))
}

func TestTimesIsPublicAndParsesInputs(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, nil)

	w := do(t, r, http.MethodGet, "/reservations/themes/3/times?date=2030-05-01", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), svc.timesTheme)
	assert.Equal(t, "2030-05-01", svc.timesDate.Format(reservation.DateLayout))

	w = do(t, r, http.MethodGet, "/reservations/themes/3/times", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/reservations/themes/abc/times?date=2030-05-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/reservations/themes/3/times?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListIsAdminOnly(t *testing.T) {
	r := newRouter(&fakeService{}, nil)

	w := do(t, r, http.MethodGet, "/reservations", bearer(t, member), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/reservations", bearer(t, admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMineUsesCallerIdentity(t *testing.T) {
	r := newRouter(&fakeService{}, nil)

	w := do(t, r, http.MethodGet, "/reservations-mine", bearer(t, member), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data reservation.WaitingWithRanksResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Reservations, 1)
	assert.Equal(t, member.MemberID, body.Data.Reservations[0].ID)
	assert.Equal(t, 2, body.Data.Reservations[0].Rank)
}

func TestSearchBindsQuery(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, nil)

	w := do(t, r, http.MethodGet, "/reservations/search?themeId=2&memberId=5&dateFrom=2030-01-01&dateTo=2030-01-31&waiting=true", bearer(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.search.ThemeID)
	assert.Equal(t, int64(2), *svc.search.ThemeID)
	require.NotNil(t, svc.search.Waiting)
	assert.True(t, *svc.search.Waiting)

	w = do(t, r, http.MethodGet, "/reservations/search?dateFrom=2030-02-01&dateTo=2030-01-01", bearer(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/reservations/search?dateFrom=yesterday", bearer(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAndStatusRoutesAreDistinct(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, nil)

	w := do(t, r, http.MethodDelete, "/reservations/9?status=CONFIRMED", bearer(t, member), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []int64{9}, svc.removed)
	assert.Empty(t, svc.statusCalls)

	w = do(t, r, http.MethodDelete, "/reservations/9/?status=CONFIRMED", bearer(t, member), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodDelete, "/reservations/9/?status=CONFIRMED", bearer(t, admin), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"9:CONFIRMED"}, svc.statusCalls)

	w = do(t, r, http.MethodDelete, "/reservations/9/", bearer(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelMapsServiceErrors(t *testing.T) {
	svc := &fakeService{removeErr: fmt.Errorf("%w: not yours", reservation.ErrForbidden)}
	r := newRouter(svc, nil)

	w := do(t, r, http.MethodDelete, "/reservations/9", bearer(t, member), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.removeErr = fmt.Errorf("reservation 9: %w", reservation.ErrNotFound)
	w = do(t, r, http.MethodDelete, "/reservations/9", bearer(t, member), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/reservations/0", bearer(t, member), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
