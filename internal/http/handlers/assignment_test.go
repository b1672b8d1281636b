package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

func TestAssignmentHandler_Assign(t *testing.T) {
	t.Parallel()

	parcelID, driverID := uuid.New(), uuid.New()
	busy := uuid.New()
	uc := stubAssignment(func(p, d uuid.UUID) (domain.AssignResult, error) {
		if d == busy {
			return domain.AssignResult{}, fmt.Errorf("%w: 5 active", apperr.ErrDriverOverloaded)
		}
		return domain.AssignResult{
			ParcelID:     p,
			TrackingCode: "TRK1",
			DriverID:     d,
			DriverName:   "Joe",
			Status:       domain.StatusAssigned,
		}, nil
	})
	h := NewAssignmentHandler(logx.Nop(), uc)

	rr := httptest.NewRecorder()
	h.Assign(rr, newRequest(http.MethodPost, "/parcels/x/assign-driver/y", "", nil,
		map[string]string{"id": parcelID.String(), "driverId": driverID.String()}))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, fmt.Sprintf(
		`{"parcel_id":%q,"tracking_code":"TRK1","driver_id":%q,"driver_name":"Joe","status":"assigned"}`,
		parcelID, driverID), rr.Body.String())

	rr = httptest.NewRecorder()
	h.Assign(rr, newRequest(http.MethodPost, "/parcels/x/assign-driver/y", "", nil,
		map[string]string{"id": parcelID.String(), "driverId": busy.String()}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"DriverOverloaded"`)

	rr = httptest.NewRecorder()
	h.Assign(rr, newRequest(http.MethodPost, "/parcels/x/assign-driver/y", "", nil,
		map[string]string{"id": parcelID.String(), "driverId": "nope"}))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrackingHandler_Track(t *testing.T) {
	t.Parallel()

	uc := stubTracking(func(code string) (domain.TrackingView, error) {
		if code != "TRK1" {
			return domain.TrackingView{}, apperr.ErrNotFound
		}
		return domain.TrackingView{TrackingCode: code, Status: domain.StatusPending, AssignedDriver: domain.NotAssigned}, nil
	})
	h := NewTrackingHandler(logx.Nop(), uc)

	rr := httptest.NewRecorder()
	h.Track(rr, newRequest(http.MethodGet, "/parcels/TRK1/track", "", nil, map[string]string{"id": "TRK1"}))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"tracking_code":"TRK1","status":"pending","assigned_driver":"Not Assigned"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Track(rr, newRequest(http.MethodGet, "/parcels/TRK2/track", "", nil, map[string]string{"id": "TRK2"}))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
