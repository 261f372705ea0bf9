package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVerifyService is a mock implementation of the VerifyService interface
type MockVerifyService struct {
	mock.Mock
}

func (m *MockVerifyService) VerifyLocation(ctx context.Context, userID string, coords models.Coordinates, address string) (models.VerificationResult, error) {
	args := m.Called(ctx, userID, coords, address)
	return args.Get(0).(models.VerificationResult), args.Error(1)
}

func TestVerifyHandler_Verify(t *testing.T) {
	gin.SetMode(gin.TestMode)

	center := models.Coordinates{Latitude: 6.605, Longitude: 3.355}
	match := models.NeighborhoodMatch{
		Neighborhood: models.Neighborhood{ID: "ikeja-gra", Name: "Ikeja GRA", Type: models.NeighborhoodEstate, Center: center, RadiusKm: 1},
		Confidence:   1,
	}

	tests := []struct {
		name           string
		body           string
		expectCall     bool
		mockResult     models.VerificationResult
		mockError      error
		expectedStatus int
		expectedState  models.VerificationStatus
	}{
		{
			name:           "malformed body",
			body:           `{"user_id":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing longitude",
			body:           `{"user_id":"u1","latitude":6.605}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "verified",
			body:           `{"user_id":"u1","latitude":6.605,"longitude":3.355,"address":"Isaac John St"}`,
			expectCall:     true,
			mockResult:     models.Verified(match),
			expectedStatus: http.StatusOK,
			expectedState:  models.StatusVerified,
		},
		{
			name:           "rejected is still ok",
			body:           `{"user_id":"u1","latitude":6.605,"longitude":3.355,"address":"Isaac John St"}`,
			expectCall:     true,
			mockResult:     models.Rejected(apperr.OutOfRegion),
			expectedStatus: http.StatusOK,
			expectedState:  models.StatusRejected,
		},
		{
			name:           "repository failure",
			body:           `{"user_id":"u1","latitude":6.605,"longitude":3.355,"address":"Isaac John St"}`,
			expectCall:     true,
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockVerifyService)
			handler := NewVerifyHandler(mockSvc)

			if tt.expectCall {
				mockSvc.On("VerifyLocation", mock.Anything, "u1", center, "Isaac John St").Return(tt.mockResult, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/locations/verify", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			handler.Verify(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got models.VerificationResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.expectedState, got.Status)
				assert.Equal(t, tt.mockResult, got)
			}

			mockSvc.AssertExpectations(t)
		})
	}
}
