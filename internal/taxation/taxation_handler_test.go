package taxation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-paytax/internal/salary"
	"go-paytax/internal/shared/fiscal"
	taxationerrors "go-paytax/internal/taxation/errors"
	"go-paytax/internal/taxation/regime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService lets each test wire just the methods it exercises.
type fakeService struct {
	upsert         func(ctx context.Context, employeeID, taxYear string, req UpsertTaxationRequest) (TaxationResponse, error)
	get            func(ctx context.Context, employeeID, taxYear string) (TaxationResponse, error)
	compute        func(ctx context.Context, employeeID, taxYear string, req ComputeRequest) (TaxationResponse, error)
	selectRegime   func(ctx context.Context, employeeID, taxYear string, req SelectRegimeRequest) (TaxationResponse, error)
	recordPayout   func(ctx context.Context, employeeID, taxYear string, req RecordPayoutRequest) (TaxationResponse, error)
	bulkCompute    func(ctx context.Context, req BulkComputeRequest) (BulkComputeResponse, error)
	updatePayments func(ctx context.Context, employeeID, taxYear string, req UpdatePaymentsRequest) (TaxationResponse, error)
}

func (f *fakeService) Upsert(ctx context.Context, employeeID, taxYear string, req UpsertTaxationRequest) (TaxationResponse, error) {
	return f.upsert(ctx, employeeID, taxYear, req)
}

func (f *fakeService) Get(ctx context.Context, employeeID, taxYear string) (TaxationResponse, error) {
	return f.get(ctx, employeeID, taxYear)
}

func (f *fakeService) Compute(ctx context.Context, employeeID, taxYear string, req ComputeRequest) (TaxationResponse, error) {
	return f.compute(ctx, employeeID, taxYear, req)
}

func (f *fakeService) ComputeComponent(context.Context, string, string, ComputeComponentRequest) (ComponentResponse, error) {
	return ComponentResponse{}, nil
}

func (f *fakeService) Compare(context.Context, string, string) (regime.Comparison, error) {
	return regime.Comparison{}, nil
}

func (f *fakeService) SelectRegime(ctx context.Context, employeeID, taxYear string, req SelectRegimeRequest) (TaxationResponse, error) {
	return f.selectRegime(ctx, employeeID, taxYear, req)
}

func (f *fakeService) Finalize(context.Context, string, string) (TaxationResponse, error) {
	return TaxationResponse{}, nil
}

func (f *fakeService) UpdatePayments(ctx context.Context, employeeID, taxYear string, req UpdatePaymentsRequest) (TaxationResponse, error) {
	return f.updatePayments(ctx, employeeID, taxYear, req)
}

func (f *fakeService) RecordPayout(ctx context.Context, employeeID, taxYear string, req RecordPayoutRequest) (TaxationResponse, error) {
	return f.recordPayout(ctx, employeeID, taxYear, req)
}

func (f *fakeService) BulkCompute(ctx context.Context, req BulkComputeRequest) (BulkComputeResponse, error) {
	return f.bulkCompute(ctx, req)
}

func (f *fakeService) ApplyRevision(context.Context, string, fiscal.Year, salary.SalaryComponents, float64) error {
	return nil
}

func (f *fakeService) Recalculate(context.Context, string, fiscal.Year) error {
	return nil
}

func setupHandlerTest(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, zap.NewNop())

	r := gin.New()
	r.PUT("/taxation/:employee_id/:tax_year", h.Upsert)
	r.GET("/taxation/:employee_id/:tax_year", h.Get)
	r.POST("/taxation/:employee_id/:tax_year/compute", h.Compute)
	r.POST("/taxation/:employee_id/:tax_year/regime", h.SelectRegime)
	r.POST("/taxation/:employee_id/:tax_year/payout", h.RecordPayout)
	r.PATCH("/taxation/:employee_id/:tax_year/payments", h.UpdatePayments)
	r.POST("/taxation/bulk-compute", h.BulkCompute)
	return r
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandlerGet(t *testing.T) {
	empID := uuid.NewString()

	t.Run("returns the record", func(t *testing.T) {
		svc := &fakeService{
			get: func(_ context.Context, employeeID, taxYear string) (TaxationResponse, error) {
				assert.Equal(t, empID, employeeID)
				assert.Equal(t, "2024-25", taxYear)
				return TaxationResponse{EmployeeID: employeeID, TaxYear: taxYear}, nil
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodGet, "/taxation/"+empID+"/2024-25", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope(t, w)
		assert.Equal(t, true, env["ok"])
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		svc := &fakeService{
			get: func(context.Context, string, string) (TaxationResponse, error) {
				return TaxationResponse{}, taxationerrors.ErrRecordNotFound
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodGet, "/taxation/"+empID+"/2024-25", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		env := decodeEnvelope(t, w)
		assert.Equal(t, false, env["ok"])
	})
}

func TestHandlerCompute(t *testing.T) {
	empID := uuid.NewString()

	t.Run("empty body computes under the stored regime", func(t *testing.T) {
		svc := &fakeService{
			compute: func(_ context.Context, _, _ string, req ComputeRequest) (TaxationResponse, error) {
				assert.Empty(t, req.Regime)
				return TaxationResponse{Regime: "old"}, nil
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodPost, "/taxation/"+empID+"/2024-25/compute", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("body selects the regime", func(t *testing.T) {
		svc := &fakeService{
			compute: func(_ context.Context, _, _ string, req ComputeRequest) (TaxationResponse, error) {
				assert.Equal(t, "new", req.Regime)
				return TaxationResponse{Regime: "new"}, nil
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodPost, "/taxation/"+empID+"/2024-25/compute", ComputeRequest{Regime: "new"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("regime conflict surfaces as 409", func(t *testing.T) {
		svc := &fakeService{
			compute: func(context.Context, string, string, ComputeRequest) (TaxationResponse, error) {
				return TaxationResponse{}, taxationerrors.RegimeLocked("new", LockReasonPaidOut)
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodPost, "/taxation/"+empID+"/2024-25/compute", ComputeRequest{Regime: "old"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandlerSelectRegime(t *testing.T) {
	empID := uuid.NewString()

	t.Run("missing regime fails binding", func(t *testing.T) {
		svc := &fakeService{
			selectRegime: func(context.Context, string, string, SelectRegimeRequest) (TaxationResponse, error) {
				t.Fatal("service must not be called on a binding failure")
				return TaxationResponse{}, nil
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodPost, "/taxation/"+empID+"/2024-25/regime", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandlerRecordPayout(t *testing.T) {
	empID := uuid.NewString()

	svc := &fakeService{
		recordPayout: func(_ context.Context, _, _ string, req RecordPayoutRequest) (TaxationResponse, error) {
			assert.Equal(t, 5000.0, req.Amount)
			return TaxationResponse{RegimeState: string(RegimeLocked)}, nil
		},
	}
	r := setupHandlerTest(svc)

	w := performJSON(t, r, http.MethodPost, "/taxation/"+empID+"/2024-25/payout", RecordPayoutRequest{Amount: 5000})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerBulkCompute(t *testing.T) {
	t.Run("passes the request through", func(t *testing.T) {
		svc := &fakeService{
			bulkCompute: func(_ context.Context, req BulkComputeRequest) (BulkComputeResponse, error) {
				assert.Len(t, req.EmployeeIDs, 2)
				return BulkComputeResponse{Total: 2, Successful: 2}, nil
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodPost, "/taxation/bulk-compute", BulkComputeRequest{
			EmployeeIDs: []string{uuid.NewString(), uuid.NewString()},
			TaxYear:     "2024-25",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing employee ids fails binding", func(t *testing.T) {
		svc := &fakeService{
			bulkCompute: func(context.Context, BulkComputeRequest) (BulkComputeResponse, error) {
				t.Fatal("service must not be called on a binding failure")
				return BulkComputeResponse{}, nil
			},
		}
		r := setupHandlerTest(svc)

		w := performJSON(t, r, http.MethodPost, "/taxation/bulk-compute", map[string]any{"tax_year": "2024-25"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandlerUpdatePayments(t *testing.T) {
	empID := uuid.NewString()

	svc := &fakeService{
		updatePayments: func(_ context.Context, _, _ string, req UpdatePaymentsRequest) (TaxationResponse, error) {
			require.NotNil(t, req.TaxPaid)
			return TaxationResponse{TaxPaid: *req.TaxPaid}, nil
		},
	}
	r := setupHandlerTest(svc)

	paid := 42000.0
	w := performJSON(t, r, http.MethodPatch, "/taxation/"+empID+"/2024-25/payments", UpdatePaymentsRequest{TaxPaid: &paid})
	assert.Equal(t, http.StatusOK, w.Code)
}
