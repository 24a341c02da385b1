package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/lock"
	"github.com/alexanderramin/siteledger/internal/repository"
	"github.com/alexanderramin/siteledger/internal/rollup"
	"github.com/alexanderramin/siteledger/internal/service"
	"github.com/alexanderramin/siteledger/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockProjects stubs the calls the handlers make; the embedded interface
// panics on anything else.
type mockProjects struct {
	mock.Mock
	service.ProjectService
}

func (m *mockProjects) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *mockProjects) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	args := m.Called(ctx, includeArchived)
	return args.Get(0).([]*domain.Project), args.Error(1)
}

func (m *mockProjects) Costs(ctx context.Context, id string) (*contract.CostsView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.CostsView), args.Error(1)
}

func (m *mockProjects) Recompute(ctx context.Context, id string) (*contract.CostsView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.CostsView), args.Error(1)
}

type mockDashboard struct {
	mock.Mock
}

func (m *mockDashboard) Project(ctx context.Context, id string) (*contract.ProjectDashboard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.ProjectDashboard), args.Error(1)
}

func (m *mockDashboard) Overview(ctx context.Context) (*contract.Overview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Overview), args.Error(1)
}

func unmarshalResponse[T any]() func([]byte) (any, error) {
	return func(data []byte) (any, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	}
}

func TestWebAPI_Endpoints(t *testing.T) {
	villa := &domain.Project{ID: "p1", Code: "VILLA01", Name: "Villa", Status: domain.ProjectActive,
		TotalCost: 2150, ExpectedTotalCost: 2500, MaterialCost: 350}
	costs := &contract.CostsView{ProjectID: "p1", Code: "VILLA01", TotalCost: 2150}

	tests := []struct {
		name           string
		path           string
		method         string
		setupMocks     func(*mockProjects, *mockDashboard)
		expectedStatus int
		expected       any
		parseResponse  func([]byte) (any, error)
	}{
		{
			name: "ListProjects",
			path: "/api/v1/projects",
			setupMocks: func(p *mockProjects, _ *mockDashboard) {
				p.On("List", mock.Anything, false).Return([]*domain.Project{villa}, nil)
			},
			expectedStatus: http.StatusOK,
			expected: []contract.CostsView{{
				ProjectID: "p1", Code: "VILLA01", Name: "Villa", Status: "active",
				MaterialCost: 350, TotalCost: 2150, ExpectedTotalCost: 2500, VariancePercent: 14,
			}},
			parseResponse: unmarshalResponse[[]contract.CostsView](),
		},
		{
			name: "ListProjectsIncludingArchived",
			path: "/api/v1/projects?all=true",
			setupMocks: func(p *mockProjects, _ *mockDashboard) {
				p.On("List", mock.Anything, true).Return([]*domain.Project{}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       []contract.CostsView{},
			parseResponse:  unmarshalResponse[[]contract.CostsView](),
		},
		{
			name: "ProjectCosts",
			path: "/api/v1/projects/VILLA01/costs",
			setupMocks: func(p *mockProjects, _ *mockDashboard) {
				p.On("Resolve", mock.Anything, "VILLA01").Return(villa, nil)
				p.On("Costs", mock.Anything, "p1").Return(costs, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       *costs,
			parseResponse:  unmarshalResponse[contract.CostsView](),
		},
		{
			name: "ProjectNotFound",
			path: "/api/v1/projects/NOPE01/costs",
			setupMocks: func(p *mockProjects, _ *mockDashboard) {
				p.On("Resolve", mock.Anything, "NOPE01").
					Return(nil, fmt.Errorf("project %q: %w", "NOPE01", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expected:       contract.APIError{Code: contract.ErrCodeNotFound, Message: `project "NOPE01": not found`},
			parseResponse:  unmarshalResponse[contract.APIError](),
		},
		{
			name:   "RecomputeLockedProject",
			path:   "/api/v1/projects/VILLA01/recompute",
			method: http.MethodPost,
			setupMocks: func(p *mockProjects, _ *mockDashboard) {
				p.On("Resolve", mock.Anything, "VILLA01").Return(villa, nil)
				p.On("Recompute", mock.Anything, "p1").
					Return(nil, fmt.Errorf("%w: VILLA01 is archived", domain.ErrProjectLocked))
			},
			expectedStatus: http.StatusLocked,
			expected:       contract.APIError{Code: contract.ErrCodeLocked, Message: "project is locked: VILLA01 is archived"},
			parseResponse:  unmarshalResponse[contract.APIError](),
		},
		{
			name: "DashboardInternalErrorIsHidden",
			path: "/api/v1/projects/VILLA01/dashboard",
			setupMocks: func(p *mockProjects, d *mockDashboard) {
				p.On("Resolve", mock.Anything, "VILLA01").Return(villa, nil)
				d.On("Project", mock.Anything, "p1").Return(nil, errors.New("disk on fire"))
			},
			expectedStatus: http.StatusInternalServerError,
			expected:       contract.APIError{Code: contract.ErrCodeInternal, Message: "internal error"},
			parseResponse:  unmarshalResponse[contract.APIError](),
		},
		{
			name: "Overview",
			path: "/api/v1/overview",
			setupMocks: func(_ *mockProjects, d *mockDashboard) {
				d.On("Overview", mock.Anything).Return(&contract.Overview{ProjectCount: 2, TotalCost: 99}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       contract.Overview{ProjectCount: 2, TotalCost: 99},
			parseResponse:  unmarshalResponse[contract.Overview](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects := new(mockProjects)
			dashboard := new(mockDashboard)
			tt.setupMocks(projects, dashboard)

			router := ConfigureRouter(Config{Dependencies: Dependencies{
				Projects:  projects,
				Dashboard: dashboard,
				Logger:    zerolog.New(zerolog.NewTestWriter(t)),
			}})
			testServer := httptest.NewServer(router)
			defer testServer.Close()

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, err := http.NewRequest(method, testServer.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			got, err := tt.parseResponse(body)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			projects.AssertExpectations(t)
			dashboard.AssertExpectations(t)
		})
	}
}

// liveAPI serves the real services over an in-memory database.
type liveAPI struct {
	server   *httptest.Server
	projects service.ProjectService
	boq      service.BOQService
	tasks    service.TaskService
}

func newLiveAPI(t *testing.T) *liveAPI {
	t.Helper()
	uow := testutil.NewTestUoW(testutil.NewTestDB(t))
	locker := lock.New()
	api := &liveAPI{
		projects: service.NewProjectService(uow, locker),
		boq:      service.NewBOQService(uow, locker),
		tasks:    service.NewTaskService(uow, locker),
	}
	router := ConfigureRouter(Config{Dependencies: Dependencies{
		Projects:  api.projects,
		BOQ:       api.boq,
		Tasks:     api.tasks,
		Dashboard: service.NewDashboardService(uow),
		Logger:    zerolog.New(zerolog.NewTestWriter(t)),
	}})
	api.server = httptest.NewServer(router)
	t.Cleanup(api.server.Close)
	return api
}

func (a *liveAPI) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestWebAPI_BOQFlow(t *testing.T) {
	api := newLiveAPI(t)
	ctx := context.Background()

	p := testutil.NewTestProject("Villa")
	require.NoError(t, api.projects.Create(ctx, p))
	root := testutil.NewTestBOQItem(p.ID, "Structure")
	require.NoError(t, api.boq.Add(ctx, root))
	concrete := testutil.NewTestBOQItem(p.ID, "Concrete", testutil.WithBOQLine(10, 10), testutil.WithBOQParent(root.ID))
	require.NoError(t, api.boq.Add(ctx, concrete))
	rebar := testutil.NewTestBOQItem(p.ID, "Rebar", testutil.WithBOQLine(5, 50), testutil.WithBOQParent(root.ID))
	require.NoError(t, api.boq.Add(ctx, rebar))

	status, body := api.do(t, http.MethodGet, "/api/v1/projects/"+p.Code+"/boq?root="+root.ID, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var snap contract.SnapshotView
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 350.0, snap.Values[root.ID])
	assert.Len(t, snap.Values, 3)

	qty, price := 20.0, 10.0
	status, body = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/boq/"+concrete.ID+"/line",
		contract.SetLineRequest{Quantity: &qty, UnitPrice: &price})
	require.Equal(t, http.StatusOK, status, string(body))
	var costs contract.CostsView
	require.NoError(t, json.Unmarshal(body, &costs))
	assert.Equal(t, 450.0, costs.MaterialCost)

	// Moving the root under its own child is a cycle.
	status, body = api.do(t, http.MethodPost, "/api/v1/projects/"+p.Code+"/boq/"+root.ID+"/parent",
		contract.SetParentRequest{Parent: concrete.ID})
	assert.Equal(t, http.StatusConflict, status)
	var apiErr contract.APIError
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, contract.ErrCodeCycle, apiErr.Code)

	status, _ = api.do(t, http.MethodPost, "/api/v1/projects/"+p.Code+"/boq/"+rebar.ID+"/parent",
		contract.SetParentRequest{})
	assert.Equal(t, http.StatusOK, status)

	status, body = api.do(t, http.MethodGet, "/api/v1/projects/"+p.Code+"/boq/items", nil)
	require.Equal(t, http.StatusOK, status)
	var items []contract.BOQItemView
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 3)
	assert.Equal(t, 200.0, items[0].TotalPrice)
	assert.Empty(t, items[2].ParentID)

	negative := -1.0
	status, _ = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/boq/"+concrete.ID+"/line",
		contract.SetLineRequest{Quantity: &negative, UnitPrice: &price})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/boq/"+concrete.ID+"/line",
		map[string]any{"qty": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/boq/missing/line",
		contract.SetLineRequest{Quantity: &qty, UnitPrice: &price})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWebAPI_OverflowingLineRejected(t *testing.T) {
	api := newLiveAPI(t)
	ctx := context.Background()

	p := testutil.NewTestProject("Villa", testutil.WithExpected(1000, 0, 0, 0))
	require.NoError(t, api.projects.Create(ctx, p))
	slab := testutil.NewTestBOQItem(p.ID, "Slab", testutil.WithBOQLine(2, 50))
	require.NoError(t, api.boq.Add(ctx, slab))

	huge := 1e200
	status, body := api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/boq/"+slab.ID+"/line",
		contract.SetLineRequest{Quantity: &huge, UnitPrice: &huge})
	require.Equal(t, http.StatusBadRequest, status, string(body))
	var apiErr contract.APIError
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, contract.ErrCodeValidation, apiErr.Code)

	status, body = api.do(t, http.MethodGet, "/api/v1/projects/"+p.Code+"/dashboard", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = api.do(t, http.MethodGet, "/api/v1/projects/"+p.Code+"/costs", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var costs contract.CostsView
	require.NoError(t, json.Unmarshal(body, &costs))
	assert.Equal(t, 100.0, costs.MaterialCost)
}

func TestWriteJSON_EncodeFailureIsInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeJSON(rec, req, http.StatusOK, map[string]float64{"total": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var apiErr contract.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, contract.ErrCodeInternal, apiErr.Code)
}

func TestWebAPI_TaskFlow(t *testing.T) {
	api := newLiveAPI(t)
	ctx := context.Background()

	p := testutil.NewTestProject("Villa")
	require.NoError(t, api.projects.Create(ctx, p))
	build := testutil.NewTestTask(p.ID, "Build")
	require.NoError(t, api.tasks.Add(ctx, build))
	for i, pct := range []float64{100, 80, 20} {
		child := testutil.NewTestTask(p.ID, fmt.Sprintf("Step %d", i), testutil.WithLeafProgress(pct), testutil.WithTaskParent(build.ID))
		require.NoError(t, api.tasks.Add(ctx, child))
	}

	status, body := api.do(t, http.MethodGet, "/api/v1/projects/"+p.ID+"/tasks", nil)
	require.Equal(t, http.StatusOK, status)
	var snap contract.SnapshotView
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.InDelta(t, 200.0/3, snap.Values[build.ID], 1e-9)

	// Seq 2 is the first child.
	progress := 40.0
	status, body = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/tasks/2/progress",
		contract.SetProgressRequest{Progress: &progress})
	require.Equal(t, http.StatusOK, status, string(body))
	var costs contract.CostsView
	require.NoError(t, json.Unmarshal(body, &costs))
	assert.InDelta(t, 140.0/3, costs.ProgressPercent, 1e-9)

	tooMuch := 150.0
	status, _ = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/tasks/2/progress",
		contract.SetProgressRequest{Progress: &tooMuch})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPut, "/api/v1/projects/"+p.Code+"/tasks/2/progress", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   contract.ErrorCode
	}{
		{&rollup.CycleError{Parent: "a", Child: "b"}, http.StatusConflict, contract.ErrCodeCycle},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidTransition), http.StatusConflict, contract.ErrCodeInvalidTransition},
		{domain.ErrProjectLocked, http.StatusLocked, contract.ErrCodeLocked},
		{repository.ErrNotFound, http.StatusNotFound, contract.ErrCodeNotFound},
		{domain.Invalidf("name is required"), http.StatusBadRequest, contract.ErrCodeValidation},
		{fmt.Errorf("%w: 3 errors", service.ErrInvalidImport), http.StatusBadRequest, contract.ErrCodeValidation},
		{errors.New("boom"), http.StatusInternalServerError, contract.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
