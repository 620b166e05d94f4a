package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
	logoutErr   error
	logoutJTI   string
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) CreateStaff(_ context.Context, _ *dto.CreateStaffRequest) (*dto.StaffResponse, error) {
	return nil, nil
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	bulkResult *dto.BulkResult
	bulkErr    error
	gotQuery   *dto.PeriodQuery
	gotReq     *dto.BulkAttendanceRequest
	completion *dto.CompletionResponse
	compErr    error
}

func (m *mockAttendanceService) BulkUpsert(_ context.Context, q *dto.PeriodQuery, req *dto.BulkAttendanceRequest) (*dto.BulkResult, error) {
	m.gotQuery, m.gotReq = q, req
	return m.bulkResult, m.bulkErr
}
func (m *mockAttendanceService) TodayByPeriod(_ context.Context) (dto.AttendanceByPeriod, error) {
	return dto.AttendanceByPeriod{1: {1: "자습중"}}, nil
}
func (m *mockAttendanceService) Completion(_ context.Context, _ int) (*dto.CompletionResponse, error) {
	return m.completion, m.compErr
}
func (m *mockAttendanceService) ConvertLate(_ context.Context, _ int) (int64, error) {
	return 0, nil
}

// ── Mock PhoneService ──

type mockPhoneService struct {
	gotReq *dto.BulkPhoneRequest
	err    error
}

func (m *mockPhoneService) BulkUpsert(_ context.Context, q *dto.PeriodQuery, req *dto.BulkPhoneRequest) (*dto.BulkResult, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.BulkResult{Period: q.Period, Saved: len(req.Submissions)}, nil
}
func (m *mockPhoneService) TodayByPeriod(_ context.Context) (dto.PhoneByPeriod, error) {
	return dto.PhoneByPeriod{}, nil
}

// ── Mock PatrolService ──

type mockPatrolService struct {
	startResult   *dto.StartPatrolResponse
	gotInspector  string
	current       *dto.PatrolResponse
	endErr        error
	forceResult   *dto.ForceEndResponse
	forceErr      error
	gotForceNotes string
	listErr       error
}

func (m *mockPatrolService) Start(_ context.Context, inspector string) (*dto.StartPatrolResponse, error) {
	m.gotInspector = inspector
	return m.startResult, nil
}
func (m *mockPatrolService) Current(_ context.Context) (*dto.PatrolResponse, error) {
	return m.current, nil
}
func (m *mockPatrolService) End(_ context.Context, id int64, _ *dto.EndPatrolRequest) (*dto.EndPatrolResponse, error) {
	if m.endErr != nil {
		return nil, m.endErr
	}
	return &dto.EndPatrolResponse{Patrol: dto.PatrolResponse{ID: id}, DurationSeconds: 60}, nil
}
func (m *mockPatrolService) ForceEnd(_ context.Context, _ int64, notes string) (*dto.ForceEndResponse, error) {
	m.gotForceNotes = notes
	return m.forceResult, m.forceErr
}
func (m *mockPatrolService) List(_ context.Context, _ *dto.PatrolListRequest) ([]dto.PatrolSummary, error) {
	return []dto.PatrolSummary{}, m.listErr
}

// ── Mock AttitudeCheckService ──

type mockAttitudeCheckService struct {
	createErr error
	deleteErr error
}

func (m *mockAttitudeCheckService) Create(_ context.Context, req *dto.CreateAttitudeCheckRequest) (*dto.AttitudeCheckResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.AttitudeCheckResponse{ID: 1, StudentID: req.StudentID, PatrolID: req.PatrolID, Category: req.Category}, nil
}
func (m *mockAttitudeCheckService) ListByPatrol(_ context.Context, _ int64) ([]dto.AttitudeCheckResponse, error) {
	return nil, nil
}
func (m *mockAttitudeCheckService) Delete(_ context.Context, _ int64) error {
	return m.deleteErr
}
func (m *mockAttitudeCheckService) Today(_ context.Context) ([]dto.AttitudeCheckResponse, error) {
	return nil, nil
}

// ── Mock SchoolService ──

type mockSchoolService struct {
	err error
}

func (m *mockSchoolService) Today(_ context.Context) (*dto.SchoolAttendanceResponse, error) {
	return &dto.SchoolAttendanceResponse{Date: "2026-03-10", StudentIDs: []int64{3}}, nil
}
func (m *mockSchoolService) Mark(_ context.Context, _ int64) error   { return m.err }
func (m *mockSchoolService) Unmark(_ context.Context, _ int64) error { return m.err }

// ── Mock PeriodService ──

type mockPeriodService struct {
	gotDays int
}

func (m *mockPeriodService) Current() *dto.CurrentPeriodResponse {
	p := 2
	return &dto.CurrentPeriodResponse{CurrentPeriod: &p, IsClassTime: true}
}
func (m *mockPeriodService) Periods() []dto.PeriodWindowResponse {
	return []dto.PeriodWindowResponse{{Period: 1, Start: "08:00", End: "10:00"}}
}
func (m *mockPeriodService) Calendar(days int) ([]byte, string) {
	m.gotDays = days
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), "bell_20260310.ics"
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportDaily(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set("staff_id", int64(7))
	c.Set("staff_name", "김감독")
	c.Set("role", "supervisor")
	c.Set("token_id", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// withAuth 包装 handler，先注入认证上下文
func withAuth(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken: "test-access-token",
			ExpiresIn:   43200,
			Staff:       dto.StaffResponse{ID: 7, LoginID: "kim", Name: "김감독", Role: "supervisor"},
		},
	}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		LoginID:  "kim",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["access_token"] != "test-access-token" {
		t.Errorf("unexpected access_token: %v", data["access_token"])
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		LoginID:  "kim",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", withAuth(h.Logout))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected jti test-jti passed to service, got %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Attendance / Phone Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_BulkUpsert_Success(t *testing.T) {
	mock := &mockAttendanceService{bulkResult: &dto.BulkResult{Period: 2, Saved: 2}}
	h := NewAttendanceHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/attendance-records/period/bulk?period=2&force=true", jsonBody(dto.BulkAttendanceRequest{
		Records: []dto.AttendanceEntry{{StudentID: 1, Status: "자습중"}, {StudentID: 2, Status: "결석"}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/attendance-records/period/bulk", h.BulkUpsert)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotQuery == nil || mock.gotQuery.Period != 2 || !mock.gotQuery.Force {
		t.Errorf("query not bound: %+v", mock.gotQuery)
	}
	if len(mock.gotReq.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(mock.gotReq.Records))
	}
}

func TestAttendanceHandler_BulkUpsert_PeriodOutOfRange(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})

	for _, p := range []string{"0", "8", "x", ""} {
		_, _, w := setupGin()
		req := httptest.NewRequest("POST", "/bulk?period="+p, jsonBody(dto.BulkAttendanceRequest{
			Records: []dto.AttendanceEntry{{StudentID: 1, Status: "자습중"}},
		}))
		req.Header.Set("Content-Type", "application/json")

		r := gin.New()
		r.POST("/bulk", h.BulkUpsert)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("period=%q: expected 400, got %d", p, w.Code)
		}
	}
}

func TestAttendanceHandler_BulkUpsert_PeriodMismatch(t *testing.T) {
	cur := 3
	mock := &mockAttendanceService{bulkErr: &pkgerrors.PeriodMismatchError{
		Requested: 2, Current: &cur, Message: "현재는 3교시입니다.",
	}}
	h := NewAttendanceHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/bulk?period=2", jsonBody(dto.BulkAttendanceRequest{
		Records: []dto.AttendanceEntry{{StudentID: 1, Status: "자습중"}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/bulk", h.BulkUpsert)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14001 {
		t.Errorf("expected code 14001, got %d", resp.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["type"] != "period_mismatch" {
		t.Errorf("expected type period_mismatch, got %v", data["type"])
	}
	if data["current_period"].(float64) != 3 || data["requested_period"].(float64) != 2 {
		t.Errorf("unexpected mismatch data: %v", data)
	}
}

func TestAttendanceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"InvalidStatus", service.ErrInvalidStatus, 400, 14003},
		{"UnknownStudent", service.ErrUnknownStudent, 400, 14004},
		{"EmptyBatch", service.ErrEmptyBatch, 400, 10001},
		{"Duplicate", service.ErrDuplicateStudents, 400, 10001},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAttendanceHandler(&mockAttendanceService{bulkErr: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/bulk?period=1", jsonBody(dto.BulkAttendanceRequest{
				Records: []dto.AttendanceEntry{{StudentID: 1, Status: "자습중"}},
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.POST("/bulk", h.BulkUpsert)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAttendanceHandler_Completion(t *testing.T) {
	mock := &mockAttendanceService{completion: &dto.CompletionResponse{Period: 2, TotalStudents: 3, RecordedCount: 3, IsComplete: true}}
	h := NewAttendanceHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/check-completion/2", nil)

	r := gin.New()
	r.GET("/check-completion/:period", h.Completion)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["is_complete"] != true {
		t.Errorf("expected is_complete=true, got %v", data["is_complete"])
	}

	// 非数字教时
	_, _, w = setupGin()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/check-completion/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPhoneHandler_BulkUpsert_DefaultsCheckerToStaffName(t *testing.T) {
	mock := &mockPhoneService{}
	h := NewPhoneHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/bulk?period=1", jsonBody(dto.BulkPhoneRequest{
		Submissions: []dto.PhoneEntry{{StudentID: 1, IsSubmitted: true}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/bulk", withAuth(h.BulkUpsert))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotReq.CheckedBy != "김감독" {
		t.Errorf("expected checked_by from staff name, got %q", mock.gotReq.CheckedBy)
	}
}

// ═══════════════════════════════════════════════════════════
// PatrolHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPatrolHandler_Start_NewAndExisting(t *testing.T) {
	mock := &mockPatrolService{startResult: &dto.StartPatrolResponse{PatrolResponse: dto.PatrolResponse{ID: 5}}}
	h := NewPatrolHandler(mock)

	r := gin.New()
	r.POST("/patrols/start", withAuth(h.Start))

	_, _, w := setupGin()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/patrols/start", nil))
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201 for new patrol, got %d", w.Code)
	}
	if mock.gotInspector != "김감독" {
		t.Errorf("expected inspector from staff name, got %q", mock.gotInspector)
	}

	mock.startResult.Existing = true
	_, _, w = setupGin()
	req := httptest.NewRequest("POST", "/patrols/start", jsonBody(dto.StartPatrolRequest{InspectorName: "박선생"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for existing patrol, got %d", w.Code)
	}
	if mock.gotInspector != "박선생" {
		t.Errorf("expected explicit inspector, got %q", mock.gotInspector)
	}
}

func TestPatrolHandler_Current_None(t *testing.T) {
	h := NewPatrolHandler(&mockPatrolService{})

	_, _, w := setupGin()
	r := gin.New()
	r.GET("/patrols/current", h.Current)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/patrols/current", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Data != nil {
		t.Errorf("expected nil data, got %v", resp.Data)
	}
}

func TestPatrolHandler_End_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrPatrolNotFound, 404, 13001},
		{"AlreadyEnded", service.ErrPatrolAlreadyEnded, 400, 13002},
		{"InternalError", errors.New("db down"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPatrolHandler(&mockPatrolService{endErr: tt.err})

			_, _, w := setupGin()
			r := gin.New()
			r.POST("/patrols/:id/end", h.End)
			r.ServeHTTP(w, httptest.NewRequest("POST", "/patrols/9/end", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestPatrolHandler_End_BadID(t *testing.T) {
	h := NewPatrolHandler(&mockPatrolService{})

	_, _, w := setupGin()
	r := gin.New()
	r.POST("/patrols/:id/end", h.End)
	r.ServeHTTP(w, httptest.NewRequest("POST", "/patrols/abc/end", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPatrolHandler_ForceEnd_AlreadyEnded(t *testing.T) {
	mock := &mockPatrolService{forceResult: &dto.ForceEndResponse{
		Patrol:       dto.PatrolResponse{ID: 9, ForceEnded: false},
		AlreadyEnded: true,
	}}
	h := NewPatrolHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/patrols/9/force-end", strings.NewReader(`{"notes":"페이지 종료"}`))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/patrols/:id/force-end", h.ForceEnd)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	data := resp.Data.(map[string]interface{})
	if data["already_ended"] != true {
		t.Errorf("expected already_ended=true, got %v", data["already_ended"])
	}
	if resp.Message != "巡查会话已结束" {
		t.Errorf("expected already-ended message, got %q", resp.Message)
	}
	if mock.gotForceNotes != "페이지 종료" {
		t.Errorf("notes not passed through: %q", mock.gotForceNotes)
	}
}

// ═══════════════════════════════════════════════════════════
// AttitudeCheckHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttitudeCheckHandler_Create(t *testing.T) {
	h := NewAttitudeCheckHandler(&mockAttitudeCheckService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/attitude-checks", jsonBody(dto.CreateAttitudeCheckRequest{
		StudentID: 1, PatrolID: 5, Category: "drowsy", CheckerName: "김감독",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/attitude-checks", h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAttitudeCheckHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"InvalidCategory", service.ErrInvalidCategory, 400, 15003},
		{"PatrolNotActive", service.ErrPatrolNotActive, 409, 15004},
		{"PatrolNotFound", service.ErrPatrolNotFound, 404, 13001},
		{"StudentNotFound", service.ErrStudentNotFound, 404, 12001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAttitudeCheckHandler(&mockAttitudeCheckService{createErr: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/attitude-checks", jsonBody(dto.CreateAttitudeCheckRequest{
				StudentID: 1, PatrolID: 5, Category: "drowsy", CheckerName: "김감독",
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.POST("/attitude-checks", h.Create)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAttitudeCheckHandler_Delete_Finalized(t *testing.T) {
	h := NewAttitudeCheckHandler(&mockAttitudeCheckService{deleteErr: service.ErrCheckFinalized})

	_, _, w := setupGin()
	r := gin.New()
	r.DELETE("/attitude-checks/:id", h.Delete)
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/attitude-checks/3", nil))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15002 {
		t.Errorf("expected code 15002, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// School / System / Export Tests
// ═══════════════════════════════════════════════════════════

func TestSchoolHandler_Mark_NotFound(t *testing.T) {
	h := NewSchoolHandler(&mockSchoolService{err: service.ErrStudentNotFound})

	_, _, w := setupGin()
	r := gin.New()
	r.POST("/school-attendance/:student_id", h.Mark)
	r.ServeHTTP(w, httptest.NewRequest("POST", "/school-attendance/42", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSystemHandler_Calendar(t *testing.T) {
	mock := &mockPeriodService{}
	h := NewSystemHandler(mock)

	_, _, w := setupGin()
	r := gin.New()
	r.GET("/system/periods/calendar.ics", h.Calendar)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/system/periods/calendar.ics?days=3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "bell_20260310.ics") {
		t.Errorf("unexpected Content-Disposition: %s", w.Header().Get("Content-Disposition"))
	}
	if mock.gotDays != 3 {
		t.Errorf("expected days=3, got %d", mock.gotDays)
	}
}

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "daily_20260310.xlsx",
	}
	h := NewExportHandler(mock)

	_, _, w := setupGin()
	r := gin.New()
	r.GET("/export/daily", h.ExportDaily)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export/daily?date=2026-03-10", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxMime {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_InvalidDate(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrInvalidDate})

	_, _, w := setupGin()
	r := gin.New()
	r.GET("/export/daily", h.ExportDaily)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export/daily?date=bad", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
