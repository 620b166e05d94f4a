// Package apiclient 监督控制台访问服务端 REST API 的客户端
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/console"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// codePeriodMismatch 服务端教时不一致拒绝的业务码
const codePeriodMismatch = 14001

// ErrNotLoggedIn 尚未登录或 Token 已失效
var ErrNotLoggedIn = errors.New("未登录")

// APIError 服务端返回的非 2xx 响应；RequestID 用于对照服务端日志
type APIError struct {
	Status    int
	Code      int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("api error: http %d, code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: http %d, code %d: %s (request %s)", e.Status, e.Code, e.Message, e.RequestID)
}

// IsStatus 错误链中是否为指定 HTTP 状态码的 APIError
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// envelope 统一响应结构
type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

type mismatchData struct {
	Type            string `json:"type"`
	CurrentPeriod   *int   `json:"current_period"`
	RequestedPeriod int    `json:"requested_period"`
}

// Staff 登录后的值班人员信息
type Staff struct {
	ID      int64  `json:"id"`
	LoginID string `json:"login_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

type loginResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Staff       Staff  `json:"staff"`
}

// Client 实现 console.Backend
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
	staff Staff
}

var _ console.Backend = (*Client)(nil)

// NewClient 创建客户端；baseURL 形如 http://host:8080/api/v1
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetToken 直接设置访问令牌
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) authToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Staff 当前登录人员
func (c *Client) Staff() Staff {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staff
}

// ════════════════════════════════════════════════════════════
// 认证
// ════════════════════════════════════════════════════════════

// Login 登录并保存访问令牌
func (c *Client) Login(ctx context.Context, loginID, password string) (*Staff, error) {
	var out loginResult
	body := map[string]string{"login_id": loginID, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.AccessToken
	c.staff = out.Staff
	c.mu.Unlock()

	c.logger.Info("登录成功", zap.String("login_id", out.Staff.LoginID), zap.Int("expires_in", out.ExpiresIn))
	return &out.Staff, nil
}

// Logout 登出；失败只记录日志
func (c *Client) Logout(ctx context.Context) {
	if c.authToken() == "" {
		return
	}
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		c.logger.Warn("登出失败", zap.Error(err))
	}
	c.SetToken("")
}

// ════════════════════════════════════════════════════════════
// 名册与当日记录
// ════════════════════════════════════════════════════════════

// FetchRoster 名册 + 基线状态
func (c *Client) FetchRoster(ctx context.Context) ([]console.Student, error) {
	var out struct {
		Students []console.Student `json:"students"`
	}
	if err := c.do(ctx, http.MethodGet, "/supervision/current-status", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Students, nil
}

// FetchAttendanceByPeriod 当日出勤 学生 → 教时 → 存储名称
func (c *Client) FetchAttendanceByPeriod(ctx context.Context) (map[int64]map[int]string, error) {
	out := make(map[int64]map[int]string)
	if err := c.do(ctx, http.MethodGet, "/attendance-records/today/by-period", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchPhoneByPeriod 当日手机上交 学生 → 教时 → 是否上交
func (c *Client) FetchPhoneByPeriod(ctx context.Context) (map[int64]map[int]bool, error) {
	out := make(map[int64]map[int]bool)
	if err := c.do(ctx, http.MethodGet, "/phone-submissions/today/by-period", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSchoolAttendance 当日到校学生
func (c *Client) FetchSchoolAttendance(ctx context.Context) ([]int64, error) {
	var out struct {
		StudentIDs []int64 `json:"student_ids"`
	}
	if err := c.do(ctx, http.MethodGet, "/school-attendance/today", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.StudentIDs, nil
}

// SetSchoolAttendance 设置或取消到校标记
func (c *Client) SetSchoolAttendance(ctx context.Context, studentID int64, attending bool) error {
	method := http.MethodDelete
	if attending {
		method = http.MethodPost
	}
	return c.do(ctx, method, "/school-attendance/"+strconv.FormatInt(studentID, 10), nil, nil, nil)
}

// ════════════════════════════════════════════════════════════
// 批量提交
// ════════════════════════════════════════════════════════════

func periodQuery(p int, force bool) url.Values {
	q := url.Values{}
	q.Set("period", strconv.Itoa(p))
	if force {
		q.Set("force", "true")
	}
	return q
}

// SubmitAttendance 提交某教时出勤
func (c *Client) SubmitAttendance(ctx context.Context, p int, entries []console.Entry[console.Status], force bool) error {
	type record struct {
		StudentID int64  `json:"student_id"`
		Status    string `json:"status"`
	}
	body := struct {
		Records []record `json:"records"`
	}{Records: make([]record, 0, len(entries))}
	for _, e := range entries {
		body.Records = append(body.Records, record{StudentID: e.StudentID, Status: e.Value.StoredName()})
	}
	return c.do(ctx, http.MethodPost, "/attendance-records/period/bulk", periodQuery(p, force), body, nil)
}

// SubmitPhone 提交某教时手机上交
func (c *Client) SubmitPhone(ctx context.Context, p int, entries []console.Entry[bool], checkedBy string, force bool) error {
	type submission struct {
		StudentID   int64 `json:"student_id"`
		IsSubmitted bool  `json:"is_submitted"`
	}
	body := struct {
		CheckedBy   string       `json:"checked_by"`
		Submissions []submission `json:"submissions"`
	}{CheckedBy: checkedBy, Submissions: make([]submission, 0, len(entries))}
	for _, e := range entries {
		body.Submissions = append(body.Submissions, submission{StudentID: e.StudentID, IsSubmitted: e.Value})
	}
	return c.do(ctx, http.MethodPost, "/phone-submissions/period/bulk", periodQuery(p, force), body, nil)
}

// ════════════════════════════════════════════════════════════
// 巡查
// ════════════════════════════════════════════════════════════

// StartPatrol 开始巡查（服务端已有进行中的会话时返回该会话）
func (c *Client) StartPatrol(ctx context.Context) (*console.PatrolSession, error) {
	var out console.PatrolSession
	if err := c.do(ctx, http.MethodPost, "/patrols/start", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentPatrol 当日进行中的巡查
func (c *Client) CurrentPatrol(ctx context.Context) (*console.PatrolSession, error) {
	var out *console.PatrolSession
	if err := c.do(ctx, http.MethodGet, "/patrols/current", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EndPatrol 正常结束巡查
func (c *Client) EndPatrol(ctx context.Context, patrolID int64, notes, inspectorName string) (*console.PatrolEndResult, error) {
	body := map[string]string{"notes": notes, "inspector_name": inspectorName}
	var out console.PatrolEndResult
	if err := c.do(ctx, http.MethodPost, patrolPath(patrolID, "end"), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForceEndPatrol 强制结束巡查
func (c *Client) ForceEndPatrol(ctx context.Context, patrolID int64, notes string) error {
	return c.do(ctx, http.MethodPost, patrolPath(patrolID, "force-end"), nil, map[string]string{"notes": notes}, nil)
}

// CreateObservation 记录态度检查
func (c *Client) CreateObservation(ctx context.Context, in console.NewObservation) (*console.Observation, error) {
	var out console.Observation
	if err := c.do(ctx, http.MethodPost, "/attitude-checks", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListObservations 某次巡查的检查记录
func (c *Client) ListObservations(ctx context.Context, patrolID int64) ([]console.Observation, error) {
	var out []console.Observation
	if err := c.do(ctx, http.MethodGet, "/attitude-checks/patrol/"+strconv.FormatInt(patrolID, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteObservation 删除检查记录
func (c *Client) DeleteObservation(ctx context.Context, checkID int64) error {
	return c.do(ctx, http.MethodDelete, "/attitude-checks/"+strconv.FormatInt(checkID, 10), nil, nil, nil)
}

func patrolPath(id int64, action string) string {
	return "/patrols/" + strconv.FormatInt(id, 10) + "/" + action
}

// ════════════════════════════════════════════════════════════
// 传输
// ════════════════════════════════════════════════════════════

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求失败: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", rid)
	if token := c.authToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api 请求失败", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", rid), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	c.logger.Debug("api",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", rid),
		zap.Duration("latency", time.Since(start)),
	)

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw)), RequestID: rid}
		}
	}
	if env.RequestID == "" {
		env.RequestID = rid
	}

	if resp.StatusCode >= 300 {
		err := c.decodeError(resp.StatusCode, &env)
		c.logger.Warn("api 返回错误", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", env.RequestID), zap.Error(err))
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("解析响应数据失败: %w", err)
	}
	return nil
}

func (c *Client) decodeError(status int, env *envelope) error {
	if status == http.StatusConflict && len(env.Data) > 0 {
		var md mismatchData
		if err := json.Unmarshal(env.Data, &md); err == nil && (md.Type == pkgerrors.PeriodMismatchType || env.Code == codePeriodMismatch) {
			return &pkgerrors.PeriodMismatchError{
				Requested: md.RequestedPeriod,
				Current:   md.CurrentPeriod,
				Message:   env.Message,
			}
		}
	}
	apiErr := &APIError{Status: status, Code: env.Code, Message: env.Message, RequestID: env.RequestID}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrNotLoggedIn, apiErr.Error())
	}
	return apiErr
}
