package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	LoginID  string `json:"login_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StaffResponse 值班人员信息（脱敏）
type StaffResponse struct {
	ID      int64  `json:"id"`
	LoginID string `json:"login_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int           `json:"expires_in"` // Access Token 有效期（秒）
	Staff       StaffResponse `json:"staff"`
}

// CreateStaffRequest 创建值班人员（命令行引导使用）
type CreateStaffRequest struct {
	LoginID  string
	Name     string
	Password string
	Role     string
}
