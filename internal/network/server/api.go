package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/palemoky/bingo-bonanza/internal/logger"
	"github.com/palemoky/bingo-bonanza/internal/network/server/storage"
)

// registerAPIRoutes 注册 REST 接口
func (s *Server) registerAPIRoutes() {
	http.HandleFunc("/api/register", s.handleRegister)
	http.HandleFunc("/api/login", s.handleLogin)
	http.HandleFunc("/api/logout", s.handleLogout)
	http.HandleFunc("/api/user-info", s.handleUserInfo)
	http.HandleFunc("/api/request-deposit", s.handleRequestDeposit)
	http.HandleFunc("/api/request-withdrawal", s.handleRequestWithdrawal)

	http.HandleFunc("/api/admin/login", s.handleAdminLogin)
	http.HandleFunc("/api/admin/users", s.handleAdminUsers)
	http.HandleFunc("/api/admin/deposits", s.handleAdminDeposits)
	http.HandleFunc("/api/admin/withdrawals", s.handleAdminWithdrawals)
	http.HandleFunc("/api/admin/resolve-deposit", s.handleAdminResolveDeposit)
	http.HandleFunc("/api/admin/resolve-withdrawal", s.handleAdminResolveWithdrawal)
	http.HandleFunc("/api/admin/winners", s.handleAdminWinners)
	http.HandleFunc("/api/admin/game-history", s.handleAdminGameHistory)
	http.HandleFunc("/api/admin/approve-winner", s.handleAdminApproveWinner)
}

// 历史列表单次返回的最大条数
const historyListLimit = 100

// --- 请求/响应结构 ---

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

type walletRequestBody struct {
	SessionID     string `json:"sessionId"`
	Username      string `json:"username"`
	Amount        int64  `json:"amount"`
	Bank          string `json:"bank"`
	Reference     string `json:"reference"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

type resolveRequest struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	RequestID string `json:"requestId"`
	Approve   bool   `json:"approve"`
}

type approveWinnerRequest struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	WinnerID  string `json:"winnerId"`
}

type apiError struct {
	Error string `json:"error"`
}

// --- 辅助函数 ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// decodeBody 解析 POST JSON 请求体，方法或格式不对时写出错误响应
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "仅支持 POST")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求格式")
		return false
	}
	return true
}

// validPhone 手机号形状检查：纯数字，9~15 位
func validPhone(phone string) bool {
	if len(phone) < 9 || len(phone) > 15 {
		return false
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// --- 用户接口 ---

// handleRegister 用户注册
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Username == "" || len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "用户名不能为空，密码至少 6 位")
		return
	}
	if !validPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "无效的手机号")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	err = s.userStore.Create(r.Context(), req.Username, string(hash), req.Phone, s.config.Auth.StartingBalance)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserExists), errors.Is(err, storage.ErrPhoneTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("❌ 注册用户 %s 失败: %v", req.Username, err)
			writeError(w, http.StatusInternalServerError, "服务器内部错误")
		}
		return
	}

	log.Printf("✅ 新用户注册: %s", req.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"username": req.Username,
		"balance":  s.config.Auth.StartingBalance,
	})
}

// handleLogin 用户登录，签发会话
// 也接受注册手机号作为登录名
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	username := req.Username
	hash, err := s.userStore.PasswordHash(r.Context(), username)
	if err != nil && validPhone(req.Username) {
		if user, phoneErr := s.userStore.FindByPhone(r.Context(), req.Username); phoneErr == nil {
			username = user.Username
			hash, err = s.userStore.PasswordHash(r.Context(), username)
		}
	}
	if err != nil {
		writeError(w, http.StatusUnauthorized, "用户名或密码错误")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	user, err := s.userStore.Get(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	sessionID := s.registry.Create(username, false)
	log.Printf("✅ 用户 %s 登录", username)

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"username":  user.Username,
		"balance":   user.Balance,
		"phone":     user.Phone,
	})
}

// handleLogout 注销会话
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.registry.Revoke(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUserInfo 查询本人信息
func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !s.registry.Validate(req.SessionID, req.Username) {
		writeError(w, http.StatusUnauthorized, "会话无效或已过期")
		return
	}

	user, err := s.userStore.Get(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusNotFound, "用户不存在")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// --- 钱包接口 ---

// handleRequestDeposit 提交充值申请，等待管理员审批后入账
func (s *Server) handleRequestDeposit(w http.ResponseWriter, r *http.Request) {
	var req walletRequestBody
	if !decodeBody(w, r, &req) {
		return
	}

	if !s.registry.Validate(req.SessionID, req.Username) {
		writeError(w, http.StatusUnauthorized, "会话无效或已过期")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "金额必须为正数")
		return
	}

	record := &storage.WalletRequest{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Amount:    req.Amount,
		Bank:      req.Bank,
		Reference: req.Reference,
		Status:    storage.RequestPending,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.wallet.Append(r.Context(), record, false); err != nil {
		log.Printf("❌ 保存充值申请失败: %v", err)
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	log.Printf("💰 用户 %s 提交充值申请 %d (单号 %s)", req.Username, req.Amount, record.ID)
	writeJSON(w, http.StatusOK, record)
}

// handleRequestWithdrawal 提交提现申请：余额立即扣减，拒绝时退回
func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req walletRequestBody
	if !decodeBody(w, r, &req) {
		return
	}

	if !s.registry.Validate(req.SessionID, req.Username) {
		writeError(w, http.StatusUnauthorized, "会话无效或已过期")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "金额必须为正数")
		return
	}

	user, err := s.userStore.Get(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusNotFound, "用户不存在")
		return
	}
	if user.Balance < req.Amount {
		writeError(w, http.StatusBadRequest, "余额不足")
		return
	}

	// 先扣款再记录申请，拒绝时由审批接口退回
	if _, err := s.userStore.AdjustBalance(r.Context(), req.Username, -req.Amount); err != nil {
		log.Printf("❌ 提现扣款失败: %v", err)
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	record := &storage.WalletRequest{
		ID:            uuid.New().String(),
		Username:      req.Username,
		Amount:        req.Amount,
		Bank:          req.Bank,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		Status:        storage.RequestPending,
		CreatedAt:     time.Now().Unix(),
	}
	if err := s.wallet.Append(r.Context(), record, true); err != nil {
		// 申请没存上，把扣掉的钱退回去
		if _, rbErr := s.userStore.AdjustBalance(r.Context(), req.Username, req.Amount); rbErr != nil {
			logger.LogError("提现申请回滚失败，用户 %s 金额 %d: %v", req.Username, req.Amount, rbErr)
		}
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	log.Printf("💸 用户 %s 提交提现申请 %d (单号 %s)", req.Username, req.Amount, record.ID)
	writeJSON(w, http.StatusOK, record)
}

// --- 管理员接口 ---

// handleAdminLogin 管理员登录，凭据来自配置
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if s.config.Auth.AdminPassword == "" ||
		req.Username != s.config.Auth.AdminUsername ||
		req.Password != s.config.Auth.AdminPassword {
		writeError(w, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	sessionID := s.registry.Create(req.Username, true)
	log.Printf("🔑 管理员 %s 登录", req.Username)

	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sessionID,
		"username":  req.Username,
	})
}

// requireAdmin 校验管理员会话
func (s *Server) requireAdmin(w http.ResponseWriter, sessionID, username string) bool {
	if !s.registry.ValidateAdmin(sessionID, username) {
		writeError(w, http.StatusForbidden, "需要管理员权限")
		return false
	}
	return true
}

// handleAdminUsers 列出全部用户
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	users, err := s.userStore.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleAdminDeposits 列出充值申请
func (s *Server) handleAdminDeposits(w http.ResponseWriter, r *http.Request) {
	s.listWalletRequests(w, r, false)
}

// handleAdminWithdrawals 列出提现申请
func (s *Server) handleAdminWithdrawals(w http.ResponseWriter, r *http.Request) {
	s.listWalletRequests(w, r, true)
}

func (s *Server) listWalletRequests(w http.ResponseWriter, r *http.Request, withdrawal bool) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	records, err := s.wallet.List(r.Context(), withdrawal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAdminResolveDeposit 审批充值申请：通过时给用户入账
func (s *Server) handleAdminResolveDeposit(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	status := storage.RequestRejected
	if req.Approve {
		status = storage.RequestApproved
	}

	record, err := s.wallet.Resolve(r.Context(), req.RequestID, status, false)
	if err != nil {
		if errors.Is(err, storage.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "服务器内部错误")
		}
		return
	}

	if req.Approve {
		if _, err := s.userStore.AdjustBalance(r.Context(), record.Username, record.Amount); err != nil {
			log.Printf("❌ 充值入账失败，用户 %s 金额 %d: %v", record.Username, record.Amount, err)
			writeError(w, http.StatusInternalServerError, "入账失败")
			return
		}
		log.Printf("✅ 充值申请 %s 已通过，用户 %s 入账 %d", record.ID, record.Username, record.Amount)
	} else {
		log.Printf("🚫 充值申请 %s 已拒绝", record.ID)
	}

	writeJSON(w, http.StatusOK, record)
}

// handleAdminResolveWithdrawal 审批提现申请：拒绝时退回已扣金额
func (s *Server) handleAdminResolveWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	status := storage.RequestRejected
	if req.Approve {
		status = storage.RequestApproved
	}

	record, err := s.wallet.Resolve(r.Context(), req.RequestID, status, true)
	if err != nil {
		if errors.Is(err, storage.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "服务器内部错误")
		}
		return
	}

	if !req.Approve {
		if _, err := s.userStore.AdjustBalance(r.Context(), record.Username, record.Amount); err != nil {
			log.Printf("❌ 提现退款失败，用户 %s 金额 %d: %v", record.Username, record.Amount, err)
			writeError(w, http.StatusInternalServerError, "退款失败")
			return
		}
		log.Printf("🚫 提现申请 %s 已拒绝，退回 %d", record.ID, record.Amount)
	} else {
		log.Printf("✅ 提现申请 %s 已通过", record.ID)
	}

	writeJSON(w, http.StatusOK, record)
}

// handleAdminWinners 按时间倒序列出赢家记录（派彩审批的入口）
func (s *Server) handleAdminWinners(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	winners, err := s.history.ListWinners(r.Context(), historyListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	writeJSON(w, http.StatusOK, winners)
}

// handleAdminGameHistory 按时间倒序列出对局归档
func (s *Server) handleAdminGameHistory(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	rounds, err := s.history.ListRounds(r.Context(), historyListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

// handleAdminApproveWinner 把赢家记录的派彩状态标记为已支付
func (s *Server) handleAdminApproveWinner(w http.ResponseWriter, r *http.Request) {
	var req approveWinnerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.requireAdmin(w, req.SessionID, req.Username) {
		return
	}

	if err := s.history.ApprovePayout(r.Context(), req.WinnerID); err != nil {
		if errors.Is(err, storage.ErrWinnerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "服务器内部错误")
		}
		return
	}

	log.Printf("✅ 赢家记录 %s 派彩已确认", req.WinnerID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
