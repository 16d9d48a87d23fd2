package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fasttrack/internal/domain"
	"fasttrack/internal/service"
	"fasttrack/internal/timer"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	timers    service.TimerService
	history   service.HistoryService
	export    service.ExportService
	runner    *timer.Runner
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewHandler(
	auth service.AuthService,
	timers service.TimerService,
	history service.HistoryService,
	export service.ExportService,
	runner *timer.Runner,
	jwtSecret string,
	tokenTTL time.Duration,
) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Handler{
		auth:      auth,
		timers:    timers,
		history:   history,
		export:    export,
		runner:    runner,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.POST("/auth/guest", h.guestLogin)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("", h.authRequired())
		{
			authed.POST("/auth/logout", h.logout)
			authed.GET("/auth/me", h.me)

			authed.GET("/settings", h.getSettings)
			authed.PUT("/settings", h.updateSettings)
			authed.PUT("/profile", h.updateProfile)

			authed.POST("/timer/start", h.startTimer)
			authed.GET("/timer", h.timerStatus)
			authed.POST("/timer/end", h.endTimer)

			authed.GET("/history", h.listHistory)
			authed.GET("/history/summary", h.historySummary)

			authed.GET("/export", h.exportSnapshot)
			authed.POST("/export/backup", h.backupSnapshot)
			authed.GET("/export/backups", h.listBackups)

			authed.DELETE("/user/data", h.clearUserData)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

const userIDKey = "userID"

func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := userIDFromToken(token, h.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, domain.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
	case errors.Is(err, domain.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": "a fasting session is already active"})
	case errors.Is(err, domain.ErrBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "operation already in flight"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBackupDisabled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		// a login probe must not reveal whether the account exists
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) guestLogin(c *gin.Context) {
	user, err := h.auth.LoginAsGuest(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *domain.User) {
	token, err := generateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token"})
		return
	}
	c.JSON(status, gin.H{
		"token": token,
		"user":  userToResponse(user),
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.auth.GetSettings(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	GoalHours     float64 `json:"goalHours" binding:"required"`
	Theme         string  `json:"theme"`
	Notifications bool    `json:"notifications"`
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings := &domain.Settings{
		UserID:        currentUserID(c),
		GoalHours:     req.GoalHours,
		Theme:         req.Theme,
		Notifications: req.Notifications,
	}
	if err := h.auth.UpdateSettings(c.Request.Context(), settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type profileRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := currentUserID(c)

	existing, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	profile := &domain.Profile{
		UserID:   userID,
		Name:     req.Name,
		JoinedAt: existing.CreatedAt,
	}
	if err := h.auth.UpdateProfile(c.Request.Context(), profile); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type startTimerRequest struct {
	GoalHours float64 `json:"goalHours"`
}

func (h *Handler) startTimer(c *gin.Context) {
	var req startTimerRequest
	// empty body means "use the configured goal"
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := currentUserID(c)

	goalHours := req.GoalHours
	if goalHours == 0 {
		settings, err := h.auth.GetSettings(c.Request.Context(), userID)
		if err != nil {
			writeError(c, err)
			return
		}
		goalHours = settings.GoalHours
	}

	session, err := h.timers.Start(c.Request.Context(), userID, goalHours)
	if err != nil {
		writeError(c, err)
		return
	}
	h.runner.Watch(userID)

	c.JSON(http.StatusCreated, sessionToResponse(session))
}

func (h *Handler) timerStatus(c *gin.Context) {
	userID := currentUserID(c)
	snapshot, err := h.timers.Tick(c.Request.Context(), userID, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	if snapshot.State != domain.TimerIdle {
		// re-arm the background loop after a process restart
		h.runner.Watch(userID)
	}
	c.JSON(http.StatusOK, snapshotToResponse(snapshot))
}

func (h *Handler) endTimer(c *gin.Context) {
	userID := currentUserID(c)
	history, err := h.timers.End(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	cancelCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := h.runner.Cancel(cancelCtx, userID); err != nil && !errors.Is(err, context.Canceled) {
		c.JSON(http.StatusOK, gin.H{
			"session":  historyToResponse(*history),
			"warnings": []string{"tick loop did not stop in time"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": historyToResponse(*history)})
}

func (h *Handler) listHistory(c *gin.Context) {
	sessions, err := h.history.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]HistoryResponse, len(sessions))
	for i := range sessions {
		resp[i] = historyToResponse(sessions[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) historySummary(c *gin.Context) {
	summary, err := h.history.Summary(c.Request.Context(), currentUserID(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) exportSnapshot(c *gin.Context) {
	snapshot, err := h.export.Snapshot(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) backupSnapshot(c *gin.Context) {
	location, err := h.export.Backup(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": location})
}

func (h *Handler) listBackups(c *gin.Context) {
	objects, err := h.export.ListBackups(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]BackupResponse, len(objects))
	for i, obj := range objects {
		resp[i] = BackupResponse{Key: obj.Key, Size: obj.Size}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) clearUserData(c *gin.Context) {
	userID := currentUserID(c)

	var warnings []string
	cancelCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := h.runner.Cancel(cancelCtx, userID); err != nil && !errors.Is(err, context.Canceled) {
		warnings = append(warnings, "tick loop did not stop in time")
	}

	if err := h.auth.ClearAllUserData(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	if c.Query("purge_backups") == "true" {
		if err := h.export.PurgeBackups(c.Request.Context(), userID); err != nil && !errors.Is(err, service.ErrBackupDisabled) {
			warnings = append(warnings, "purge backups: "+err.Error())
		}
	}

	resp := gin.H{"cleared": userID}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

type UserResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login,omitempty"`
}

type SessionResponse struct {
	UserID           int64   `json:"user_id"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	GoalHours        float64 `json:"goal_hours"`
	NotificationSent bool    `json:"notification_sent"`
}

type SnapshotResponse struct {
	State     string  `json:"state"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	GoalHours float64 `json:"goal_hours,omitempty"`
	ElapsedS  float64 `json:"elapsed_seconds"`
	RemainS   float64 `json:"remaining_seconds"`
	Progress  float64 `json:"progress"`
	Display   string  `json:"display"`
}

type HistoryResponse struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Duration  float64 `json:"duration"`
	GoalHours float64 `json:"goal_hours"`
	Completed bool    `json:"completed"`
}

type BackupResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLogin != nil {
		v := user.LastLogin.Format(time.RFC3339)
		resp.LastLogin = &v
	}
	return resp
}

func sessionToResponse(session *domain.CurrentSession) SessionResponse {
	return SessionResponse{
		UserID:           session.UserID,
		StartTime:        session.StartTime.Format(time.RFC3339),
		EndTime:          session.EndTime.Format(time.RFC3339),
		GoalHours:        session.GoalHours,
		NotificationSent: session.NotificationSent,
	}
}

func snapshotToResponse(snapshot *domain.TimerSnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		State:    string(snapshot.State),
		Progress: snapshot.Progress,
		Display:  snapshot.Display,
	}
	if snapshot.State == domain.TimerIdle {
		return resp
	}
	start := snapshot.StartTime.Format(time.RFC3339)
	end := snapshot.EndTime.Format(time.RFC3339)
	resp.StartTime = &start
	resp.EndTime = &end
	resp.GoalHours = snapshot.GoalHours
	resp.ElapsedS = snapshot.Elapsed.Seconds()
	resp.RemainS = snapshot.Remaining.Seconds()
	return resp
}

func historyToResponse(session domain.HistorySession) HistoryResponse {
	return HistoryResponse{
		ID:        session.ID,
		UserID:    session.UserID,
		StartTime: session.StartTime.Format(time.RFC3339),
		EndTime:   session.EndTime.Format(time.RFC3339),
		Duration:  session.Duration,
		GoalHours: session.GoalHours,
		Completed: session.Completed,
	}
}
