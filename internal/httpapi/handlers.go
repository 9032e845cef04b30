package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/codewithme13/signai-server/internal/auth"
	"github.com/codewithme13/signai-server/internal/calls"
	"github.com/codewithme13/signai-server/internal/profile"
	"github.com/codewithme13/signai-server/internal/signal"
	"github.com/codewithme13/signai-server/internal/users"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth   *auth.Manager
	Users  *users.Service
	Calls  *calls.Service
	Photos *profile.Store
	Router *signal.Router
}

// --- Status ---

// Status is the public health endpoint, reporting live signaling counts.
func (h Handlers) Status(c *gin.Context) {
	online, active := 0, 0
	if h.Router != nil {
		online = h.Router.Online()
		active = h.Router.ActiveCalls()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"onlineUsers": online,
		"activeCalls": active,
	})
}

// --- Auth ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h Handlers) RegisterAccount(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	u, err := h.Users.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username must be 2-50 characters and password 6-100"})
		return
	case errors.Is(err, users.ErrUsernameTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	token, err := h.Auth.Issue(time.Now(), u.ID, u.Username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "token": token})
}

func (h Handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	u, err := h.Users.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidArgument), errors.Is(err, users.ErrBadCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.Auth.Issue(time.Now(), u.ID, u.Username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

// --- Users ---

func (h Handlers) OnlineUsers(c *gin.Context) {
	list, err := h.Users.Online(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h Handlers) GetUser(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), c.Param("userId"))
	switch {
	case errors.Is(err, users.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "userId must be a UUID"})
		return
	case errors.Is(err, users.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// --- Call history ---

func (h Handlers) CallHistory(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	history, err := h.Calls.History(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": history})
}

// --- Profile photos ---

func (h Handlers) UploadPhoto(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	switch err := h.Photos.Save(userID, file); {
	case errors.Is(err, profile.ErrTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	case errors.Is(err, profile.ErrUnsupportedType):
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "photo must be JPEG, PNG or WebP"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "photo upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"photoUrl": h.Photos.PhotoURL(userID)})
}

func (h Handlers) DeletePhoto(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.Photos.Delete(userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "photo removal failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) GetPhoto(c *gin.Context) {
	path, err := h.Photos.Path(c.Param("userId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}
	c.File(path)
}
