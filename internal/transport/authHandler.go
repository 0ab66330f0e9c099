package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticket-office/internal/service"
)

type AuthHandler struct {
	userService service.UserService
	deviceFlow  service.DeviceFlowService
}

func NewAuthHandler(userService service.UserService, deviceFlow service.DeviceFlowService) *AuthHandler {
	return &AuthHandler{userService: userService, deviceFlow: deviceFlow}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.userService.Register(c.Request.Context(), &req); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "check your mailbox for the activation code"})
}

func (h *AuthHandler) Activate(c *gin.Context) {
	if err := h.userService.Activate(c.Request.Context(), c.Param("code")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account activated"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (h *AuthHandler) Myself(c *gin.Context) {
	user, err := h.userService.ReadSelf(c.Request.Context(), credentials(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeviceAuthStep1 starts the device flow for the provider in the path and
// relays the verification URL and user code to the client.
func (h *AuthHandler) DeviceAuthStep1(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		step, err := h.deviceFlow.Begin(c.Request.Context(), provider)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, step)
	}
}

// DeviceAuthStep2 exchanges the device code for an access token once the
// user has confirmed in the browser.
func (h *AuthHandler) DeviceAuthStep2(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DeviceCode string `json:"device_code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		token, err := h.deviceFlow.Poll(c.Request.Context(), provider, req.DeviceCode)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"access_token": token})
	}
}
