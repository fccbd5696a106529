package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/lootguard/internal/auth"
	"github.com/charlesng35/lootguard/pkg/errors"
	"github.com/charlesng35/lootguard/pkg/response"
)

// AuthHandler authenticates the operator and issues API tokens.
type AuthHandler struct {
	jwt      *iauth.JWTService
	operator iauth.OperatorConfig
}

func NewAuthHandler(jwt *iauth.JWTService, operator iauth.OperatorConfig) *AuthHandler {
	return &AuthHandler{jwt: jwt, operator: operator}
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := iauth.VerifyOperator(h.operator, req.Name, req.Password); err != nil {
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(req.Name)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{AccessToken: token})
}
