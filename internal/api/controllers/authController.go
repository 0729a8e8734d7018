package controllers

import (
	"log"
	"net/http"

	"brilliox/leadhunter-backend/internal/auth"
	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
)

// userStore is the slice of the Supabase handler auth needs.
type userStore interface {
	GetUserByUsername(username string) (*dto.User, error)
	InsertUser(user *dto.User) (string, error)
}

// AuthController handles login and staff account creation
type AuthController struct {
	store  userStore
	tokens *auth.TokenService
}

// NewAuthController creates a new AuthController instance
func NewAuthController(store userStore, tokens *auth.TokenService) *AuthController {
	return &AuthController{
		store:  store,
		tokens: tokens,
	}
}

// Login godoc
// @Summary      Log in
// @Description  Exchange username and password for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "Credentials"
// @Success      200 {object} dto.LoginResponse "Issued token"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      401 {object} dto.ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := ctrl.store.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("[AuthController] Login lookup failed for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "login failed"})
		return
	}
	// Same response for unknown user and wrong password
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid username or password"})
		return
	}

	token, expiresAt, err := ctrl.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Printf("[AuthController] Failed to issue token for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "login failed"})
		return
	}

	log.Printf("[AuthController] User logged in: %s (%s)", user.Username, user.Role)
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Role:      user.Role,
	})
}

// Register godoc
// @Summary      Create a staff account
// @Description  Creates a new staff user. Admin only.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterRequest true "New account"
// @Success      201 {object} dto.User "Created user"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      409 {object} dto.ErrorResponse "Username taken"
// @Router       /auth/register [post]
// @Security     BearerAuth
func (ctrl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if !dto.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid role: " + req.Role})
		return
	}

	existing, err := ctrl.store.GetUserByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to check username"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "username already taken"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to hash password"})
		return
	}

	user := &dto.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	id, err := ctrl.store.InsertUser(user)
	if err != nil {
		log.Printf("[AuthController] Failed to create user %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create user"})
		return
	}

	log.Printf("[AuthController] User created: %s (%s)", req.Username, req.Role)
	c.JSON(http.StatusCreated, dto.User{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
}
