package handler

import (
	"net/http"

	"novel-stella/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	_, err := h.accounts.Register(c.Request.Context(), models.RegistrationInput{
		Email:     req.Email,
		Nickname:  req.Nickname,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	registrationsTotal.Inc()
	c.JSON(http.StatusCreated, models.DetailResponse{Detail: "Verification e-mail sent."})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) logout(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		zap.L().Error("Claims missing in context during logout")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}
	var req logoutRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), claims, req.Refresh); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DetailResponse{Detail: "Successfully logged out."})
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.accounts.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
		handleServiceError(c, err)
		return
	}
	refreshesTotal.Inc()
	tokenVerificationsTotal.WithLabelValues("refresh", "success").Inc()
	c.JSON(http.StatusOK, tokens)
}

func (h *Handler) verifyToken(c *gin.Context) {
	var req tokenVerifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.VerifyToken(c.Request.Context(), req.Token); err != nil {
		tokenVerificationsTotal.WithLabelValues("verify", "failure").Inc()
		handleServiceError(c, err)
		return
	}
	tokenVerificationsTotal.WithLabelValues("verify", "success").Inc()
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.accounts.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Details())
}

func (h *Handler) updateUser(c *gin.Context) {
	var req nicknameRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.accounts.UpdateNickname(c.Request.Context(), currentUserID(c), req.Nickname)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Details())
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.accounts.ChangePassword(c.Request.Context(), currentUserID(c), req.OldPassword, req.NewPassword1, req.NewPassword2)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DetailResponse{Detail: "New password has been saved."})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req passwordResetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DetailResponse{Detail: "Password reset e-mail has been sent."})
}

func (h *Handler) confirmPasswordReset(c *gin.Context) {
	var req passwordResetConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.accounts.ConfirmPasswordReset(c.Request.Context(), req.UID, req.Token, req.NewPassword1, req.NewPassword2)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DetailResponse{Detail: "Password has been reset with the new password."})
}

func (h *Handler) profileResponse(c *gin.Context, p *models.Profile) *models.Profile {
	p.ProfileImage = absolutePtr(c, p.ProfileImage)
	p.Books = absoluteBooks(c, p.Books)
	return p
}

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.accounts.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.profileResponse(c, profile))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req nicknameRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.accounts.UpdateProfile(c.Request.Context(), currentUserID(c), req.Nickname)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.profileResponse(c, profile))
}

func (h *Handler) deleteProfile(c *gin.Context) {
	var req deleteProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.DeleteAccount(c.Request.Context(), currentUserID(c), req.Password, req.RefreshToken); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ConfirmEmail(c.Request.Context(), req.Key); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DetailResponse{Detail: "ok"})
}

// confirmEmailRedirect - переход по ссылке из письма.
func (h *Handler) confirmEmailRedirect(c *gin.Context) {
	target := h.cfg.FrontendURL + "/email-confirmed"
	if err := h.accounts.ConfirmEmail(c.Request.Context(), c.Param("key")); err != nil {
		h.logger.Warn("Email confirmation via link failed", zap.Error(err))
		target = h.cfg.FrontendURL + "/email-confirmation-error"
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) resendEmail(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DetailResponse{Detail: "Verification e-mail sent."})
}
