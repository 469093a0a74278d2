package handler

import "novel-stella/internal/models"

// --- accounts ---

type registerRequest struct {
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type tokenVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname" binding:"required,nickname"`
}

type passwordChangeRequest struct {
	OldPassword  string `json:"old_password" binding:"required"`
	NewPassword1 string `json:"new_password1" binding:"required,strongpassword"`
	NewPassword2 string `json:"new_password2" binding:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type passwordResetConfirmRequest struct {
	UID          string `json:"uid" binding:"required"`
	Token        string `json:"token" binding:"required"`
	NewPassword1 string `json:"new_password1" binding:"required,strongpassword"`
	NewPassword2 string `json:"new_password2" binding:"required"`
}

type deleteProfileRequest struct {
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

type verifyEmailRequest struct {
	Key string `json:"key" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// --- books ---

type createBookRequest struct {
	Prompt   string   `json:"prompt"`
	Language string   `json:"language"`
	Tags     []string `json:"tags"`
}

type generateChapterRequest struct {
	Language               string                 `json:"language"`
	Summary                string                 `json:"summary"`
	SelectedRecommendation *models.Recommendation `json:"selected_recommendation"`
}

type updateBookRequest struct {
	Title      *string   `json:"title"`
	Genre      *string   `json:"genre"`
	Theme      *string   `json:"theme"`
	Tone       *string   `json:"tone"`
	Setting    *string   `json:"setting" binding:"omitempty,max=1000"`
	Characters *string   `json:"characters"`
	Tags       *[]string `json:"tags"`
}

func (r updateBookRequest) toUpdate() models.BookUpdate {
	upd := models.BookUpdate{
		Title:      r.Title,
		Genre:      r.Genre,
		Theme:      r.Theme,
		Tone:       r.Tone,
		Setting:    r.Setting,
		Characters: r.Characters,
	}
	if r.Tags != nil {
		upd.Tags = *r.Tags
		upd.SetTags = true
	}
	return upd
}

type chapterImageRequest struct {
	Title   *string `json:"title"`
	Tone    *string `json:"tone"`
	Setting *string `json:"setting"`
}

type chapterImageResponse struct {
	ImageURL string `json:"image_url"`
}

// --- social ---

type ratingRequest struct {
	Rating *float64 `json:"rating"`
}

type commentRequest struct {
	Content string `json:"content"`
}
