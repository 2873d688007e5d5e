package controllers

import (
	"context"
	"net/http"

	"go-storefront/apperr"
	"go-storefront/models"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the account persistence the user handlers need
type UserStore interface {
	Signup(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID primitive.ObjectID, token string) error
	ResetPassword(ctx context.Context, token, password string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateByID(ctx context.Context, id string, u models.UserUpdate) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, p models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// Tokens issues and checks identity and reset tokens
type Tokens interface {
	Issue(userID string, isAdmin bool) (string, error)
	IssueReset(userID string) (string, error)
	ParseReset(token string) (*utils.Claims, error)
}

// UserController handles user-related requests
type UserController struct {
	Users   UserStore
	Tokens  Tokens
	Mailer  utils.Mailer
	BaseURL string
}

// NewUserController creates a new UserController
func NewUserController(users UserStore, tokens Tokens, mailer utils.Mailer, baseURL string) *UserController {
	return &UserController{Users: users, Tokens: tokens, Mailer: mailer, BaseURL: baseURL}
}

// userInfo is what signin, signup and profile updates return
type userInfo struct {
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	IsAdmin bool               `json:"isAdmin"`
	Token   string             `json:"token,omitempty"`
}

func (uc *UserController) withToken(u *models.User) (*userInfo, error) {
	token, err := uc.Tokens.Issue(u.ID.Hex(), u.IsAdmin)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, "Error generating token")
	}
	return &userInfo{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, Token: token}, nil
}

// Signup handles user registration
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := uc.Users.Signup(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	info, err := uc.withToken(user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("user", user.ID.Hex()).Msg("user signed up")
	utils.WriteJSON(w, http.StatusCreated, info)
}

// Signin handles user authentication
func (uc *UserController) Signin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &creds); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := uc.Users.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	info, err := uc.withToken(user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, info)
}

// ForgetPassword issues a reset token for the account and mails a link to it
func (uc *UserController) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := uc.Users.FindByEmail(r.Context(), body.Email)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	token, err := uc.Tokens.IssueReset(user.ID.Hex())
	if err != nil {
		utils.WriteError(w, r, apperr.Wrap(err, apperr.Internal, "Error generating token"))
		return
	}
	if err := uc.Users.SetResetToken(r.Context(), user.ID, token); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	subject, html := utils.ResetPasswordEmail(user.Name, uc.BaseURL+"/reset-password/"+token)
	if err := uc.Mailer.Send(r.Context(), user.Email, subject, html); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("user", user.ID.Hex()).Msg("reset email failed")
		utils.WriteError(w, r, apperr.Wrap(err, apperr.Internal, "Email delivery failed"))
		return
	}
	utils.WriteMessage(w, http.StatusOK, "We sent reset password link to your email.")
}

// ResetPassword sets a new password for the holder of a reset token
func (uc *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := uc.Tokens.ParseReset(body.Token); err != nil {
		utils.WriteError(w, r, apperr.Wrap(err, apperr.Unauthorized, "Invalid Token"))
		return
	}
	user, err := uc.Users.ResetPassword(r.Context(), body.Token, body.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("user", user.ID.Hex()).Msg("password reset")
	utils.WriteMessage(w, http.StatusOK, "Password reset successfully")
}

// UpdateProfile lets the caller change their own name, email or password
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var p models.ProfileUpdate
	if err := decodeJSON(w, r, &p); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := uc.Users.UpdateProfile(r.Context(), id.UserID, p)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	info, err := uc.withToken(user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, info)
}

// GetUsers lists every user (Admin only)
func (uc *UserController) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := uc.Users.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

// GetUserByID retrieves one user (Admin only)
func (uc *UserController) GetUserByID(w http.ResponseWriter, r *http.Request) {
	user, err := uc.Users.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

// UpdateUserByID edits another user's name, email and admin flag (Admin only)
func (uc *UserController) UpdateUserByID(w http.ResponseWriter, r *http.Request) {
	var u models.UserUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := uc.Users.UpdateByID(r.Context(), mux.Vars(r)["id"], u)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, userInfo{ID: user.ID, Name: user.Name, Email: user.Email, IsAdmin: user.IsAdmin})
}

// DeleteUserByID removes a user (Admin only)
func (uc *UserController) DeleteUserByID(w http.ResponseWriter, r *http.Request) {
	if err := uc.Users.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "User deleted successfully")
}
