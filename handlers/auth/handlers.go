package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

// Account field limits.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// User is the account summary returned after signup and login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
}

// LoginResponse is the body of a successful signup or login.
type LoginResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type signupRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Age        int    `json:"age"`
	ReferredBy *int64 `json:"referred_by"`
}

func (s signupRequest) validate() error {
	if len(strings.TrimSpace(s.Username)) < MinUsernameLength {
		return &models.ValidationError{Field: "username", Message: "username must be at least 3 characters"}
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return &models.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if len(s.Password) < MinPasswordLength {
		return &models.ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	if s.Age != 0 {
		if err := models.ValidateAge(s.Age); err != nil {
			return err
		}
	}
	if s.ReferredBy != nil && *s.ReferredBy <= 0 {
		return &models.ValidationError{Field: "referred_by", Message: "referred_by must be a user id"}
	}
	return nil
}

// SignupHandler handles user registration
// Used by: /api/auth/signup
// Response: LoginResponse
func SignupHandler(accounts store.AccountStore, tokens *Tokens, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, logger, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := req.validate(); err != nil {
			respond.Error(w, logger, err)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("hash password", "error", err)
			respond.Message(w, http.StatusInternalServerError, "Error hashing password")
			return
		}

		created, err := accounts.CreateAccount(r.Context(), models.NewAccount{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hashedPassword),
			Phone:        strings.TrimSpace(req.Phone),
			Age:          req.Age,
			ReferredBy:   req.ReferredBy,
		})
		if err != nil {
			respond.Error(w, logger, err)
			return
		}

		token, err := tokens.Generate(created.ID)
		if err != nil {
			logger.Error("generate token", "error", err)
			respond.Message(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		logger.Info("account created", "user_id", created.ID)
		respond.JSON(w, http.StatusCreated, LoginResponse{
			Message: "User created successfully",
			User:    User{ID: created.ID, Username: req.Username, Email: req.Email},
			Token:   token,
		})
	}
}

// LoginHandler handles user authentication
// Used by: /api/auth/login
// Response: LoginResponse
func LoginHandler(accounts store.AccountStore, tokens *Tokens, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, logger, err)
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		creds, err := accounts.Credentials(r.Context(), email)
		if err != nil {
			var nf *models.NotFoundError
			if errors.As(err, &nf) {
				err = models.ErrInvalidCredentials
			}
			respond.Error(w, logger, err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
			respond.Error(w, logger, models.ErrInvalidCredentials)
			return
		}

		token, err := tokens.Generate(creds.UserID)
		if err != nil {
			logger.Error("generate token", "error", err)
			respond.Message(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		respond.JSON(w, http.StatusOK, LoginResponse{
			Message: "Login successful",
			User:    User{ID: creds.UserID, Email: email},
			Token:   token,
		})
	}
}
