package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"geolabs_api/geolabs/auth"
	"geolabs_api/geolabs/schema"
	"geolabs_api/geolabs/utils"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db  *gorm.DB
	jwt *auth.JwtManager
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", s.Register)
	r.Post("/login", s.Login)

	r.Route("/user/{user_id}", func(r chi.Router) {
		r.Get("/", s.Get)

		r.Group(func(r chi.Router) {
			r.Use(s.jwt.Middleware()...)

			r.Delete("/", s.Delete)
		})
	})

	return r
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
	CompanyId *uint  `json:"company_id"`
}

func (s *UserService) Register(w http.ResponseWriter, r *http.Request) {
	var params registerRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Username == "" || params.Email == "" || params.Password == "" {
		http.Error(w, "username, email, and password must be specified", http.StatusBadRequest)
		return
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(params.Password), 10)
	if err != nil {
		slog.Error("error encrypting password", "error", err)
		http.Error(w, "error encrypting password", http.StatusInternalServerError)
		return
	}

	newUser := schema.User{
		Username:  params.Username,
		Email:     params.Email,
		Password:  hashedPwd,
		IsAdmin:   params.IsAdmin,
		CompanyId: params.CompanyId,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.User
		result := txn.Limit(1).Find(&existingUser, "username = ? or email = ?", params.Username, params.Email)
		if result.Error != nil {
			slog.Error("sql error checking for existing username/email", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			if existingUser.Username == params.Username {
				return CodedError(errors.New("a user with that username already exists"), http.StatusConflict)
			}
			return CodedError(errors.New("a user with that email already exists"), http.StatusConflict)
		}

		if params.CompanyId != nil {
			if err := checkCompanyExists(txn, *params.CompanyId); err != nil {
				return err
			}
		}

		result = txn.Create(&newUser)
		if result.Error != nil {
			slog.Error("sql error creating new user entry", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating user: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("registered user", "user_id", newUser.Id, "username", newUser.Username)

	utils.WriteMessage(w, "User created successfully.")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login verifies the password and issues a short lived access token. A
// missing user and a wrong password return the same error so callers cannot
// probe which usernames exist.
func (s *UserService) Login(w http.ResponseWriter, r *http.Request) {
	var params loginRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var user schema.User
	result := s.db.First(&user, "username = ?", params.Username)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Error("sql error looking up user by username", "error", result.Error)
			http.Error(w, fmt.Sprintf("login failed: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
			return
		}
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(params.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.jwt.CreateUserJwt(user)
	if err != nil {
		http.Error(w, "error generating access token", http.StatusInternalServerError)
		return
	}

	slog.Info("user logged in", "user_id", user.Id)

	utils.WriteJsonResponse(w, loginResponse{AccessToken: token})
}

type UserInfo struct {
	Id       uint            `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	IsAdmin  bool            `json:"is_admin"`
	Company  *CompanySummary `json:"company,omitempty"`
}

func (s *UserService) Get(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUint(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := schema.GetUser(userId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting user: %v", err), http.StatusInternalServerError)
		return
	}

	info := UserInfo{
		Id:       user.Id,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	}

	if user.CompanyId != nil {
		company, err := schema.GetCompany(*user.CompanyId, s.db)
		if err != nil {
			http.Error(w, fmt.Sprintf("error getting user company: %v", err), http.StatusInternalServerError)
			return
		}
		summary := companySummary(company)
		info.Company = &summary
	}

	utils.WriteJsonResponse(w, info)
}

func (s *UserService) Delete(w http.ResponseWriter, r *http.Request) {
	targetId, err := utils.URLParamUint(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requesterId, err := auth.UserIdFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	isAdmin, err := auth.IsAdminFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if !isAdmin {
		http.Error(w, "only admins can delete users", http.StatusForbidden)
		return
	}

	if requesterId == targetId {
		http.Error(w, "admins cannot delete their own account", http.StatusForbidden)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetUser(targetId, txn); err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Delete(&schema.User{Id: targetId})
		if result.Error != nil {
			slog.Error("sql error deleting user", "user_id", targetId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", targetId, err), GetResponseCode(err))
		return
	}

	slog.Info("deleted user", "user_id", targetId, "deleted_by", requesterId)

	utils.WriteMessage(w, "User deleted.")
}
