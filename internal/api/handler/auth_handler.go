package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/core/ports"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgNameTaken          = "name taken"
	msgAccountCreated     = "account created, please log in"
	msgInvalidForm        = "invalid form"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsForm struct {
	Name     string `form:"name" validate:"required,max=64"`
	Password string `form:"password" validate:"required,max=128"`
}

// Root sends visitors to the login form.
func (h *AuthHandler) Root(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) ShowLogin(c echo.Context) error {
	return c.Render(http.StatusOK, ViewLogin, Page{})
}

func (h *AuthHandler) ShowSignup(c echo.Context) error {
	return c.Render(http.StatusOK, ViewSignup, Page{})
}

// Login checks the submitted credentials and renders the landing view for the
// user's role. Unknown names and wrong passwords get the same 401 answer.
func (h *AuthHandler) Login(c echo.Context) error {
	form, msg := bindCredentials(c)
	if msg != "" {
		return c.Render(http.StatusBadRequest, ViewLogin, Page{Name: form.Name, Error: msg})
	}

	user, err := h.authService.Login(c.Request().Context(), form.Name, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			return c.Render(http.StatusUnauthorized, ViewLogin, Page{Name: form.Name, Error: msgInvalidCredentials})
		}
		return err
	}

	view := ViewHome
	if user.IsAdmin() {
		view = ViewHomeAdmin
	}
	return c.Render(http.StatusOK, view, Page{Name: user.Name})
}

// Signup registers a plain user and sends them back to the login form.
func (h *AuthHandler) Signup(c echo.Context) error {
	form, msg := bindCredentials(c)
	if msg != "" {
		return c.Render(http.StatusBadRequest, ViewSignup, Page{Name: form.Name, Error: msg})
	}

	user, err := h.authService.Signup(c.Request().Context(), form.Name, form.Password)
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return c.Render(http.StatusConflict, ViewSignup, Page{Name: form.Name, Error: msgNameTaken})
	case errors.Is(err, domain.ErrInvalidUser):
		return c.Render(http.StatusBadRequest, ViewSignup, Page{Name: form.Name, Error: err.Error()})
	case err != nil:
		return err
	}

	return c.Render(http.StatusCreated, ViewLogin, Page{Name: user.Name, Notice: msgAccountCreated})
}

// bindCredentials returns the submitted form and, when it is unusable, the
// message to show next to it.
func bindCredentials(c echo.Context) (credentialsForm, string) {
	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return form, msgInvalidForm
	}
	if err := c.Validate(&form); err != nil {
		return form, err.Error()
	}
	return form, ""
}
