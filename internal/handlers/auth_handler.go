package handlers

import (
	"strings"

	"albumportal/internal/logging"
	"albumportal/internal/middleware"
	"albumportal/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles login, registration, logout, hint recovery and
// account deletion.
type AuthHandler struct {
	accounts *services.AccountService
	session  *middleware.Session
	validate *validator.Validate
	log      logging.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *services.AccountService, session *middleware.Session, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		session:  session,
		validate: validator.New(),
		log:      log.With("component", "auth_handler"),
	}
}

// RegisterRoutes registers the account routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Post("/register", h.HandleRegister)
	router.Get("/logout", h.HandleLogout)
	router.Get("/forgot_password", h.HandleForgotPasswordPage)
	router.Post("/forgot_password", h.HandleForgotPassword)
	router.Get("/delete_account", h.HandleDeleteAccountPage)
	router.Post("/delete_account", h.HandleDeleteAccount)
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// RegisterRequest represents the registration form.
type RegisterRequest struct {
	Username string `form:"new_username"`
	Password string `form:"new_password"`
	Hint     string `form:"password_hint"`
	City     string `form:"city"`
	State    string `form:"state"`
	Country  string `form:"country"`
	Question string `form:"question"`
	Answer   string `form:"answer"`
}

// ForgotPasswordRequest represents the hint recovery form.
type ForgotPasswordRequest struct {
	Username string `form:"username"`
}

// DeleteAccountRequest represents the account deletion form.
type DeleteAccountRequest struct {
	Username string `form:"username"`
	City     string `form:"city"`
	State    string `form:"state"`
}

func (h *AuthHandler) badForm(c *fiber.Ctx, err error) error {
	h.log.Warn(c.UserContext(), "unparseable form", "path", c.Path(), "error", err)
	return respond(c, fiber.StatusBadRequest, fiber.Map{"message": "Invalid request body"}, danger("Invalid request body")...)
}

// HandleLoginPage lists the security questions offered at registration.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	questions, err := h.accounts.SecurityQuestions(c.UserContext())
	if err != nil {
		return fail(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"questions": questions})
}

// HandleLogin authenticates the user and starts a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badForm(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return fail(c, h.log, services.ErrInvalidCredentials)
	}

	ip := services.ResolveClientIP(c.Get(fiber.HeaderXForwardedFor), c.IP())
	account, err := h.accounts.Authenticate(c.UserContext(), req.Username, req.Password, ip)
	if err != nil {
		if strings.TrimSpace(req.Username) != "" {
			h.log.Info(c.UserContext(), "login rejected", "username", req.Username, "ip", ip)
		}
		return fail(c, h.log, err)
	}

	if err := h.session.Start(c, account.Username); err != nil {
		return fail(c, h.log, err)
	}
	return c.Redirect("/main", fiber.StatusSeeOther)
}

// HandleRegister creates a new account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badForm(c, err)
	}
	result, err := h.accounts.Register(c.UserContext(), services.RegistrationInput{
		Username: req.Username,
		Password: req.Password,
		Hint:     req.Hint,
		City:     req.City,
		State:    req.State,
		Country:  req.Country,
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		return fail(c, h.log, err)
	}

	var notices []middleware.Notice
	for _, w := range result.Warnings {
		notices = append(notices, middleware.Notice{Level: middleware.LevelWarning, Message: w})
	}
	const created = "Account created successfully! You can now log in."
	notices = append(notices, middleware.Notice{Level: middleware.LevelSuccess, Message: created})
	return respond(c, fiber.StatusCreated, fiber.Map{
		"message": created,
		"account": result.Account,
	}, notices...)
}

// HandleLogout ends the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	h.session.End(c)
	middleware.Flash(c, middleware.Notice{Level: middleware.LevelInfo, Message: "You have been logged out."})
	return c.Redirect("/login")
}

// HandleForgotPasswordPage renders the empty hint recovery form.
func (h *AuthHandler) HandleForgotPasswordPage(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, nil)
}

// HandleForgotPassword reveals the stored password hint.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badForm(c, err)
	}
	hint, err := h.accounts.RecoverHint(c.UserContext(), req.Username)
	if err != nil {
		return fail(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"username": strings.TrimSpace(req.Username),
		"hint":     hint,
	})
}

// HandleDeleteAccountPage renders the empty deletion form.
func (h *AuthHandler) HandleDeleteAccountPage(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, nil)
}

// HandleDeleteAccount deletes the account after verifying city and state.
// Deleting the account of the current session also ends the session.
func (h *AuthHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	var req DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badForm(c, err)
	}
	if err := h.accounts.DeleteAccount(c.UserContext(), req.Username, req.City, req.State); err != nil {
		return fail(c, h.log, err)
	}

	if current := middleware.Username(c); current != "" && strings.EqualFold(current, strings.TrimSpace(req.Username)) {
		h.session.End(c)
	}
	const deleted = "Your account has been successfully deleted."
	return respond(c, fiber.StatusOK, fiber.Map{"message": deleted},
		middleware.Notice{Level: middleware.LevelSuccess, Message: deleted})
}
