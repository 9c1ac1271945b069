package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrorResponse is the only failure shape clients ever see. Internal
// detail stays in the server logs.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// LoginRequest payload. The identifier may be a login or an email.
type LoginRequest struct {
	Login    string `form:"login" json:"login"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Login,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RefreshToken,
			validation.Required,
		),
	)
}

// LoginResponse is the success payload of login.
type LoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	User         *Principal `json:"user"`
}

type AuthControllerRoutes struct {
	Login    string
	Register string
	Refresh  string
	Logout   string
	Me       string
}

type AuthController struct {
	Logger Logger
	Auth   *Authenticator
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Routes = routes
		return c
	}
}

func NewAuthController(auther *Authenticator, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Auth:   auther,
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Register: "/auth/register",
			Refresh:  "/auth/refresh",
			Logout:   "/auth/logout",
			Me:       "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints. The me endpoint goes
// behind the access-token middleware; everything else is public.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController, protect fiber.Handler) {
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Get(controller.Routes.Me, protect, controller.Me)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	pair, principal, err := a.Auth.Login(c.UserContext(), payload.Login, payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         principal,
	})
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(Registration)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse registration payload"))
	}

	principal, err := a.Auth.Register(c.UserContext(), *payload)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(principal)
}

func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	payload := new(RefreshRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse refresh payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	pair, err := a.Auth.Refresh(c.UserContext(), payload.RefreshToken)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(pair)
}

// LogoutPost always succeeds. Tokens are not revocable, so logout is the
// client discarding its copy; the server has nothing to tear down.
func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	c.SetUserContext(a.Auth.Logout(c.UserContext()))
	return c.JSON(fiber.Map{"success": true})
}

func (a *AuthController) Me(c *fiber.Ctx) error {
	principal, ok := a.Auth.CurrentPrincipal(c.UserContext())
	if !ok {
		return a.renderError(c, ErrInvalidCredentials)
	}

	return c.JSON(principal.Sanitized())
}

// renderError maps the error taxonomy onto HTTP statuses. All token
// failure kinds collapse to a generic 401; the distinguishable detail is
// logged only.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch {
		case rich.TextCode == TextCodeForbidden:
			status = fiber.StatusForbidden
			message = "forbidden"
		case rich.TextCode == TextCodeInvalidCredentials:
			status = fiber.StatusUnauthorized
			message = "invalid credentials"
		case rich.Category == goerrors.CategoryAuth:
			status = fiber.StatusUnauthorized
			message = "unauthorized"
		case rich.Category == goerrors.CategoryValidation,
			rich.Category == goerrors.CategoryBadInput:
			status = fiber.StatusBadRequest
			message = rich.Message
		case rich.Category == goerrors.CategoryConflict:
			status = fiber.StatusConflict
			message = rich.Message
		case rich.Category == goerrors.CategoryNotFound:
			status = fiber.StatusNotFound
			message = rich.Message
		}
	}

	a.Logger.Warn("auth request failed", "status", status, "error", err)

	return c.Status(status).JSON(ErrorResponse{
		Status:  status,
		Message: message,
	})
}
