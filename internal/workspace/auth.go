package workspace

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/session"
	"github.com/sakif/codemaster/internal/ui"
)

// RegisterForm is the registration form. Its checks are advisory; the
// server decides.
type RegisterForm struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,mailbox"`
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=8"`
	Role     string
}

// mailboxPattern requires a dotted domain with a TLD of two or more letters
// (or a bracketed IPv4 literal), so "a@b" is rejected.
var mailboxPattern = regexp.MustCompile(`^(([^<>()[\]\\.,;:\s@"]+(\.[^<>()[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return mailboxPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// fieldMessages are shown for a field that has a value but fails its check.
var fieldMessages = map[string]string{
	"name":     "Name too short",
	"email":    "Invalid email format",
	"username": "Username too short",
	"password": "Minimum 8 characters",
}

// Check returns a message per invalid field and whether the whole form is
// valid. An empty field is invalid but has an empty message.
func (f RegisterForm) Check() (map[string]string, bool) {
	errs := make(map[string]string)

	err := formValidator.Struct(f)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs, err == nil
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.StructField())
		if fe.Tag() == "required" {
			errs[field] = ""
			continue
		}
		errs[field] = fieldMessages[field]
	}
	return errs, false
}

// ToggleAuthMode switches the login page between login and registration.
func (c *Controller) ToggleAuthMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.AuthMode == ui.ModeLogin {
		c.state.AuthMode = ui.ModeRegister
	} else {
		c.state.AuthMode = ui.ModeLogin
	}
}

// UpdateRegisterForm stores f and re-runs field validation.
func (c *Controller) UpdateRegisterForm(f RegisterForm) bool {
	errs, ok := f.Check()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Register = f
	c.state.FieldErrors = errs
	c.state.RegisterEnabled = ok
	return ok
}

// Login authenticates and, on success, saves the session and opens the
// main page.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return c.reject(ErrMissingFields, "Please fill in all fields")
	}

	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		return c.fail(err, client.MessageOr(err, "Invalid credentials"))
	}
	return c.establish(ctx, res)
}

// Register creates an account. It does not log in; the page switches back
// to login mode.
func (c *Controller) Register(ctx context.Context, f RegisterForm) error {
	if !c.UpdateRegisterForm(f) {
		return c.reject(ErrInvalidForm, "Please correct the registration form")
	}

	_, err := c.api.Register(ctx, client.RegisterInput{
		Name:     f.Name,
		Email:    f.Email,
		Username: f.Username,
		Password: f.Password,
		Role:     f.Role,
	})
	if err != nil {
		return c.fail(err, client.MessageOr(err, "Registration failed"))
	}

	c.notes.Success("Registration successful! Please login.")
	c.mu.Lock()
	c.state.AuthMode = ui.ModeLogin
	c.state.Register = RegisterForm{}
	c.state.FieldErrors = nil
	c.state.RegisterEnabled = false
	c.mu.Unlock()
	return nil
}

// LoginGitHub signs in through the GitHub device flow. prompt is called
// once with the URL to open and the code to enter there.
func (c *Controller) LoginGitHub(ctx context.Context, flow DeviceAuthorizer, prompt func(verificationURI, userCode string)) error {
	da, err := flow.Start(ctx)
	if err != nil {
		return c.fail(err, "GitHub login failed")
	}
	prompt(da.VerificationURI, da.UserCode)

	accessToken, err := flow.Wait(ctx, da)
	if err != nil {
		return c.fail(err, "GitHub login failed")
	}

	res, err := c.api.LoginGitHub(ctx, accessToken)
	if err != nil {
		return c.fail(err, client.MessageOr(err, "GitHub login failed"))
	}
	return c.establish(ctx, res)
}

// Logout forgets the session and returns to the login page. It cannot fail.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear session", slog.String("error", err.Error()))
	}
	c.api.SetToken("")

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.modal.Close()
}

func (c *Controller) establish(ctx context.Context, res *client.AuthResult) error {
	sess := session.Session{Token: res.Token, Username: res.Username}
	if err := c.store.Save(ctx, sess); err != nil {
		c.logger.Warn("failed to save session", slog.String("error", err.Error()))
	}
	c.api.SetToken(sess.Token)

	c.mu.Lock()
	c.resetLocked()
	c.state.Session = sess
	c.state.Page = ui.PageMain
	c.mu.Unlock()

	return c.LoadSnippets(ctx)
}
