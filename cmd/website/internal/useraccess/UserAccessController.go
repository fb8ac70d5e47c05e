package useraccess

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/galleria/cmd/website/internal/viewmodels"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/adampresley/galleria/pkg/services"
)

type UserAccessControllerConfig struct {
	Renderer       rendering.TemplateRenderer
	SessionService sessions.Session[*models.User]
	UserService    services.UserServicer
}

type UserAccessController struct {
	renderer       rendering.TemplateRenderer
	sessionService sessions.Session[*models.User]
	userService    services.UserServicer
}

func NewUserAccessController(config UserAccessControllerConfig) UserAccessController {
	return UserAccessController{
		renderer:       config.Renderer,
		sessionService: config.SessionService,
		userService:    config.UserService,
	}
}

/*
GET /login
*/
func (c UserAccessController) LoginPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.Login{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Email: "",
	}

	c.renderer.Render("pages/useraccess/login", viewData, w)
}

/*
POST /login
*/
func (c UserAccessController) LoginAction(w http.ResponseWriter, r *http.Request) {
	var (
		err  error
		user *models.User
	)

	pageName := "pages/useraccess/login"

	viewData := viewmodels.Login{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Email: httphelpers.GetFromRequest[string](r, "email"),
	}

	password := httphelpers.GetFromRequest[string](r, "password")
	user, err = c.userService.GetUserByEmailAndPassword(viewData.Email, password)

	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		slog.Error("error querying for user information", "error", err)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred. Please reach out for assistance."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	if errors.Is(err, models.ErrUserNotFound) {
		viewData.IsWarning = true
		viewData.Message = "Your email or password was not correct. Please try again."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	/*
	 * Setup the session and redirect to the happy place
	 */
	if err = c.sessionService.Set(r, user); err != nil {
		slog.Error("error setting user session", "error", err)
	}

	if err = c.sessionService.Save(w, r); err != nil {
		slog.Error("error saving session", "error", err)
	}

	http.Redirect(w, r, "/galleries", http.StatusFound)
}

/*
GET /logout
*/
func (c UserAccessController) LogoutAction(w http.ResponseWriter, r *http.Request) {
	_ = c.sessionService.Destroy(w, r)
	_ = c.sessionService.Save(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}
