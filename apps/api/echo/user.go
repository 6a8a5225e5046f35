package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
	"github.com/trezcool/bossmaker/storage/files"
)

type authApi struct {
	svc      user.ServiceInterface
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, opts *Options) {
	api := authApi{svc: opts.UserSvc, validate: opts.Validate}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Status:  true,
		Message: "Login Successful",
		Token:   token,
		Data: LoginUser{
			ID:        usr.ID,
			FirstName: usr.FirstName,
			LastName:  usr.LastName,
			Email:     usr.Email,
			Role:      usr.Role,
		},
	})
}

type userApi struct {
	svc        user.ServiceInterface
	store      *files.Local
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := userApi{
		svc:        opts.UserSvc,
		store:      opts.FileStore,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	// token auth on the group; the status check stays open so participants
	// can poll their own account, everything else is scoped per-route
	ug := g.Group("/user", jwt)

	ug.POST("/create", api.create, managerMiddleware())
	ug.GET("", api.query, managerMiddleware())
	ug.GET("/instructors", api.queryInstructors, managerMiddleware())
	ug.GET("/participants", api.queryParticipants, managerMiddleware())
	ug.GET("/:id", api.retrieve, managerMiddleware())
	ug.PUT("/update/:id", api.update, managerMiddleware())
	ug.DELETE("/delete", api.destroy, managerMiddleware())
	ug.GET("/status/:id", api.checkStatus)
	ug.PATCH("/status", api.updateStatus, managerMiddleware())
	ug.PUT("/update-permissions", api.updatePermissions, adminMiddleware())
	ug.GET("/permissions/:id", api.getPermissions, adminMiddleware())
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// managers only create the role below theirs
	if data.Role != ctxUsr.Role.ManagedRole() {
		return errHttpForbidden
	}

	profileImage, err := api.saveProfileImage(ctx)
	if err != nil {
		return err
	}

	if _, err = api.svc.Create(ctx.Request().Context(), data, ctxUsr, profileImage); err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "User created successfully"})
}

func (api *userApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(user.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	filter.Role = ctxUsr.Role.ManagedRole()
	filter.CreatedBy = ctxUsr.ID

	users, total, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "filtering users")
	}
	for i := range users {
		users[i].ProfileImage = core.Conf.FileURL("users", users[i].ProfileImage)
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"status":     true,
		"pagination": core.NewPagination(total, filter.Page, filter.Limit),
		"users":      users,
	})
}

func (api *userApi) queryInstructors(ctx echo.Context) error {
	return api.queryRefs(ctx, user.RoleInstructor)
}

func (api *userApi) queryParticipants(ctx echo.Context) error {
	return api.queryRefs(ctx, user.RoleParticipant)
}

func (api *userApi) queryRefs(ctx echo.Context, role user.Role) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	users, err := api.svc.QueryManaged(ctx.Request().Context(), ctxUsr.ID, role)
	if err != nil {
		return errors.Wrap(err, "querying managed users")
	}
	refs := make([]user.Ref, 0, len(users))
	for _, usr := range users {
		refs = append(refs, user.Ref{ID: usr.ID, FirstName: usr.FirstName, LastName: usr.LastName})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "data": refs})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	pwd, err := usr.PlainPassword()
	if err != nil {
		return errors.Wrap(err, "decrypting password")
	}
	usr.ProfileImage = core.Conf.FileURL("users", usr.ProfileImage)
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "user": userWithPassword{usr, pwd}})
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	profileImage, err := api.saveProfileImage(ctx)
	if err != nil {
		return err
	}

	if _, err = api.svc.Update(ctx.Request().Context(), usr, data, profileImage); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "User updated Succesfully"})
}

func (api *userApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if data.ID == "" {
		return core.NewValidationError(errors.New("User ID is required"))
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if data.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err = api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "User deleted Successfully"})
}

func (api *userApi) checkStatus(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	message := "Your account is disabled"
	if usr.IsActive {
		message = "User is active"
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "isActive": usr.IsActive, "message": message})
}

func (api *userApi) updateStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	if data.ID == "" || data.Status == nil {
		return core.NewValidationError(errors.New("User ID and status are required"))
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.SetStatus(ctx.Request().Context(), ctxUsr, data.ID, *data.Status); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "updating user status")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "User status updated successfully"})
}

func (api *userApi) updatePermissions(ctx echo.Context) error {
	var data PermissionsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PermissionsRequest")
	}
	if data.ID == "" || data.Permissions == nil {
		return core.NewValidationError(errors.New("User ID and permission array are required"))
	}

	if err := api.svc.UpdatePermissions(ctx.Request().Context(), data.ID, data.Permissions); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "updating permissions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "Permissions updated successfully"})
}

func (api *userApi) getPermissions(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":     true,
		"message":    "Permissions fetched successfully",
		"permission": usr.Permissions,
	})
}

// saveProfileImage stores an optional "profile_image" multipart file and
// returns its stored name; empty when no file was sent.
func (api *userApi) saveProfileImage(ctx echo.Context) (string, error) {
	fh, err := ctx.FormFile("profile_image")
	if err != nil {
		return "", nil // no file sent
	}
	name, err := api.store.SaveImage("users", fh)
	if err != nil {
		return "", err
	}
	return name, nil
}

var errUserNotFound = echo.NewHTTPError(http.StatusNotFound, "User not found")

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email" validate:"required"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginUser struct {
		ID        string    `json:"id"`
		FirstName string    `json:"first_name"`
		LastName  string    `json:"last_name"`
		Email     string    `json:"email"`
		Role      user.Role `json:"user_type"`
	}

	LoginResponse struct {
		Status  bool      `json:"status"`
		Message string    `json:"message"`
		Token   string    `json:"token"`
		Data    LoginUser `json:"data"`
	}

	IDRequest struct {
		ID string `json:"id" form:"id"`
	}

	StatusRequest struct {
		ID     string `json:"id"`
		Status *bool  `json:"status"`
	}

	PermissionsRequest struct {
		ID          string       `json:"id"`
		Permissions []user.Grant `json:"permissions"`
	}

	userWithPassword struct {
		user.User
		Password string `json:"password"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
