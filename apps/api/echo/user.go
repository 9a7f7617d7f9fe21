package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

type userApi struct {
	conf     *core.Config
	svc      *member.Service
	validate *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	jwt, admin echo.MiddlewareFunc,
	conf *core.Config,
	svc *member.Service,
	validate *validator.Validate,
) {
	api := &userApi{conf: conf, svc: svc, validate: validate}

	ug := g.Group("/users")
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)

	ug.GET("/me", api.me, jwt)
	ug.PUT("/me/profile", api.updateProfile, jwt)
	ug.GET("/members", api.members, jwt)
	ug.GET("/bureau-roles", api.bureauRoles, jwt)

	ug.GET("", api.query, jwt, admin)
	ug.POST("/:id/approve", api.approve, jwt, admin)
	ug.POST("/:id/reject", api.reject, jwt, admin)
	ug.PUT("/:id/role", api.setRole, jwt, admin)
	ug.PUT("/:id/bureau-role", api.setBureauRole, jwt, admin)
}

func (api *userApi) register(ctx echo.Context) error {
	var data member.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to member.NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, usr, err := authenticate(ctx, api.conf, api.svc, data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, newProfileResponse(usr))
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data member.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to member.UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, newProfileResponse(usr))
}

func (api *userApi) members(ctx echo.Context) error {
	users, err := api.svc.ListApproved(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing approved members")
	}
	if users == nil {
		users = []member.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) bureauRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, member.BureauRoles)
}

func (api *userApi) query(ctx echo.Context) error {
	var filter member.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to member.QueryFilter")
	}

	users, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "filtering users")
	}
	if users == nil {
		users = []member.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) approve(ctx echo.Context) error {
	usr, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) reject(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.checkNotSelf(ctx, id); err != nil {
		return err
	}
	usr, err := api.svc.Reject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "rejecting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setRole(ctx echo.Context) error {
	id := ctx.Param("id")
	var data member.SetRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to member.SetRole")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.Role != member.RoleAdmin {
		// Say No to Suicide
		if err := api.checkNotSelf(ctx, id); err != nil {
			return err
		}
	}

	usr, err := api.svc.SetRole(ctx.Request().Context(), id, data.Role)
	if err != nil {
		return errors.Wrap(err, "setting role")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setBureauRole(ctx echo.Context) error {
	var data member.SetBureauRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to member.SetBureauRole")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.SetBureauRole(ctx.Request().Context(), ctx.Param("id"), data.BureauRole)
	if err != nil {
		return errors.Wrap(err, "setting bureau role")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) checkNotSelf(ctx echo.Context, id string) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == id {
		return errHttpForbidden
	}
	return nil
}
