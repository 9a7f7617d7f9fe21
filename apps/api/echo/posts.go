package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/post"
)

type postApi struct {
	svc      *post.Service
	members  *member.Service
	validate *validator.Validate
}

func registerPostAPI(
	g *echo.Group,
	jwt, admin echo.MiddlewareFunc,
	svc *post.Service,
	members *member.Service,
	validate *validator.Validate,
) {
	api := &postApi{svc: svc, members: members, validate: validate}

	pg := g.Group("/posts", jwt)
	pg.GET("", api.list)
	pg.GET("/:id", api.retrieve)
	pg.POST("", api.create, admin)
	pg.PUT("/:id", api.update, admin)
	pg.DELETE("/:id", api.destroy, admin)
}

func (api *postApi) list(ctx echo.Context) error {
	posts, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *postApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *postApi) create(ctx echo.Context) error {
	var data post.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to post.NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.members)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.Create(ctx.Request().Context(), author, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *postApi) update(ctx echo.Context) error {
	var data post.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to post.NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *postApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}
