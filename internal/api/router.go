package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sereneleaf/backend/internal/domain/auth"
)

// Handlers bundles every request handler mounted by the router.
type Handlers struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Products       *ProductHandler
	Categories     *CategoryHandler
	Posts          *PostHandler
	PostCategories *PostCategoryHandler
	Comments       *CommentHandler
	Cart           *CartHandler
	Orders         *OrderHandler
	Marketing      *MarketingHandler
}

// NewRouter builds the gin engine serving the /api/v1 surface. Admin routes
// require a token with the admin role; cart, checkout, and order routes
// require any authenticated user; the rest are public.
func NewRouter(h Handlers, tokens *auth.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	authed := Authenticate(tokens)
	admin := RequireAdmin()

	v1 := r.Group("/api/v1")

	ag := v1.Group("/auth")
	{
		ag.POST("/signup", h.Auth.Signup)
		ag.POST("/login", h.Auth.Login)
		ag.POST("/otp/request", h.Auth.RequestOTP)
		ag.POST("/otp/verify", h.Auth.VerifyOTP)
		ag.POST("/otp/reset", h.Auth.ResetPassword)
		ag.GET("/profile", authed, h.Auth.Profile)
		ag.PUT("/password", authed, h.Auth.ChangePassword)
	}

	ug := v1.Group("/users", authed, admin)
	{
		ug.GET("", h.Users.List)
		ug.POST("", h.Users.Create)
		ug.GET("/:id", h.Users.Get)
		ug.PUT("/:id", h.Users.Update)
		ug.DELETE("/:id", h.Users.Delete)
	}

	pg := v1.Group("/products")
	{
		pg.GET("", h.Products.List)
		pg.GET("/slug/:slug", h.Products.GetBySlug)
		pg.GET("/:id", h.Products.Get)
		pg.GET("/:id/comments", h.Comments.ListByProduct)
		pg.POST("/:id/comments", authed, h.Comments.Create)
		pg.GET("/:id/comments/all", authed, admin, h.Comments.ListAllByProduct)
		pg.POST("", authed, admin, h.Products.Create)
		pg.PUT("/:id", authed, admin, h.Products.Update)
		pg.DELETE("/:id", authed, admin, h.Products.Delete)
	}

	cg := v1.Group("/categories")
	{
		cg.GET("", h.Categories.List)
		cg.GET("/:id", h.Categories.Get)
		cg.POST("", authed, admin, h.Categories.Create)
		cg.PUT("/:id", authed, admin, h.Categories.Update)
		cg.DELETE("/:id", authed, admin, h.Categories.Delete)
	}

	bg := v1.Group("/posts")
	{
		bg.GET("", h.Posts.List)
		bg.GET("/slug/:slug", h.Posts.GetBySlug)
		bg.GET("/:id", h.Posts.Get)
		bg.POST("", authed, admin, h.Posts.Create)
		bg.PUT("/:id", authed, admin, h.Posts.Update)
		bg.DELETE("/:id", authed, admin, h.Posts.Delete)
	}

	pcg := v1.Group("/post-categories")
	{
		pcg.GET("", h.PostCategories.List)
		pcg.POST("", authed, admin, h.PostCategories.Create)
		pcg.PUT("/:id", authed, admin, h.PostCategories.Update)
		pcg.DELETE("/:id", authed, admin, h.PostCategories.Delete)
	}

	mg := v1.Group("/comments", authed, admin)
	{
		mg.PATCH("/:id/approve", h.Comments.Approve)
		mg.DELETE("/:id", h.Comments.Delete)
	}

	crt := v1.Group("/cart", authed)
	{
		crt.GET("", h.Cart.Get)
		crt.DELETE("", h.Cart.Clear)
		crt.POST("/items", h.Cart.AddItem)
		crt.PUT("/items/:productID", h.Cart.UpdateItem)
		crt.DELETE("/items/:productID", h.Cart.RemoveItem)
	}

	v1.POST("/checkout", authed, h.Orders.Checkout)

	og := v1.Group("/orders", authed)
	{
		og.GET("", h.Orders.List)
		og.GET("/:id", h.Orders.Get)
		og.PATCH("/:id/status", admin, h.Orders.UpdateStatus)
		og.DELETE("/:id", admin, h.Orders.Delete)
	}

	v1.POST("/subscriptions", h.Marketing.Subscribe)
	v1.GET("/subscriptions", authed, admin, h.Marketing.ListSubscriptions)
	v1.POST("/contacts", h.Marketing.Contact)
	v1.GET("/contacts", authed, admin, h.Marketing.ListContacts)

	return r
}
