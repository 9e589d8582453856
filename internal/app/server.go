package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"example.com/storefront/internal/handlers"
	"example.com/storefront/internal/media"
	"example.com/storefront/internal/service"
	"example.com/storefront/internal/store"
)

// Deps are the backends the router is built over.
type Deps struct {
	Store  store.Store
	Images media.ImageStore
	Email  service.EmailService
	Log    *zap.Logger
}

func NewRouter(cfg Config, d Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(d.Log), handlers.CORS(cfg.CORSOrigin))

	// --- Services ---
	catalog := service.NewCatalogService(d.Store, d.Images, d.Log)
	orders := service.NewOrderService(d.Store, d.Store, d.Email, d.Log)
	auth := service.NewAuthService(d.Store, service.AuthConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}, d.Log)

	products := handlers.NewProductHTTP(catalog, d.Log)
	orderH := handlers.NewOrderHTTP(orders, d.Log)
	users := handlers.NewUserHTTP(auth, d.Log)
	users.SecureCookie = cfg.Env == "prod"
	users.CookieMaxAge = int(cfg.JWTTTL / time.Second)

	authMW := handlers.RequireAuth(auth)
	admin := func(c *gin.Context) { c.Next() }
	if cfg.AdminAuth {
		admin = authMW
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	if cfg.ImageStore != "ftp" {
		r.Static("/uploads", cfg.ImageDir)
	}

	// --- Catalog ---
	p := r.Group("/product")
	p.GET("", products.List)
	p.GET("/:id", products.Get)
	p.POST("", admin, products.Create)
	p.PUT("/:id", admin, products.Update)
	p.DELETE("/:id", admin, products.Delete)

	// --- Orders ---
	o := r.Group("/order")
	o.POST("", orderH.Place)
	o.GET("", admin, orderH.List)

	// --- Users ---
	u := r.Group("/user")
	u.POST("/register", users.Register)
	u.POST("/login", users.Login)
	u.POST("/logout", users.Logout)
	u.GET("/me", authMW, users.Me)
	u.GET("/getAll", authMW, users.GetAll)
	u.GET("/getUser/:id", authMW, users.GetUser)
	u.PUT("/update/:id", authMW, users.Update)
	u.DELETE("/deleteUser/:id", authMW, users.Delete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func newImageStore(cfg Config) (media.ImageStore, error) {
	switch cfg.ImageStore {
	case "", "disk":
		return media.NewDiskStore(cfg.ImageDir, cfg.PublicBaseURL+"/uploads")
	case "ftp":
		if cfg.FTP.Host == "" {
			return nil, fmt.Errorf("IMAGE_STORE=ftp needs FTP_HOST")
		}
		return media.NewFTPStore(cfg.FTP), nil
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}

// NewServer connects the configured backends and returns the router plus a
// cleanup func that closes them.
func NewServer(ctx context.Context, cfg Config, log *zap.Logger) (*gin.Engine, func(), error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	images, err := newImageStore(cfg)
	if err != nil {
		_ = st.Close(ctx)
		return nil, nil, err
	}

	r := NewRouter(cfg, Deps{
		Store:  st,
		Images: images,
		Email:  service.NewEmailService(cfg.SMTP),
		Log:    log,
	})

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			log.Warn("store close failed", zap.Error(err))
		}
	}
	return r, cleanup, nil
}
