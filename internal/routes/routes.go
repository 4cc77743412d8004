package routes

import (
	"io"
	"net/http"
	"os"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
	"fleetops/internal/middleware"
)

type Options struct {
	Handler     *controllers.Handler
	Tokens      *middleware.Tokens
	AccessLog   io.Writer // nil writes to stdout
	CORSOrigins []string
}

func SetupRouter(opts Options) *gin.Engine {
	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(ginlog.SetLogger(
		ginlog.WithWriter(accessLog),
		ginlog.WithUTC(true),
		ginlog.WithSkipPath([]string{"/healthz"}),
	))
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := opts.Handler
	auth := middleware.RequireAuth(opts.Tokens)

	AuthRoutes(r, h, auth)
	PublicRoutes(r, h)

	api := r.Group("/", auth)
	DriverRoutes(api, h)
	VehicleRoutes(api, h)
	ServiceRoutes(api, h)
	CompanyRoutes(api, h)
	DashboardRoutes(api, h)

	return r
}
