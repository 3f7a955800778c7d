package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"
	"tix/src/boot"
	"tix/src/config"
	"tix/src/db"
	"tix/src/lib"
	"tix/src/middlewares"
	"tix/src/models"
	"tix/src/monitoring"
	"tix/src/payments"
	"tix/src/types"
	"tix/src/wizard"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

const (
	apiPrefix string = "/api/v1"
)

var eventDateTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	if ok {
		today := time.Now()
		if today.After(datetime) {
			return false
		}
	}
	return true
}

var gtfield validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue := field.Interface().(string)
	fielddatetime, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	if ok {
		if fielddatetime.After(datetime) {
			return false
		}
	}
	return true
}

var ltfield validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue := field.Interface().(string)
	fielddatetime, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	if ok {
		if datetime.After(fielddatetime) {
			return false
		}
	}
	return true
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", eventDateTimeValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
		v.RegisterValidation("ltdate", ltfield)
	}
}

func requestMetrics(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	route := ctx.FullPath()
	if route == "" {
		route = "unmatched"
	}
	monitoring.HttpRequestDuration.
		WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
		Observe(time.Since(start).Seconds())
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.Use(requestMetrics)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	publicEventHandlers(apiv1)
	authHandlers(apiv1)
	return apiv1
}

func generateJWT(email string, role string) (string, error) {
	claims := &types.Claims{
		Username: email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// gatewayCredentials prefers an active admin-managed config row over env
// vars, per provider.
func gatewayCredentials(fromEnv config.GatewayCredentials) config.GatewayCredentials {
	var row models.PaymentConfig
	err := db.GetDb().
		Where(&models.PaymentConfig{Provider: fromEnv.Provider, Environment: fromEnv.Environment}).
		Where("active = ?", true).
		First(&row).Error
	if err != nil {
		return fromEnv
	}
	return config.GatewayCredentials{
		Provider:    row.Provider,
		Environment: row.Environment,
		AppID:       row.AppID,
		LocationID:  row.LocationID,
		ClientID:    row.ClientID,
		Secret:      row.Secret,
		AccessToken: row.AccessToken,
	}
}

func buildPaymentRegistry() (*payments.Registry, *payments.CashAppGateway) {
	cashApp := payments.NewCashAppGateway(gatewayCredentials(config.CashAppCredentials()))
	registry := payments.NewRegistry(
		payments.NewSquareGateway(gatewayCredentials(config.SquareCredentials())),
		payments.NewPayPalGateway(gatewayCredentials(config.PayPalCredentials())),
		cashApp,
	)
	return registry, cashApp
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	go boot.InitBroker()

	registry, cashApp := buildPaymentRegistry()
	registry.Initialize(context.Background())
	defer registry.Close()

	if err := lib.PingRedis(context.Background()); err != nil {
		log.Printf("Redis is unavailable, wizard sessions will fail: %s\n", err.Error())
	}
	store := wizard.NewRedisStore(lib.GetRedisClient())

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	registerValidators()

	router = maintenanceModeMiddleware(router)

	publicRoutes(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized.
			GET("/users/me", func(ctx *gin.Context) {
				var user models.User
				userId := ctx.GetUint("id")
				db := db.GetDb()
				if err := db.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
					ctx.Status(http.StatusBadRequest)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"data": user})
			})

		authorized = eventHandlers(authorized)
		authorized = wizardHandlers(authorized, store)
		authorized = venueHandlers(authorized)
		authorized = ticketHandlers(authorized)
		authorized = orderHandlers(authorized)
		authorized = teamHandlers(authorized)
		authorized = dashboardHandlers(authorized)
		authorized = settingsHandlers(authorized)
		authorized = paymentHandlers(authorized, registry, cashApp)

		admin := router.Group(apiPrefix)
		admin.Use(middlewares.AuthMiddleware, middlewares.RequireRole("admin"))
		adminPaymentHandlers(admin, registry)
		adminDashboardHandlers(admin)
	}

	if os.Getenv("TLS_ENABLE") == "true" {
		cwd, _ := os.Getwd()
		certpath := path.Join(cwd, "certificates", "localhost.pem")
		keypath := path.Join(cwd, "certificates", "localhost-key.pem")
		if err := router.RunTLS(":9090", certpath, keypath); err != nil {
			log.Fatalf("Failed to start server: %s", err)
		}
	}
	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
