package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/HSouheill/homeservices_backend/config"
	"github.com/HSouheill/homeservices_backend/controllers"
	"github.com/HSouheill/homeservices_backend/middleware"
	"github.com/HSouheill/homeservices_backend/repositories"
	"github.com/HSouheill/homeservices_backend/routes"
	"github.com/HSouheill/homeservices_backend/services"
	"github.com/HSouheill/homeservices_backend/utils"
	"github.com/HSouheill/homeservices_backend/websocket"
)

type stores struct {
	requests  repositories.RequestStore
	providers repositories.ProviderDirectory
	users     repositories.UserDirectory
	close     func()
}

func openStores(s config.Settings) stores {
	if s.StoreDriver == config.DriverMemory {
		log.Println("Using in-memory stores, data is lost on restart")
		return stores{
			requests:  repositories.NewMemoryRequestStore(),
			providers: repositories.NewMemoryProviderDirectory(),
			users:     repositories.NewMemoryUserDirectory(),
			close:     func() {},
		}
	}

	client := config.ConnectDB(s)
	db := client.Database(s.DBName)
	return stores{
		requests:  repositories.NewRequestRepository(db),
		providers: repositories.NewProviderRepository(db),
		users:     repositories.NewUserRepository(db),
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Printf("MongoDB disconnect error: %v", err)
			}
		},
	}
}

func main() {
	settings := config.Load()
	if settings.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStores(settings)
	defer st.close()

	// Websocket hub, relayed through Redis when more than one instance runs
	hub := websocket.NewHub()
	go hub.Run(ctx)

	var bus services.Publisher = hub
	if rdb := config.ConnectRedis(settings); rdb != nil {
		defer rdb.Close()
		relay := websocket.NewRedisRelay(hub, rdb, websocket.DefaultRelayChannel)
		go relay.Run(ctx)
		bus = relay
	}

	var collab services.Collaborators
	if fcm := config.InitMessaging(settings); fcm != nil {
		collab.Offers = services.NewPushNotifier(fcm)
	}
	if settings.SMTPHost != "" {
		collab.Receipts = services.NewMailReceiptSender(st.users, services.SMTPConfig{
			Host:     settings.SMTPHost,
			Port:     settings.SMTPPort,
			User:     settings.SMTPUser,
			Password: settings.SMTPPass,
			From:     settings.SMTPFrom,
		})
	}
	if len(settings.KafkaBrokers) > 0 {
		sink := services.NewKafkaLifecycleSink(settings.KafkaBrokers, settings.KafkaLifecycleTopic)
		defer func() {
			if err := sink.Close(); err != nil {
				log.Printf("Kafka writer close error: %v", err)
			}
		}()
		collab.Lifecycle = sink
	}

	scheduler := services.NewTimerScheduler()
	defer scheduler.Stop()

	// Services
	matching := services.NewMatchingService(st.providers, st.requests, settings.MatchRadiusMeters)
	requestService := services.NewRequestService(st.requests, st.providers, st.users, matching, bus, collab)
	dispatch := services.NewDispatchCoordinator(st.requests, st.providers, bus, collab)
	machine := services.NewStatusStateMachine(st.requests, st.providers, bus, scheduler, settings.AutoStartDelay, collab)
	providerService := services.NewProviderService(st.providers)

	auth := middleware.NewAuth(settings.JWTSecret, st.users)

	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(settings.ClientURL)))
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		ConnectSources: settings.ConnectSources(),
		HSTS:           settings.IsProduction(),
	}))
	e.Use(rateLimiter.RateLimit())

	routes.SetupRoutes(e, auth, routes.Handlers{
		Requests:  controllers.NewRequestController(requestService, dispatch, machine),
		Providers: controllers.NewProviderController(matching, providerService),
		Admin:     controllers.NewAdminController(requestService, providerService),
		Socket:    websocket.NewHandler(hub, auth, requestService, bus, settings.ClientURL),
	})

	go func() {
		if err := e.Start(":" + settings.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
