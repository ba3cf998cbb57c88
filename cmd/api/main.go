package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"dinehub/internal/adapter/api"
	"dinehub/internal/adapter/api/handler"
	apimiddleware "dinehub/internal/adapter/api/middleware"
	"dinehub/internal/adapter/api/router"
	"dinehub/internal/adapter/repository"
	"dinehub/internal/infrastructure/firebase"
	redisinfra "dinehub/internal/infrastructure/redis"
	"dinehub/internal/infrastructure/websocket"
	"dinehub/internal/usecase"
	"dinehub/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	sessionRepo := repository.NewFirestoreSupportSessionRepository(firestoreClient)
	orderRepo := repository.NewFirestoreOrderRepository(firestoreClient)
	customerRepo := repository.NewFirestoreCustomerRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	var notifier usecase.Notifier
	switch cfg.NotifierDriver {
	case "redis":
		publisher, err := redisinfra.NewPublisher(&redisinfra.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer publisher.Close()
		notifier = publisher
	default:
		notifier = websocket.NewNotifier(wsManager)
	}

	supportChatUseCase := usecase.NewSupportChatUseCase(sessionRepo, orderRepo, customerRepo, notifier)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(customerRepo)

	supportChatHandler := handler.NewSupportChatHandler(supportChatUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, customerRepo)
	healthHandler := handler.NewHealthHandler(firebaseAuthClient)

	router.SetupSupportChatRouter(e, supportChatHandler, authMiddleware, adminMiddleware)
	router.SetupWebSocketRouter(e, wsHandler, authMiddleware)
	router.SetupHealthRouter(e, healthHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
