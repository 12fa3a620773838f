package main

import (
	"context"
	"log"
	"net/http"

	"divvy-backend/internal/config"
	"divvy-backend/internal/repository"
	"divvy-backend/internal/repository/ddb"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// contextKey avoids collisions with other packages' context values.
type contextKey struct {
	name string
}

var userIDKey = contextKey{"userID"}

var (
	chiLambda *chiadapter.ChiLambdaV2
	repo      repository.Repository
	validate  *validator.Validate
	logger    *zap.Logger
)

func init() {
	cfg := config.LoadConfig()

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(cfg.Region))
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}

	dbClient := ddb.NewInstrumentedClient(
		dynamodb.NewFromConfig(awsCfg),
		logger,
		prometheus.DefaultRegisterer,
	)
	repo = ddb.NewRepository(
		dbClient,
		repository.NewConfig(cfg.TableName, cfg.IndexName),
		repository.NewSequencedIDGenerator(),
		logger,
	)
	validate = validator.New()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticator)

		r.Post("/users", createUserHandler)
		r.Get("/users", getAllUsersHandler)
		r.Get("/users/{userId}", getUserHandler)

		r.Post("/transactions", createTransactionHandler)
		r.Get("/transactions", getTransactionsHandler)
		r.Get("/transactions/{txnId}", getTransactionHandler)
		r.Put("/transactions/{txnId}", updateTransactionHandler)
		r.Delete("/transactions/{txnId}", deleteTransactionHandler)

		r.Get("/transactions/shared/range", getSharedTransactionsByUserHandler)
		r.Post("/transactions/shared/settle", settleTransactionsHandler)

		r.Post("/trackers", createTrackerHandler)
		r.Get("/trackers", getTrackersByUserHandler)
		r.Get("/trackers/{trackerId}", getTrackerHandler)

		r.Route("/trackers/{trackerId}/transactions", func(r chi.Router) {
			r.Post("/", createSharedTransactionHandler)
			r.Get("/", getTransactionsByTrackerHandler)
			r.Get("/unsettled", getUnsettledTransactionsHandler)
			r.Put("/{txnId}", updateSharedTransactionHandler)
			r.Delete("/{txnId}", deleteSharedTransactionHandler)
		})
	})

	chiLambda = chiadapter.NewV2(r)

	logger.Info("service initialized",
		zap.String("table", cfg.TableName),
		zap.String("index", cfg.IndexName))
}

// Authenticator resolves the calling user from the API Gateway JWT
// authorizer; session issuance itself lives outside this service.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
		if !ok {
			logger.Error("could not get proxy request context")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		userID, ok := proxyCtx.Authorizer.Lambda["sub"].(string)
		if !ok || userID == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
