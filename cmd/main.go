package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"roadgenie/handler"
	"roadgenie/internal/integrations/gemini"
	"roadgenie/internal/integrations/nominatim"
	"roadgenie/internal/integrations/osrm"
	"roadgenie/internal/integrations/paramstore"
	"roadgenie/internal/repository"
	"roadgenie/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	historyLimit := envInt("HISTORY_LIMIT", 50)
	llmTimeout := envDurationMs("LLM_TIMEOUT_MS", 15000)
	geocodeTimeout := envDurationMs("GEOCODE_TIMEOUT_MS", 5000)
	routeTimeout := envDurationMs("ROUTE_TIMEOUT_MS", 10000)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	store, err := repository.New(dynamoClient, stateTable)
	if err != nil {
		slog.Error("failed to create conversation store", "err", err)
		os.Exit(1)
	}

	geminiOpts := []gemini.Option{gemini.WithHTTPClient(&http.Client{Timeout: llmTimeout})}
	if base := os.Getenv("GEMINI_BASE_URL"); base != "" {
		geminiOpts = append(geminiOpts, gemini.WithBaseURL(base))
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		geminiOpts = append(geminiOpts, gemini.WithModel(model))
	}
	llmClient, err := gemini.NewClient(ssmClient, paramPrefix, geminiOpts...)
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}

	geocoder := nominatim.NewClient(
		nominatim.WithBaseURL(os.Getenv("NOMINATIM_BASE_URL")),
		nominatim.WithHTTPClient(&http.Client{Timeout: geocodeTimeout}),
	)
	router := osrm.NewClient(
		osrm.WithBaseURL(os.Getenv("OSRM_BASE_URL")),
		osrm.WithHTTPClient(&http.Client{Timeout: routeTimeout}),
	)

	// ---- Handler ----
	chatService, err := usecase.NewChatService(llmClient, geocoder, router, store, historyLimit)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDurationMs(key string, defMs int) time.Duration {
	return time.Duration(envInt(key, defMs)) * time.Millisecond
}
