package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/config"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/transport/lambdatransport"
)

func main() {
	cfg, err := config.Load()
	logger := app.NewLogger(os.Stderr, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	rt, err := app.Wire(context.Background(), cfg, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire service")
	}
	defer rt.Close()

	h := lambdatransport.NewHandler(rt.Service, logger.With().Str("component", "lambda").Logger())
	lambda.Start(h.Handle)
}
