// Command purge-relations is the EventBridge consumer that drops the relations of
// deleted words.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"lexivault/infrastructure/config"
	"lexivault/infrastructure/di"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	handler := NewPurgeHandler(container.CommandBus, container.Logger)
	lambda.Start(handler.Handle)
}
