// Package dig implements logic for dependency injection using uber-go/dig.

package dig

import (
	"fmt"

	"catchall-api/internal/api/v1/rest/handlers"
	"catchall-api/internal/bus/amqp"
	amqpHandlers "catchall-api/internal/bus/handlers"
	"catchall-api/internal/cache"
	cli2 "catchall-api/internal/cli"
	"catchall-api/internal/command"
	commandCapture "catchall-api/internal/command/capture"
	commandHTTP "catchall-api/internal/command/http"
	commandMessenger "catchall-api/internal/command/messenger"
	commandStorage "catchall-api/internal/command/storage"
	"catchall-api/internal/config"
	"catchall-api/internal/forwarder/forwarder"
	"catchall-api/internal/logger"
	"catchall-api/internal/metrics"
	"catchall-api/internal/recorder/recorder"
	"catchall-api/internal/s3/s3"
	"catchall-api/internal/storage/v1/psql"
	"catchall-api/internal/syncutils"

	"go.uber.org/dig"
)

var definitions = []interface{}{
	handlers.NewEndpointHandlers,
	commandCapture.NewListCommand,
	commandCapture.NewInspectCommand,
	commandCapture.NewPurgeCommand,
	commandCapture.NewArchiveCommand,
	commandCapture.NewReplayCommand,
	commandHTTP.NewServeCommand,
	commandStorage.NewMigrateCommand,
	commandStorage.NewResetCommand,
	commandMessenger.NewConsumeCommand,
	commandMessenger.NewPublishCommand,
	config.NewConfig,
	logger.NewLog,
	forwarder.NewForwarder,
	metrics.NewMetrics,
	recorder.NewRecorder,
	s3.NewService,
	psql.NewStorage,
	cli2.NewApp,
	syncutils.NewSyncUtils,
	amqp.NewAMQP,
	amqpHandlers.NewAMQPHandler,
	func(cfg *config.Config) *cache.LRU { return cache.NewLRU(cfg.Capture.CacheCapacity) },
	func(st *psql.Storage) recorder.CaptureStore { return st },
	func(c *cache.LRU) recorder.CaptureCache { return c },
	func(bus *amqp.AMQP) recorder.CapturePublisher { return bus },
}

func buildContainer() (*dig.Container, error) {
	container := dig.New()

	for _, definition := range definitions {
		if err := container.Provide(definition); err != nil {
			return nil, fmt.Errorf("failed to provide service: %w", err)
		}
	}

	if err := commands(container); err != nil {
		return nil, fmt.Errorf("failed to provide commands: %w", err)
	}

	return container, nil
}

func commands(container *dig.Container) error {
	if err := container.Provide(func(
		httpServeCommand *commandHTTP.ServeCommand,
		captureListCommand *commandCapture.ListCommand,
		captureInspectCommand *commandCapture.InspectCommand,
		capturePurgeCommand *commandCapture.PurgeCommand,
		captureArchiveCommand *commandCapture.ArchiveCommand,
		captureReplayCommand *commandCapture.ReplayCommand,
		migrateCommand *commandStorage.MigrateCommand,
		storageResetCommand *commandStorage.ResetCommand,
		consumeCommand *commandMessenger.ConsumeCommand,
		publishCommand *commandMessenger.PublishCommand,

	) []command.Command {
		return []command.Command{
			httpServeCommand,
			captureListCommand,
			captureInspectCommand,
			capturePurgeCommand,
			captureArchiveCommand,
			captureReplayCommand,
			migrateCommand,
			storageResetCommand,
			consumeCommand,
			publishCommand,
		}
	}); err != nil {
		return fmt.Errorf("failed to define application: %w", err)
	}

	return nil
}
