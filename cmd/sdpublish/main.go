package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicediscovery/sdclient"
	"servicediscovery/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		return 1
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_name", config.Registration.ServiceName,
		"ttl", config.Registration.TTL,
		"heartbeat", config.Heartbeat,
	)

	client, err := sdclient.New(sdclient.Config{
		URL:            config.URL,
		AuthToken:      config.AuthToken,
		HTTP2:          config.HTTP2,
		RequestTimeout: config.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		level.Error(logger).Log("msg", "Failed to create registry client", "err", err)
		return 1
	}

	publisher, err := client.NewPublisher(config.Registration)
	if err != nil {
		level.Error(logger).Log("msg", "Invalid registration", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := publisher.Register(ctx, config.Heartbeat)
	if err != nil {
		level.Error(logger).Log("msg", "Failed to register", "err", err)
		return 1
	}
	level.Info(logger).Log("msg", "Registered", "id", reg.ID, "registry", client.BaseURL(), "heartbeat_url", reg.Links.Heartbeat)

	exitCode := 0
	if config.Heartbeat {
		select {
		case <-ctx.Done():
		case <-publisher.HeartbeatDone():
			level.Error(logger).Log("msg", "Heartbeats stopped", "err", publisher.HeartbeatErr())
			exitCode = 1
		}
	} else {
		<-ctx.Done()
	}
	level.Info(logger).Log("msg", "Deregistering", "id", reg.ID)

	deregisterCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.Deregister(deregisterCtx); err != nil {
		// The instance is already gone when the heartbeater stopped on a 410.
		if !service.IsResourceGoneError(err) {
			level.Error(logger).Log("msg", "Failed to deregister", "err", err)
			return 1
		}
	}

	level.Info(logger).Log("msg", "Publisher stopped")
	return exitCode
}
