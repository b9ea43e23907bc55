package amqp

import (
	"io"

	"fluxo/internal/log"
)

func testLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	cfg.Component = log.ComponentAMQP
	return log.New(cfg)
}
