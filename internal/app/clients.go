package app

import (
	"fmt"
	"os"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/platform/openai"
	"github.com/speechsmith/speechsmith-backend/internal/realtime/bus"
)

type Clients struct {
	OpenAI openai.Client

	// Bus and Redis are nil when REDIS_ADDR is unset; the app then runs
	// single-replica with in-process SSE delivery only.
	Bus   bus.Bus
	Redis *goredis.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	var sseBus bus.Bus
	var rdb *goredis.Client
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		sseBus = b
		rdb = goredis.NewClient(&goredis.Options{Addr: addr})
	} else {
		log.Warn("REDIS_ADDR not set; SSE fan-out is in-process only")
	}

	return Clients{
		OpenAI: openaiClient,
		Bus:    sseBus,
		Redis:  rdb,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
