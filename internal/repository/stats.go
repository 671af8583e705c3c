package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

const statsKey = "stats:sessions"

// StatsRepository keeps session lifecycle counters in a Redis hash.
type StatsRepository struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) *StatsRepository {
	return &StatsRepository{
		client: client,
	}
}

func (that *StatsRepository) Record(ctx context.Context, event entity.StatsEvent) error {
	if err := that.client.HIncrBy(ctx, statsKey, string(event), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment %s: %w", event, err)
	}

	return nil
}

func (that *StatsRepository) Get(ctx context.Context) (*entity.Stats, error) {
	values, err := that.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := &entity.Stats{}
	counters := map[entity.StatsEvent]*int64{
		entity.StatsStarted:   &stats.Started,
		entity.StatsWon:       &stats.Won,
		entity.StatsDraw:      &stats.Draw,
		entity.StatsAbandoned: &stats.Abandoned,
	}

	for event, counter := range counters {
		raw, ok := values[string(event)]
		if !ok {
			continue
		}

		if *counter, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("failed to parse %s counter: %w", event, err)
		}
	}

	return stats, nil
}
