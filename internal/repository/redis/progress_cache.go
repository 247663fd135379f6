package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// progressTTL bounds how long a stale progress key can linger if a tournament
// worker crashes before clearing it.
const progressTTL = 24 * time.Hour

func progressKey(simulationID string) string { return "simulation:" + simulationID + ":games_completed" }

// SetGamesCompleted records the live games_completed counter for a running
// simulation. Called on every Runner progress checkpoint, ahead of the
// slower Postgres write.
func (c *Client) SetGamesCompleted(ctx context.Context, simulationID string, gamesCompleted int) error {
	err := c.rdb.Set(ctx, progressKey(simulationID), gamesCompleted, progressTTL).Err()
	if err != nil {
		return fmt.Errorf("set games completed: %w", err)
	}
	return nil
}

// GamesCompleted returns the cached games_completed counter for a
// simulation. The second return value is false if no value is cached
// (caller should fall back to Postgres).
func (c *Client) GamesCompleted(ctx context.Context, simulationID string) (int, bool, error) {
	val, err := c.rdb.Get(ctx, progressKey(simulationID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get games completed: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("parse games completed: %w", err)
	}
	return n, true, nil
}

// Clear removes the progress key once a simulation has reached a terminal
// status and Postgres holds the authoritative final count.
func (c *Client) Clear(ctx context.Context, simulationID string) error {
	if err := c.rdb.Del(ctx, progressKey(simulationID)).Err(); err != nil {
		return fmt.Errorf("clear progress cache: %w", err)
	}
	return nil
}
