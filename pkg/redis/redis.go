package redis

import (
	"ScanCheckout/internal/entity"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sessionKeyPrefix = "scan:session:"

type IRedis interface {
	SaveSnapshot(ctx context.Context, snap entity.SessionSnapshot) error
	GetSnapshot(ctx context.Context, id string) (entity.SessionSnapshot, bool, error)
	DeleteSnapshot(ctx context.Context, id string) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	ttl, err := time.ParseDuration(os.Getenv("REDIS_SESSION_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
	}

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// SaveSnapshot overwrites the stored snapshot and refreshes its TTL.
func (r *redisClient) SaveSnapshot(ctx context.Context, snap entity.SessionSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, sessionKey(snap.ID), payload, r.ttl).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error saving snapshot for session %s: %v", snap.ID, err))
		return err
	}
	return nil
}

func (r *redisClient) GetSnapshot(ctx context.Context, id string) (entity.SessionSnapshot, bool, error) {
	val, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Snapshot not found for session %s", id))
		return entity.SessionSnapshot{}, false, nil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting snapshot for session %s: %v", id, err))
		return entity.SessionSnapshot{}, false, err
	}

	var snap entity.SessionSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return entity.SessionSnapshot{}, false, fmt.Errorf("corrupt snapshot for session %s: %w", id, err)
	}
	return snap, true, nil
}

func (r *redisClient) DeleteSnapshot(ctx context.Context, id string) error {
	result, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error deleting snapshot for session %s: %v", id, err))
		return err
	}

	if result == 0 {
		logrus.Debug(fmt.Sprintf("Snapshot for session %s not found for deletion", id))
	}
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
