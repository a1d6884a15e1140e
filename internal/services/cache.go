package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resona-backend/internal/models"
)

// ErrCacheMiss is returned when no cached analysis exists for a key.
var ErrCacheMiss = errors.New("analysis not in cache")

// AnalysisCache is a TTL-bound redis cache of completed analyses. Results
// are stored under the job ID, with a videoId -> jobId index so a
// resubmitted URL resolves to its already-completed job.
type AnalysisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewAnalysisCache(redisClient *redis.Client, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{redis: redisClient, ttl: ttl}
}

func analysisKey(jobID string) string { return "analysis:" + jobID }
func videoKey(videoID string) string  { return "video_job:" + videoID }

func (c *AnalysisCache) Get(ctx context.Context, jobID string) (*models.SongAnalysis, error) {
	data, err := c.redis.Get(ctx, analysisKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache read failed: %w", err)
	}

	var analysis models.SongAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for job %s: %w", jobID, err)
	}
	return &analysis, nil
}

func (c *AnalysisCache) Set(ctx context.Context, jobID string, analysis *models.SongAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}

	pipe := c.redis.TxPipeline()
	pipe.Set(ctx, analysisKey(jobID), data, c.ttl)
	if analysis.Video.ID != "" {
		pipe.Set(ctx, videoKey(analysis.Video.ID), jobID, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// JobForVideo resolves a video ID to the job that already analyzed it.
func (c *AnalysisCache) JobForVideo(ctx context.Context, videoID string) (string, error) {
	jobID, err := c.redis.Get(ctx, videoKey(videoID)).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache read failed: %w", err)
	}
	return jobID, nil
}

// Delete purges a job's cached result and its video index entry.
func (c *AnalysisCache) Delete(ctx context.Context, jobID string) error {
	if analysis, err := c.Get(ctx, jobID); err == nil && analysis.Video.ID != "" {
		c.redis.Del(ctx, videoKey(analysis.Video.ID))
	}
	return c.redis.Del(ctx, analysisKey(jobID)).Err()
}
