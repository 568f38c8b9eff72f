// In file: internal/usage/ledger.go
package usage

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"

	"github.com/redis/go-redis/v9"
)

// costKeyTTL keeps a monthly cost key a little longer than a month.
const costKeyTTL = 35 * 24 * time.Hour

// ModelUsage is the aggregate usage of one model across all conversations.
type ModelUsage struct {
	ModelID           string  `json:"model_id"`
	AvgLatencyMS      int64   `json:"avg_latency_ms"`
	TotalSuccesses    int64   `json:"total_successes"`
	TotalFailures     int64   `json:"total_failures"`
	ErrorRate         float64 `json:"error_rate"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	CostSpentMonthly  float64 `json:"cost_spent_monthly"`
}

// Ledger records per-model chat usage in Redis. Ledger errors never fail a
// chat turn; they are logged.
type Ledger struct {
	rdb    redis.UniversalClient
	prices PriceTable
	now    func() time.Time
}

func NewLedger(rdb redis.UniversalClient, prices PriceTable) *Ledger {
	return &Ledger{rdb: rdb, prices: prices, now: time.Now}
}

func (l *Ledger) usageKey(modelID string) string {
	return fmt.Sprintf("usage:%s", modelID)
}

func (l *Ledger) costKey(modelID string) string {
	return fmt.Sprintf("cost:%s:%s", modelID, l.now().Format("2006-01"))
}

// Get returns the aggregate usage of a model. A model never seen returns a
// zero-valued record.
func (l *Ledger) Get(ctx context.Context, modelID string) (*ModelUsage, error) {
	data, err := l.rdb.HGetAll(ctx, l.usageKey(modelID)).Result()
	if err != nil {
		return nil, err
	}
	u := &ModelUsage{ModelID: modelID}
	u.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	u.TotalSuccesses, _ = strconv.ParseInt(data["total_successes"], 10, 64)
	u.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	u.ErrorRate, _ = strconv.ParseFloat(data["error_rate"], 64)
	u.TotalInputTokens, _ = strconv.ParseInt(data["total_input_tokens"], 10, 64)
	u.TotalOutputTokens, _ = strconv.ParseInt(data["total_output_tokens"], 10, 64)

	cost, err := l.rdb.Get(ctx, l.costKey(modelID)).Float64()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	u.CostSpentMonthly = cost
	return u, nil
}

// RecordSuccess adds a completed turn to the model's totals and returns its
// cost.
func (l *Ledger) RecordSuccess(ctx context.Context, modelID string, latency time.Duration, u api.Usage) float64 {
	key := l.usageKey(modelID)
	const alpha = 0.1

	err := l.rdb.Watch(ctx, func(tx *redis.Tx) error {
		currentStr, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		newLatency := latency.Milliseconds()
		if current, perr := strconv.ParseInt(currentStr, 10, 64); perr == nil {
			newLatency = int64(alpha*float64(latency.Milliseconds()) + (1.0-alpha)*float64(current))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", newLatency)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating latency for %s: %v", modelID, err)
	}

	cost := l.prices.Lookup(modelID).Cost(u.PromptTokens, u.CompletionTokens)
	costKey := l.costKey(modelID)

	pipe := l.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_input_tokens", int64(u.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_output_tokens", int64(u.CompletionTokens))
	pipe.IncrByFloat(ctx, costKey, cost)
	pipe.Expire(ctx, costKey, costKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Printf("Error in usage success pipeline for %s: %v", modelID, err)
		return cost
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	l.updateErrorRate(ctx, key, successes.Val(), totalFailures)
	return cost
}

// RecordFailure counts a failed turn against the model.
func (l *Ledger) RecordFailure(ctx context.Context, modelID string) {
	key := l.usageKey(modelID)
	pipe := l.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Printf("Error in usage failure pipeline for %s: %v", modelID, err)
		return
	}
	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	l.updateErrorRate(ctx, key, totalSuccesses, failures.Val())
}

func (l *Ledger) updateErrorRate(ctx context.Context, key string, successes, failures int64) {
	total := successes + failures
	if total == 0 {
		return
	}
	if err := l.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total)).Err(); err != nil {
		log.Printf("Error updating error rate for %s: %v", key, err)
	}
}
