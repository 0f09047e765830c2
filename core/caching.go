package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// statusCacheVersion defines the version of the cached status layout.
const statusCacheVersion = 1

// statusCacheTTL bounds how long a cached snapshot stays usable.
const statusCacheTTL = 24 * time.Hour

// cachedMemberStatus returns a member's status snapshot, served from the
// cache store when possible. The key covers the window bounds, the record
// count and the evaluation day, so new records or a new day invalidate the
// entry naturally.
func cachedMemberStatus(ctx context.Context, engine *Engine, cache contract.CacheStore, member schema.Member, window *schema.ComplianceWindow, state *schema.MilestoneState, now time.Time) (*schema.MemberStatus, error) {
	if cache == nil || window == nil {
		return engine.buildStatus(ctx, member, window, state, now)
	}

	key, err := statusCacheKey(ctx, engine.source, member.MemberID, *window, state, now)
	if err != nil {
		// A source that cannot even count records will not serve a fetch
		// either, so surface the failure.
		return nil, err
	}

	if status := checkStatusCacheHit(cache, key); status != nil {
		return status, nil
	}

	status, err := engine.buildStatus(ctx, member, window, state, now)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(status); err == nil {
		if err := cache.Set(key, data, statusCacheVersion, now.Unix()); err != nil {
			contract.LogWarn("status cache write failed", err)
		}
	}
	return status, nil
}

// statusCacheKey hashes everything a snapshot depends on.
func statusCacheKey(ctx context.Context, source contract.SeriesSource, memberID string, window schema.ComplianceWindow, state *schema.MilestoneState, now time.Time) (string, error) {
	count, err := source.RecordCount(ctx, memberID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contract.ErrSourceUnavailable, err)
	}

	var stateTag string
	if state != nil {
		stateTag = fmt.Sprintf("%s|%t|%t", state.Effective(), state.Forgiven, state.Final)
	}

	raw := fmt.Sprintf("%s|%s|%s|%d|%s|%d|%d|%s|%s",
		memberID,
		window.Kind,
		window.Start.Format(schema.DayFormat),
		window.Sequence,
		window.End.Format(schema.DayFormat),
		window.Threshold,
		count,
		contract.Day(now).Format(schema.DayFormat),
		stateTag,
	)
	return fmt.Sprintf("status:%x", sha256.Sum256([]byte(raw))), nil
}

// checkStatusCacheHit attempts to retrieve and validate a cached snapshot.
func checkStatusCacheHit(cache contract.CacheStore, key string) *schema.MemberStatus {
	data, version, ts, err := cache.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	if version != statusCacheVersion {
		return nil
	}
	if time.Since(time.Unix(ts, 0)) > statusCacheTTL {
		return nil
	}

	var status schema.MemberStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil
	}
	return &status
}
