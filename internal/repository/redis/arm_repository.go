package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"outfitJourney/business/bandit"

	"github.com/redis/go-redis/v9"
)

var _ bandit.ArmRepository = (*ArmRepository)(nil)

// field suffixes inside the per-identity hash
const (
	fieldAlpha   = "a"
	fieldBeta    = "b"
	fieldPulls   = "n"
	fieldUpdated = "t"
)

// upgradeScript applies ARGV[5] upgrades to one arm. KEYS[1] is the hash,
// ARGV[1..3] the alpha, beta and pulls fields, ARGV[4] the prior β floor.
var upgradeScript = redis.NewScript(`
local beta = tonumber(redis.call('HGET', KEYS[1], ARGV[2]))
local floor = tonumber(ARGV[4])
for i = 1, tonumber(ARGV[5]) do
	redis.call('HINCRBYFLOAT', KEYS[1], ARGV[1], 1)
	if beta - 1 >= floor then
		beta = beta - 1
		redis.call('HINCRBYFLOAT', KEYS[1], ARGV[2], -1)
	else
		redis.call('HINCRBY', KEYS[1], ARGV[3], 1)
	end
end
return 1
`)

// ArmRepository keeps one hash per identity:
// "bandit:arms:{identity_key}" -> "<outfit_id>:a|b|n|t".
type ArmRepository struct {
	client *redis.Client
}

func NewArmRepository(client *redis.Client) *ArmRepository {
	return &ArmRepository{
		client: client,
	}
}

func armsKey(identityKey string) string {
	return fmt.Sprintf("bandit:arms:%s", identityKey)
}

func armField(outfitID uint64, suffix string) string {
	return strconv.FormatUint(outfitID, 10) + ":" + suffix
}

func (r *ArmRepository) GetArms(ctx context.Context, identityKey string) (map[uint64]bandit.ArmState, error) {
	raw, err := r.client.HGetAll(ctx, armsKey(identityKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[uint64]bandit.ArmState{}, nil
		}
		return nil, fmt.Errorf("failed to get arms from Redis: %w", err)
	}

	return decodeArms(raw)
}

// IncrementArms seeds missing arms at the prior with HSETNX, adds the delta
// with HINCRBYFLOAT and runs upgrades through upgradeScript, all inside one
// MULTI block.
func (r *ArmRepository) IncrementArms(
	ctx context.Context,
	identityKey string,
	prior bandit.ArmState,
	deltas []bandit.ArmDelta,
) error {

	if len(deltas) == 0 {
		return nil
	}

	key := armsKey(identityKey)
	now := time.Now().UnixNano()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range deltas {
			pipe.HSetNX(ctx, key, armField(d.OutfitID, fieldAlpha), prior.Alpha)
			pipe.HSetNX(ctx, key, armField(d.OutfitID, fieldBeta), prior.Beta)
			pipe.HSetNX(ctx, key, armField(d.OutfitID, fieldPulls), prior.Pulls)

			pipe.HIncrByFloat(ctx, key, armField(d.OutfitID, fieldAlpha), d.Alpha)
			pipe.HIncrByFloat(ctx, key, armField(d.OutfitID, fieldBeta), d.Beta)
			pipe.HIncrBy(ctx, key, armField(d.OutfitID, fieldPulls), d.Pulls)
			if d.Upgrades > 0 {
				upgradeScript.Eval(ctx, pipe, []string{key},
					armField(d.OutfitID, fieldAlpha),
					armField(d.OutfitID, fieldBeta),
					armField(d.OutfitID, fieldPulls),
					prior.Beta,
					d.Upgrades,
				)
			}
			pipe.HSet(ctx, key, armField(d.OutfitID, fieldUpdated), now)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment arms in Redis: %w", err)
	}

	return nil
}

func (r *ArmRepository) CountArms(ctx context.Context, identityKey string) (int, error) {
	n, err := r.client.HLen(ctx, armsKey(identityKey)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count arms in Redis: %w", err)
	}

	// four fields per arm
	return int(n / 4), nil
}

// PruneArms drops all but the keep most recently updated arms. The read and
// delete run under WATCH so a concurrent increment aborts the prune.
func (r *ArmRepository) PruneArms(ctx context.Context, identityKey string, keep int) (int, error) {
	key := armsKey(identityKey)
	dropped := 0

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGetAll(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		arms, err := decodeArms(raw)
		if err != nil {
			return err
		}
		if len(arms) <= keep {
			return nil
		}

		ids := make([]uint64, 0, len(arms))
		for id := range arms {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			ti, tj := arms[ids[i]].LastUpdated, arms[ids[j]].LastUpdated
			if ti.Equal(tj) {
				return ids[i] < ids[j]
			}
			return ti.Before(tj)
		})

		victims := ids[:len(ids)-keep]
		fields := make([]string, 0, len(victims)*4)
		for _, id := range victims {
			fields = append(fields,
				armField(id, fieldAlpha),
				armField(id, fieldBeta),
				armField(id, fieldPulls),
				armField(id, fieldUpdated),
			)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, key, fields...)
			return nil
		})
		if err != nil {
			return err
		}

		dropped = len(victims)
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// lost the race to an increment; the next update prunes again
			return 0, nil
		}
		return 0, fmt.Errorf("failed to prune arms in Redis: %w", err)
	}

	return dropped, nil
}

func decodeArms(raw map[string]string) (map[uint64]bandit.ArmState, error) {
	arms := make(map[uint64]bandit.ArmState, len(raw)/4)

	for field, val := range raw {
		idx := strings.LastIndexByte(field, ':')
		if idx <= 0 {
			continue
		}
		outfitID, err := strconv.ParseUint(field[:idx], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid arm field %q: %w", field, err)
		}

		arm := arms[outfitID]
		switch field[idx+1:] {
		case fieldAlpha:
			arm.Alpha, err = strconv.ParseFloat(val, 64)
		case fieldBeta:
			arm.Beta, err = strconv.ParseFloat(val, 64)
		case fieldPulls:
			arm.Pulls, err = strconv.ParseInt(val, 10, 64)
		case fieldUpdated:
			var nanos int64
			nanos, err = strconv.ParseInt(val, 10, 64)
			arm.LastUpdated = time.Unix(0, nanos)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid arm value %q=%q: %w", field, val, err)
		}
		arms[outfitID] = arm
	}

	return arms, nil
}
