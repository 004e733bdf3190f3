// Package redis stores habits and their history in Redis hashes and sorted sets.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"
)

const backendName = "redis"

var epoch = domain.NewDate(1970, time.January, 1)

// Options configures the Redis connection.
type Options struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	QueryTimeout time.Duration
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// Repository implements repository.Repository on Redis.
//
// Layout, relative to the key prefix:
//
//	habits                 hash  habit id -> habit JSON
//	log:<date>             hash  habit id -> log entry JSON
//	log_dates              zset  date, scored by days since 1970-01-01
//	habit_dates:<habit>    set   dates with an entry for the habit
//	nudges:<habit>         zset  "<at>|<date>", scored by unix millis
//	timers                 hash  habit id -> RFC3339 start
type Repository struct {
	rdb    *redis.Client
	opts   Options
	logger *zap.Logger
}

var _ repository.Repository = (*Repository)(nil)

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*Repository, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(ctx, rdb, opts)
}

// NewWithClient wraps an existing client.
func NewWithClient(ctx context.Context, rdb *redis.Client, opts Options) (*Repository, error) {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "ht"
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.NewStorageError("connect to redis", err)
	}

	return &Repository{
		rdb:    rdb,
		opts:   opts,
		logger: opts.Logger.With(zap.String("backend", backendName)),
	}, nil
}

func (r *Repository) Close() error {
	return r.rdb.Close()
}

func (r *Repository) key(parts ...string) string {
	return r.opts.KeyPrefix + ":" + strings.Join(parts, ":")
}

func (r *Repository) observe(operation string) func() {
	start := time.Now()
	return func() { metrics.ObserveStoreOperation(backendName, operation, start) }
}

func (r *Repository) fail(operation string, err error) error {
	if mapped := errors.FromContext(operation, err); mapped != err {
		return mapped
	}
	return errors.NewStorageError(operation, err)
}

func (r *Repository) skipCorrupt(resource, key string, err error) {
	r.logger.Warn("skipping unreadable record",
		zap.String("resource", resource),
		zap.String("key", key),
		zap.Error(errors.NewCorruptDataError(resource, key, err)))
}

func (r *Repository) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	defer r.observe("list_habits")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	raw, err := r.rdb.HGetAll(ctx, r.key("habits")).Result()
	if err != nil {
		return nil, r.fail("list habits", err)
	}

	habits := make([]domain.Habit, 0, len(raw))
	for id, data := range raw {
		habit, err := repository.DecodeHabit([]byte(data))
		if err != nil {
			r.skipCorrupt("habit", id, err)
			continue
		}
		habits = append(habits, habit)
	}
	repository.SortHabits(habits)
	return habits, nil
}

func (r *Repository) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	defer r.observe("get_habit")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	data, err := r.rdb.HGet(ctx, r.key("habits"), id).Result()
	if err == redis.Nil {
		return domain.Habit{}, errors.NewNotFoundError("habit", id)
	}
	if err != nil {
		return domain.Habit{}, r.fail("get habit", err)
	}

	habit, err := repository.DecodeHabit([]byte(data))
	if err != nil {
		r.skipCorrupt("habit", id, err)
		return domain.Habit{}, errors.NewNotFoundError("habit", id)
	}
	return habit, nil
}

func (r *Repository) UpsertHabit(ctx context.Context, habit domain.Habit) error {
	defer r.observe("upsert_habit")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	data, err := repository.EncodeHabit(habit)
	if err != nil {
		return errors.NewStorageError("encode habit", err)
	}
	if err := r.rdb.HSet(ctx, r.key("habits"), habit.ID, data).Err(); err != nil {
		return r.fail("upsert habit", err)
	}
	return nil
}

// DeleteHabit removes the habit and, in one MULTI block, its entries, nudges and timer.
func (r *Repository) DeleteHabit(ctx context.Context, id string) error {
	defer r.observe("delete_habit")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	exists, err := r.rdb.HExists(ctx, r.key("habits"), id).Result()
	if err != nil {
		return r.fail("delete habit", err)
	}
	if !exists {
		return errors.NewNotFoundError("habit", id)
	}

	dates, err := r.rdb.SMembers(ctx, r.key("habit_dates", id)).Result()
	if err != nil {
		return r.fail("delete habit", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.key("habits"), id)
		for _, date := range dates {
			pipe.HDel(ctx, r.key("log", date), id)
		}
		pipe.Del(ctx, r.key("habit_dates", id), r.key("nudges", id))
		pipe.HDel(ctx, r.key("timers"), id)
		return nil
	})
	if err != nil {
		return r.fail("delete habit", err)
	}
	return nil
}

func (r *Repository) GetLogEntries(ctx context.Context, date domain.Date) ([]domain.LogEntry, error) {
	return r.GetLogEntriesRange(ctx, date, date)
}

func (r *Repository) GetLogEntriesRange(ctx context.Context, from, to domain.Date) ([]domain.LogEntry, error) {
	defer r.observe("get_log_entries")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	dates, err := r.rdb.ZRangeByScore(ctx, r.key("log_dates"), &redis.ZRangeBy{
		Min: strconv.Itoa(from.DaysSince(epoch)),
		Max: strconv.Itoa(to.DaysSince(epoch)),
	}).Result()
	if err != nil {
		return nil, r.fail("get log entries", err)
	}

	var entries []domain.LogEntry
	for _, date := range dates {
		raw, err := r.rdb.HGetAll(ctx, r.key("log", date)).Result()
		if err != nil {
			return nil, r.fail("get log entries", err)
		}
		for habitID, data := range raw {
			if entry, ok := r.decodeEntry(habitID, date, data); ok {
				entries = append(entries, entry)
			}
		}
	}
	repository.SortLogEntries(entries)
	return entries, nil
}

func (r *Repository) ListLogEntriesForHabit(ctx context.Context, habitID string) ([]domain.LogEntry, error) {
	defer r.observe("list_log_entries")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	dates, err := r.rdb.SMembers(ctx, r.key("habit_dates", habitID)).Result()
	if err != nil {
		return nil, r.fail("list log entries", err)
	}

	var entries []domain.LogEntry
	for _, date := range dates {
		data, err := r.rdb.HGet(ctx, r.key("log", date), habitID).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, r.fail("list log entries", err)
		}
		if entry, ok := r.decodeEntry(habitID, date, data); ok {
			entries = append(entries, entry)
		}
	}
	repository.SortLogEntries(entries)
	return entries, nil
}

func (r *Repository) decodeEntry(habitID, date, data string) (domain.LogEntry, bool) {
	entry, err := repository.DecodeLogEntry([]byte(data))
	if err != nil {
		r.skipCorrupt("log entry", habitID+"/"+date, err)
		return domain.LogEntry{}, false
	}
	return entry, true
}

func (r *Repository) UpsertLogEntry(ctx context.Context, entry domain.LogEntry) error {
	defer r.observe("upsert_log_entry")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	data, err := repository.EncodeLogEntry(entry)
	if err != nil {
		return errors.NewStorageError("encode log entry", err)
	}
	date := entry.Date.String()

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key("log", date), entry.HabitID, data)
		pipe.ZAdd(ctx, r.key("log_dates"), redis.Z{Score: float64(entry.Date.DaysSince(epoch)), Member: date})
		pipe.SAdd(ctx, r.key("habit_dates", entry.HabitID), date)
		return nil
	})
	if err != nil {
		return r.fail("upsert log entry", err)
	}
	return nil
}

func (r *Repository) DeleteLogEntry(ctx context.Context, habitID string, date domain.Date) error {
	defer r.observe("delete_log_entry")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.key("log", date.String()), habitID)
		pipe.SRem(ctx, r.key("habit_dates", habitID), date.String())
		return nil
	})
	if err != nil {
		return r.fail("delete log entry", err)
	}
	return nil
}

func nudgeMember(n domain.Nudge) string {
	return n.At.UTC().Format(time.RFC3339Nano) + "|" + n.Date.String()
}

func parseNudgeMember(habitID, member string) (domain.Nudge, error) {
	at, date, ok := strings.Cut(member, "|")
	if !ok {
		return domain.Nudge{}, fmt.Errorf("malformed nudge %q", member)
	}
	parsedAt, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return domain.Nudge{}, err
	}
	parsedDate, err := domain.ParseDate(date)
	if err != nil {
		return domain.Nudge{}, err
	}
	return domain.Nudge{HabitID: habitID, Date: parsedDate, At: parsedAt.UTC()}, nil
}

func (r *Repository) RecordNudge(ctx context.Context, nudge domain.Nudge) error {
	defer r.observe("record_nudge")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	z := redis.Z{Score: float64(nudge.At.UnixMilli()), Member: nudgeMember(nudge)}
	if err := r.rdb.ZAdd(ctx, r.key("nudges", nudge.HabitID), z).Err(); err != nil {
		return r.fail("record nudge", err)
	}
	return nil
}

func (r *Repository) ListNudges(ctx context.Context, habitID string) ([]domain.Nudge, error) {
	defer r.observe("list_nudges")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	members, err := r.rdb.ZRange(ctx, r.key("nudges", habitID), 0, -1).Result()
	if err != nil {
		return nil, r.fail("list nudges", err)
	}

	nudges := make([]domain.Nudge, 0, len(members))
	for _, member := range members {
		nudge, err := parseNudgeMember(habitID, member)
		if err != nil {
			r.skipCorrupt("nudge", habitID+"@"+member, err)
			continue
		}
		nudges = append(nudges, nudge)
	}
	repository.SortNudges(nudges)
	return nudges, nil
}

func (r *Repository) DeleteNudgesFrom(ctx context.Context, habitID string, from time.Time) error {
	defer r.observe("delete_nudges")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	lower := strconv.FormatInt(from.UnixMilli(), 10)
	if err := r.rdb.ZRemRangeByScore(ctx, r.key("nudges", habitID), lower, "+inf").Err(); err != nil {
		return r.fail("delete nudges", err)
	}
	return nil
}

func (r *Repository) SaveRunningTimer(ctx context.Context, timer domain.RunningTimer) error {
	defer r.observe("save_timer")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	started := timer.StartedAt.UTC().Format(time.RFC3339Nano)
	if err := r.rdb.HSet(ctx, r.key("timers"), timer.HabitID, started).Err(); err != nil {
		return r.fail("save running timer", err)
	}
	return nil
}

func (r *Repository) DeleteRunningTimer(ctx context.Context, habitID string) error {
	defer r.observe("delete_timer")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	if err := r.rdb.HDel(ctx, r.key("timers"), habitID).Err(); err != nil {
		return r.fail("delete running timer", err)
	}
	return nil
}

func (r *Repository) ListRunningTimers(ctx context.Context) ([]domain.RunningTimer, error) {
	defer r.observe("list_timers")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	raw, err := r.rdb.HGetAll(ctx, r.key("timers")).Result()
	if err != nil {
		return nil, r.fail("list running timers", err)
	}

	timers := make([]domain.RunningTimer, 0, len(raw))
	for habitID, started := range raw {
		at, err := time.Parse(time.RFC3339Nano, started)
		if err != nil {
			r.skipCorrupt("running timer", habitID, err)
			continue
		}
		timers = append(timers, domain.RunningTimer{HabitID: habitID, StartedAt: at.UTC()})
	}
	return timers, nil
}
