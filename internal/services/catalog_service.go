package services

import (
	"context"
	"strings"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// catalogServiceImpl implements the CatalogService interface
type catalogServiceImpl struct {
	repo              repository.Repository
	validator         *validation.HabitValidator
	clock             clock.Clock
	logger            *zap.Logger
	applyDefaultTiers bool
}

// NewCatalogService creates a new CatalogService instance. With
// applyDefaultTiers set, timed habits created without tiers get the
// default red/yellow/green/blue ladder.
func NewCatalogService(repo repository.Repository, validator *validation.HabitValidator, c clock.Clock, logger *zap.Logger, applyDefaultTiers bool) CatalogService {
	if validator == nil {
		validator = validation.NewHabitValidator()
	}
	return &catalogServiceImpl{
		repo:              repo,
		validator:         validator,
		clock:             c,
		logger:            logger,
		applyDefaultTiers: applyDefaultTiers,
	}
}

// CreateHabit validates the spec and stores a new habit under a fresh id
func (c *catalogServiceImpl) CreateHabit(ctx context.Context, spec HabitSpec) (domain.Habit, error) {
	habit := domain.NewHabit(strings.TrimSpace(spec.Name), c.clock.Now())
	habit.ID = uuid.NewString()
	habit.Cadence = spec.Cadence.Normalize()
	if spec.Metric != nil {
		habit.Metric = spec.Metric
	}
	habit.Tiers = append([]domain.Tier(nil), spec.Tiers...)
	if len(habit.Tiers) == 0 && habit.IsTimed() && c.applyDefaultTiers {
		habit.Tiers = domain.DefaultTiers()
	}
	domain.SortTiers(habit.Tiers)
	habit.Reminders = append([]domain.ReminderTime(nil), spec.Reminders...)

	if err := c.validator.ValidateHabit(habit); err != nil {
		return domain.Habit{}, errors.NewValidationError("invalid habit", err)
	}
	if err := c.ensureUniqueName(ctx, habit.Name, ""); err != nil {
		return domain.Habit{}, err
	}

	if err := c.repo.UpsertHabit(ctx, habit); err != nil {
		c.logger.Error("failed to create habit", zap.String("name", habit.Name), zap.Error(err))
		return domain.Habit{}, err
	}
	c.logger.Info("habit created", zap.String("habit_id", habit.ID), zap.String("name", habit.Name))
	return habit, nil
}

// GetHabit retrieves a habit by id
func (c *catalogServiceImpl) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	if err := c.validator.ValidateHabitID(id); err != nil {
		return domain.Habit{}, errors.NewValidationError("invalid habit id", err)
	}
	return c.repo.GetHabit(ctx, id)
}

// FindHabit resolves a reference that is either an id or a habit name.
// Names match case-insensitively and active habits win over archived ones.
func (c *catalogServiceImpl) FindHabit(ctx context.Context, ref string) (domain.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Habit{}, errors.NewInvalidInputError("habit", ref, "habit reference cannot be empty")
	}

	habits, err := c.repo.ListHabits(ctx)
	if err != nil {
		return domain.Habit{}, err
	}

	var archivedMatch *domain.Habit
	for i, h := range habits {
		if h.ID == ref {
			return h, nil
		}
		if !strings.EqualFold(h.Name, ref) {
			continue
		}
		if !h.Archived {
			return h, nil
		}
		if archivedMatch == nil {
			archivedMatch = &habits[i]
		}
	}
	if archivedMatch != nil {
		return *archivedMatch, nil
	}
	return domain.Habit{}, errors.NewNotFoundError("habit", ref)
}

// ListHabits returns habits in creation order
func (c *catalogServiceImpl) ListHabits(ctx context.Context, includeArchived bool) ([]domain.Habit, error) {
	habits, err := c.repo.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return habits, nil
	}
	active := habits[:0]
	for _, h := range habits {
		if !h.Archived {
			active = append(active, h)
		}
	}
	return active, nil
}

// UpdateHabit applies the non-nil fields of update
func (c *catalogServiceImpl) UpdateHabit(ctx context.Context, id string, update HabitUpdate) (domain.Habit, error) {
	habit, err := c.GetHabit(ctx, id)
	if err != nil {
		return domain.Habit{}, err
	}

	if update.Name != nil {
		habit.Name = strings.TrimSpace(*update.Name)
		if err := c.ensureUniqueName(ctx, habit.Name, habit.ID); err != nil {
			return domain.Habit{}, err
		}
	}
	if update.Cadence != nil {
		habit.Cadence = update.Cadence.Normalize()
	}
	if update.Metric != nil {
		habit.Metric = update.Metric
	}
	if update.Tiers != nil {
		habit.Tiers = append([]domain.Tier(nil), (*update.Tiers)...)
		domain.SortTiers(habit.Tiers)
	}
	if update.Reminders != nil {
		habit.Reminders = append([]domain.ReminderTime(nil), (*update.Reminders)...)
	}

	if err := c.validator.ValidateHabit(habit); err != nil {
		return domain.Habit{}, errors.NewValidationError("invalid habit", err)
	}
	habit.UpdatedAt = c.clock.Now()

	if err := c.repo.UpsertHabit(ctx, habit); err != nil {
		c.logger.Error("failed to update habit", zap.String("habit_id", id), zap.Error(err))
		return domain.Habit{}, err
	}
	c.logger.Info("habit updated", zap.String("habit_id", id))
	return habit, nil
}

// ArchiveHabit ends a habit's due dates from now on while keeping its history
func (c *catalogServiceImpl) ArchiveHabit(ctx context.Context, id string) (domain.Habit, error) {
	habit, err := c.GetHabit(ctx, id)
	if err != nil {
		return domain.Habit{}, err
	}
	if habit.Archived {
		return habit, nil
	}
	habit.Archive(c.clock.Now())
	if err := c.repo.UpsertHabit(ctx, habit); err != nil {
		return domain.Habit{}, err
	}
	c.logger.Info("habit archived", zap.String("habit_id", id))
	return habit, nil
}

// UnarchiveHabit makes an archived habit due again. ArchivedAt is cleared,
// so the days it spent archived count as due too.
func (c *catalogServiceImpl) UnarchiveHabit(ctx context.Context, id string) (domain.Habit, error) {
	habit, err := c.GetHabit(ctx, id)
	if err != nil {
		return domain.Habit{}, err
	}
	if !habit.Archived {
		return habit, nil
	}
	if err := c.ensureUniqueName(ctx, habit.Name, habit.ID); err != nil {
		return domain.Habit{}, err
	}
	habit.Unarchive(c.clock.Now())
	if err := c.repo.UpsertHabit(ctx, habit); err != nil {
		return domain.Habit{}, err
	}
	c.logger.Info("habit unarchived", zap.String("habit_id", id))
	return habit, nil
}

// DeleteHabit removes a habit and, by store policy, its history
func (c *catalogServiceImpl) DeleteHabit(ctx context.Context, id string) error {
	if err := c.validator.ValidateHabitID(id); err != nil {
		return errors.NewValidationError("invalid habit id", err)
	}
	if err := c.repo.DeleteHabit(ctx, id); err != nil {
		return err
	}
	c.logger.Info("habit deleted", zap.String("habit_id", id))
	return nil
}

// ensureUniqueName rejects a name already used by another active habit
func (c *catalogServiceImpl) ensureUniqueName(ctx context.Context, name, selfID string) error {
	habits, err := c.repo.ListHabits(ctx)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if h.ID != selfID && !h.Archived && strings.EqualFold(h.Name, name) {
			return errors.NewInvalidInputError("name", name, "an active habit with this name already exists")
		}
	}
	return nil
}
