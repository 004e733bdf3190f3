package validation

import (
	"fmt"
	"strings"

	"habit-tracker/internal/config"
	"habit-tracker/internal/domain"
)

// HabitValidator checks user input before it reaches the engine.
type HabitValidator struct {
	validator *Validator
}

// NewHabitValidator creates a habit validator with default limits
func NewHabitValidator() *HabitValidator {
	return &HabitValidator{validator: NewValidator()}
}

// NewHabitValidatorWithConfig creates a habit validator using configured limits
func NewHabitValidatorWithConfig(cfg *config.Config) *HabitValidator {
	return &HabitValidator{validator: NewValidatorWithConfig(cfg)}
}

func result(ve *ValidationError) error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ValidateName validates a habit name for creation or rename
func (hv *HabitValidator) ValidateName(name string) error {
	ve := NewValidationError()
	trimmed := hv.validator.TrimAndValidateString(name)

	if !hv.validator.IsNonEmptyString(trimmed) {
		ve.AddRequiredError("name")
		return ve
	}
	if !hv.validator.IsValidHabitNameLength(trimmed) {
		ve.AddInvalidLengthError("name", trimmed, hv.validator.getHabitNameMinLength(), hv.validator.getHabitNameMaxLength())
	}
	if !hv.validator.IsValidHabitName(trimmed) {
		ve.AddInvalidCharacterError("name", trimmed)
	}
	return result(ve)
}

// ValidateCadence validates the cadence kind. An empty weekday set is
// accepted for specific-day cadences and means every day.
func (hv *HabitValidator) ValidateCadence(c domain.Cadence) error {
	ve := NewValidationError()
	switch c.Kind {
	case domain.CadenceDaily, domain.CadenceSpecificDays:
	default:
		ve.AddInvalidValueError("cadence", c.Kind, "must be daily or specific_days")
	}
	if c.Days&^domain.EveryWeekday != 0 {
		ve.AddInvalidValueError("cadence.days", int(c.Days), "unknown weekday bits")
	}
	return result(ve)
}

// ValidateMetric validates the metric payload
func (hv *HabitValidator) ValidateMetric(m domain.Metric) error {
	ve := NewValidationError()
	switch metric := m.(type) {
	case nil:
		ve.AddRequiredError("metric")
	case domain.CheckMetric:
	case domain.CountMetric:
		if !hv.validator.IsFiniteNonNegative(metric.DailyTarget) {
			ve.AddInvalidValueError("metric.daily_target", metric.DailyTarget, "must be a non-negative number")
		}
		if len(metric.Unit) > 32 {
			ve.AddInvalidLengthError("metric.unit", metric.Unit, 0, 32)
		}
	case domain.TimedMetric:
		if metric.MinMinutes < 1 || !hv.validator.IsValidMinutes(metric.MinMinutes) {
			ve.AddInvalidRangeError("metric.min_minutes", metric.MinMinutes,
				fmt.Sprintf("must be between 1 and %d", hv.validator.getMaxMinutes()))
		}
	default:
		ve.AddInvalidValueError("metric", m, "unknown metric kind")
	}
	return result(ve)
}

// ValidateTiers checks thresholds are non-negative and unique and badges are named
func (hv *HabitValidator) ValidateTiers(tiers []domain.Tier) error {
	ve := NewValidationError()
	if limit := hv.validator.getMaxTiers(); len(tiers) > limit {
		ve.AddTooManyError("tiers", len(tiers), limit)
	}

	seen := make(map[float64]bool, len(tiers))
	for i, tier := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if !hv.validator.IsFiniteNonNegative(tier.Threshold) {
			ve.AddInvalidValueError(field+".threshold", tier.Threshold, "must be a non-negative number")
		}
		if seen[tier.Threshold] {
			ve.AddInvalidValueError(field+".threshold", tier.Threshold, "duplicate threshold")
		}
		seen[tier.Threshold] = true
		if strings.TrimSpace(tier.Badge) == "" {
			ve.AddRequiredError(field + ".badge")
		}
	}
	return result(ve)
}

// ValidateReminders checks wall-clock values and the configured count limit
func (hv *HabitValidator) ValidateReminders(reminders []domain.ReminderTime) error {
	ve := NewValidationError()
	if limit := hv.validator.getMaxReminders(); len(reminders) > limit {
		ve.AddTooManyError("reminders", len(reminders), limit)
	}
	for i, r := range reminders {
		if !hv.validator.IsValidClock(r.Hour, r.Minute) {
			ve.AddInvalidRangeError(fmt.Sprintf("reminders[%d]", i), r.String(), "hour must be 0-23 and minute 0-59")
		}
	}
	return result(ve)
}

// ValidateHabit validates every user-controlled attribute of a habit
func (hv *HabitValidator) ValidateHabit(h domain.Habit) error {
	ve := NewValidationError()
	ve.Merge(hv.ValidateName(h.Name))
	ve.Merge(hv.ValidateCadence(h.Cadence))
	ve.Merge(hv.ValidateMetric(h.Metric))
	ve.Merge(hv.ValidateTiers(h.Tiers))
	ve.Merge(hv.ValidateReminders(h.Reminders))
	return result(ve)
}

// ValidateHabitID validates a habit identifier
func (hv *HabitValidator) ValidateHabitID(id string) error {
	if strings.TrimSpace(id) == "" {
		ve := NewValidationError()
		ve.AddRequiredError("habit_id")
		return ve
	}
	return nil
}

// ParseMinutes turns user-entered minutes into a bounded integer. Non-numeric
// input is rejected; fractional values round to the nearest minute.
func (hv *HabitValidator) ParseMinutes(s string) (int, error) {
	f, ok := hv.validator.ParseNumber(s)
	if !ok {
		ve := NewValidationError()
		ve.AddInvalidFormatError("minutes", s, "a whole number of minutes")
		return 0, ve
	}
	minutes := int(f + 0.5)
	if f < 0 || !hv.validator.IsValidMinutes(minutes) {
		ve := NewValidationError()
		ve.AddInvalidRangeError("minutes", s, fmt.Sprintf("must be between 0 and %d", hv.validator.getMaxMinutes()))
		return 0, ve
	}
	return minutes, nil
}

// ParseCount turns user-entered count text into a non-negative amount
func (hv *HabitValidator) ParseCount(s string) (float64, error) {
	f, ok := hv.validator.ParseNumber(s)
	if !ok {
		ve := NewValidationError()
		ve.AddInvalidFormatError("count", s, "a number")
		return 0, ve
	}
	if f < 0 {
		ve := NewValidationError()
		ve.AddInvalidRangeError("count", s, "must not be negative")
		return 0, ve
	}
	return f, nil
}

// ParseTiers parses "5:red,10:yellow" into tiers
func (hv *HabitValidator) ParseTiers(s string) ([]domain.Tier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var tiers []domain.Tier
	for _, part := range strings.Split(s, ",") {
		threshold, badge, ok := strings.Cut(strings.TrimSpace(part), ":")
		value, numeric := hv.validator.ParseNumber(threshold)
		if !ok || !numeric {
			ve := NewValidationError()
			ve.AddInvalidFormatError("tiers", part, "threshold:badge")
			return nil, ve
		}
		tiers = append(tiers, domain.Tier{Threshold: value, Badge: strings.TrimSpace(badge)})
	}
	if err := hv.ValidateTiers(tiers); err != nil {
		return nil, err
	}
	domain.SortTiers(tiers)
	return tiers, nil
}

// ParseReminders parses "07:30,21:00" into reminder times
func (hv *HabitValidator) ParseReminders(s string) ([]domain.ReminderTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var reminders []domain.ReminderTime
	for _, part := range strings.Split(s, ",") {
		r, err := domain.ParseReminderTime(strings.TrimSpace(part))
		if err != nil {
			ve := NewValidationError()
			ve.AddInvalidFormatError("reminders", part, "HH:MM")
			return nil, ve
		}
		reminders = append(reminders, r)
	}
	if err := hv.ValidateReminders(reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}
