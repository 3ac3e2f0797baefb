// Package schedule turns the flat plan-generation response into the
// date-by-meal-type pivot rendered on the preview and summary screens.
package schedule

import (
	"sort"
	"time"
)

// ScheduledMeal is one entry of the generated plan, as returned by the
// plan-generation endpoint. Read-only for this package.
type ScheduledMeal struct {
	MealID       int64  `json:"mealId"`
	MealName     string `json:"mealName"`
	MealTypeName string `json:"mealTypeName"`
	DeliveryDate string `json:"deliveryDate"`
	DayName      string `json:"dayName"`
	DayOrdinal   int    `json:"dayOrdinal"`
}

// GeneratedPlan is the opaque result of the last successful
// plan-generation call, held on the draft.
type GeneratedPlan struct {
	Meals []ScheduledMeal `json:"meals"`
}

// DayBucket groups one delivery date. Meals holds an entry for every meal
// type present anywhere in the input, so a missing type renders as an
// explicit empty slot rather than being dropped.
type DayBucket struct {
	Date       string                     `json:"date"`
	DayName    string                     `json:"dayName"`
	DayOrdinal int                        `json:"dayOrdinal"`
	Meals      map[string][]ScheduledMeal `json:"meals"`
}

// Pivot is the grouped preview structure: days ascending by date, meal
// types sorted lexicographically.
type Pivot struct {
	Days      []DayBucket `json:"days"`
	MealTypes []string    `json:"mealTypes"`
}

// Build groups meals by exact delivery-date key and collects the distinct
// meal-type names. Empty input yields empty (non-nil) slices.
func Build(meals []ScheduledMeal) Pivot {
	pivot := Pivot{Days: []DayBucket{}, MealTypes: []string{}}
	if len(meals) == 0 {
		return pivot
	}

	typeSet := map[string]struct{}{}
	byDate := map[string][]ScheduledMeal{}
	for _, m := range meals {
		typeSet[m.MealTypeName] = struct{}{}
		byDate[m.DeliveryDate] = append(byDate[m.DeliveryDate], m)
	}

	for name := range typeSet {
		pivot.MealTypes = append(pivot.MealTypes, name)
	}
	sort.Strings(pivot.MealTypes)

	for date, dayMeals := range byDate {
		bucket := DayBucket{
			Date:       date,
			DayName:    dayMeals[0].DayName,
			DayOrdinal: dayMeals[0].DayOrdinal,
			Meals:      map[string][]ScheduledMeal{},
		}
		for _, name := range pivot.MealTypes {
			bucket.Meals[name] = []ScheduledMeal{}
		}
		for _, m := range dayMeals {
			bucket.Meals[m.MealTypeName] = append(bucket.Meals[m.MealTypeName], m)
		}
		pivot.Days = append(pivot.Days, bucket)
	}

	sort.Slice(pivot.Days, func(i, j int) bool {
		return lessDate(pivot.Days[i].Date, pivot.Days[j].Date)
	})

	return pivot
}

// lessDate orders ISO dates chronologically and falls back to a plain
// string compare when a date fails to parse.
func lessDate(a, b string) bool {
	ta, errA := parseDate(a)
	tb, errB := parseDate(b)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return a < b
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
