// Package stats computes read-only dashboard projections over a task
// snapshot. Everything here is pure; the store stays the single writer.
package stats

import (
	"sort"
	"time"

	"taskpulse/pkg/task"
)

// Uncategorized is the bucket for tasks without a category.
const Uncategorized = "uncategorized"

// Overview summarizes the whole collection.
type Overview struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"` // percent, rounded
}

// Summarize computes the Overview at the given instant.
func Summarize(tasks []task.Task, now time.Time) Overview {
	o := Overview{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			o.Completed++
			continue
		}
		o.Pending++
		if t.DueDate != nil && t.DueDate.Before(now) {
			o.Overdue++
		}
	}
	if o.Total > 0 {
		o.CompletionRate = int(float64(o.Completed)/float64(o.Total)*100 + 0.5)
	}
	return o
}

// ByPriority counts tasks per priority.
func ByPriority(tasks []task.Task) map[task.Priority]int {
	out := make(map[task.Priority]int)
	for _, t := range tasks {
		out[t.Priority]++
	}
	return out
}

// ByCategory counts tasks per category, bucketing the uncategorized.
func ByCategory(tasks []task.Task) map[string]int {
	out := make(map[string]int)
	for _, t := range tasks {
		c := t.Category
		if c == "" {
			c = Uncategorized
		}
		out[c]++
	}
	return out
}

// DayCount is one day's task activity.
type DayCount struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Added     int    `json:"added"`
	Completed int    `json:"completed"`
}

// Daily buckets task activity per day over the trailing window ending today.
// Completed tasks are counted on their creation day: the model keeps no
// completion stamp, matching the source data.
func Daily(tasks []task.Task, today time.Time, days int) []DayCount {
	counts := make(map[string]*DayCount, days)
	out := make([]DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		counts[day] = &DayCount{Date: day}
	}
	for _, t := range tasks {
		day := t.CreatedAt.Format("2006-01-02")
		c, ok := counts[day]
		if !ok {
			continue
		}
		c.Added++
		if t.Completed {
			c.Completed++
		}
	}
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DayProgress is one weekday's completion percentage.
type DayProgress struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Progress float64 `json:"progress"`
}

// WeeklyProgress reports, for each day of the current Monday-started week,
// the percentage of tasks due that day that are completed. Days without due
// tasks report zero.
func WeeklyProgress(tasks []task.Task, now time.Time) []DayProgress {
	monday := now.AddDate(0, 0, -mondayOffset(now.Weekday()))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())

	out := make([]DayProgress, 7)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		dayStr := day.Format("2006-01-02")
		due, done := 0, 0
		for _, t := range tasks {
			if t.DueDate == nil || t.DueDate.Format("2006-01-02") != dayStr {
				continue
			}
			due++
			if t.Completed {
				done++
			}
		}
		p := DayProgress{Date: dayStr}
		if due > 0 {
			p.Progress = float64(done) / float64(due) * 100
		}
		out[i] = p
	}
	return out
}

func mondayOffset(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// Recent returns the n newest tasks by creation time.
func Recent(tasks []task.Task, n int) []task.Task {
	out := append([]task.Task(nil), tasks...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
