package core

import (
	"regexp"
	"sort"
	"strings"
)

// NotificationGroup holds the notifications created on one calendar day.
type NotificationGroup struct {
	Date          string         `json:"date"`
	Notifications []Notification `json:"notifications"`
}

// GroupNotificationsByDate buckets notifications by creation day, most recent
// day first, labelled like "January 2, 2006". Order within a day is newest first.
func GroupNotificationsByDate(ns []Notification) []NotificationGroup {
	sorted := make([]Notification, len(ns))
	copy(sorted, ns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var groups []NotificationGroup
	index := make(map[string]int)
	for _, n := range sorted {
		label := n.CreatedAt.Format("January 2, 2006")
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, NotificationGroup{Date: label})
		}
		groups[i].Notifications = append(groups[i].Notifications, n)
	}
	return groups
}

var (
	numberedPrefix = regexp.MustCompile(`^\d+\.\s*`)
	bulletPrefix   = regexp.MustCompile(`^\s*-\s*`)
)

// ParseInsights splits a model-written insights block into display lines.
// Blank lines are dropped and "1. " numbering or "- " bullets are stripped.
func ParseInsights(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberedPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
