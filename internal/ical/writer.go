// Package ical renders events as an iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/Schedulo/internal/models"
)

const (
	dateTimeFormat = "20060102T150405Z"
	dateFormat     = "20060102"
)

// Format renders the events as a VCALENDAR document.
func Format(name string, events []*models.Event) string {
	var builder strings.Builder

	builder.WriteString("BEGIN:VCALENDAR\r\n")
	builder.WriteString("VERSION:2.0\r\n")
	builder.WriteString("PRODID:-//schedulo//schedulo//EN\r\n")
	builder.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeText(name)))

	for _, event := range events {
		builder.WriteString(formatEvent(event))
	}

	builder.WriteString("END:VCALENDAR\r\n")
	return builder.String()
}

func formatEvent(event *models.Event) string {
	var builder strings.Builder

	builder.WriteString("BEGIN:VEVENT\r\n")
	builder.WriteString(fmt.Sprintf("UID:schedulo-%d\r\n", event.ID))
	builder.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatDateTime(time.Now())))

	if event.AllDay {
		builder.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatDate(event.Start())))
		builder.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatDate(event.End())))
	} else {
		builder.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatDateTime(event.Start())))
		builder.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatDateTime(event.End())))
	}

	if event.Title != "" {
		builder.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeText(event.Title)))
	}
	if event.Location != "" {
		builder.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeText(event.Location)))
	}
	if event.Description != "" {
		builder.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeText(event.Description)))
	}

	builder.WriteString("END:VEVENT\r\n")
	return builder.String()
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeFormat)
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
