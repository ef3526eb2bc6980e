package sentry

import (
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestScrubEventRedactsHeaders(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization": "Bearer secret-token",
				"Accept":        "application/json",
			},
			Data:    `{"password":"hunter2"}`,
			Cookies: "session=abc",
		},
	}

	scrubbed := ScrubEvent(event, nil)

	if got := scrubbed.Request.Headers["Authorization"]; got != "[Filtered]" {
		t.Errorf("Authorization = %q, want [Filtered]", got)
	}
	if got := scrubbed.Request.Headers["Accept"]; got != "application/json" {
		t.Errorf("Accept = %q, want untouched", got)
	}
	if scrubbed.Request.Data != "" {
		t.Errorf("Data = %q, want stripped", scrubbed.Request.Data)
	}
	if scrubbed.Request.Cookies != "" {
		t.Errorf("Cookies = %q, want stripped", scrubbed.Request.Cookies)
	}
}

func TestScrubEventRedactsTagsAndBreadcrumbs(t *testing.T) {
	event := &sentry.Event{
		Tags: map[string]string{
			"token":   "abc123",
			"project": "p1",
		},
		Breadcrumbs: []*sentry.Breadcrumb{
			{Data: map[string]interface{}{"password": "hunter2", "path": "/api/login"}},
		},
	}

	scrubbed := ScrubEvent(event, nil)

	if got := scrubbed.Tags["token"]; got != "[Filtered]" {
		t.Errorf("token tag = %q, want [Filtered]", got)
	}
	if got := scrubbed.Tags["project"]; got != "p1" {
		t.Errorf("project tag = %q, want untouched", got)
	}
	if got := scrubbed.Breadcrumbs[0].Data["password"]; got != "[Filtered]" {
		t.Errorf("breadcrumb password = %v, want [Filtered]", got)
	}
	if got := scrubbed.Breadcrumbs[0].Data["path"]; got != "/api/login" {
		t.Errorf("breadcrumb path = %v, want untouched", got)
	}
}

func TestScrubEventNilRequest(t *testing.T) {
	// Must not panic when there is no request context.
	ScrubEvent(&sentry.Event{}, nil)
}
