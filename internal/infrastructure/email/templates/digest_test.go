package templates

import (
	"strings"
	"testing"
)

func TestGetDigestEmailContent(t *testing.T) {
	content := GetDigestEmailContent(DigestEmailProps{
		ProjectName:   "Acme",
		PeriodLabel:   "the last 24 hours",
		TotalEvents:   1204,
		TotalSessions: 87,
		NewLeads:      5,
		TopEventTypes: []EventTypeRow{
			{EventType: "page_view", Count: 900},
			{EventType: "click", Count: 304},
		},
		DashboardURL: "https://app.journeytrack.io/acme",
	})

	for _, want := range []string{
		"Acme activity digest",
		"the last 24 hours",
		"1204",
		"87",
		"page_view",
		"click",
		"https://app.journeytrack.io/acme",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("digest content missing %q", want)
		}
	}
}

func TestGetDigestEmailContentOmitsEmptySections(t *testing.T) {
	content := GetDigestEmailContent(DigestEmailProps{
		ProjectName: "Acme",
		PeriodLabel: "the last 24 hours",
	})

	if strings.Contains(content, "Top event types") {
		t.Error("empty event breakdown should be omitted")
	}
	if strings.Contains(content, "Open your dashboard") {
		t.Error("dashboard link should be omitted when no URL is set")
	}
}

func TestGetEmailLayoutWrapsContent(t *testing.T) {
	html := GetEmailLayout(EmailLayoutProps{
		Preheader: "Your daily activity digest",
		Content:   "<p>hello world</p>",
	})

	if !strings.Contains(html, "<p>hello world</p>") {
		t.Error("layout should embed the content unescaped")
	}
	if !strings.Contains(html, "Your daily activity digest") {
		t.Error("layout should carry the preheader")
	}
	if !strings.Contains(html, "Sent by JourneyTrack.") {
		t.Error("layout should fall back to the default footer")
	}
}

func TestGetEmailLayoutCustomFooter(t *testing.T) {
	html := GetEmailLayout(EmailLayoutProps{
		Content:    "<p>hi</p>",
		FooterText: "Acme Inc, 123 Main St",
	})

	if !strings.Contains(html, "Acme Inc, 123 Main St") {
		t.Error("layout should use the provided footer text")
	}
}
