package notify

import (
	"strings"
	"testing"
)

func TestRenderSubstitutesAllPlaceholders(t *testing.T) {
	snap := completeSnapshot()

	tpl := "Hi {first_name}, {client_name} is booked for {eval_date} at {eval_time}. " +
		"Forms: {pearson_link} {talogy_link}. Join: {zoom_link}. " +
		"Sent to {email} for {service_type}."

	got := Render(tpl, snap)

	if strings.Contains(got, "{") {
		t.Fatalf("rendered output still contains a placeholder: %q", got)
	}
	for _, want := range []string{
		snap.FirstName, snap.ClientName, snap.EvalDate, snap.EvalTime,
		snap.PearsonLink, snap.TalogyLink, snap.ZoomLink, snap.Email, snap.ServiceType,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("rendered output missing %q: %q", want, got)
		}
	}
}

func TestRenderLeavesUnknownTokensUntouched(t *testing.T) {
	got := Render("Hello {first_name}, code {promo_code}", completeSnapshot())
	if !strings.Contains(got, "{promo_code}") {
		t.Fatalf("unknown token should pass through, got %q", got)
	}
	if strings.Contains(got, "{first_name}") {
		t.Fatalf("known token should be substituted, got %q", got)
	}
}

func TestRenderDoesNotEscapeHTML(t *testing.T) {
	snap := completeSnapshot()
	snap.ZoomLink = "https://zoom.example/j/1?pwd=a&b=c"
	got := Render(`<a href="{zoom_link}">join</a>`, snap)
	if got != `<a href="https://zoom.example/j/1?pwd=a&b=c">join</a>` {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestCheckSendableCompleteSnapshot(t *testing.T) {
	if err := CheckSendable(completeSnapshot()); err != nil {
		t.Fatalf("complete snapshot should be sendable: %v", err)
	}
}

func TestCheckSendableNamesFirstEmptyField(t *testing.T) {
	snap := completeSnapshot()
	snap.PearsonLink = ""

	err := CheckSendable(snap)
	if err == nil {
		t.Fatal("expected an error for a missing required field")
	}
	if !strings.Contains(err.Error(), FieldPearsonLink) {
		t.Fatalf("error should name the empty field, got %v", err)
	}
}

func TestCheckSendableIgnoresServiceType(t *testing.T) {
	snap := completeSnapshot()
	snap.ServiceType = ""
	if err := CheckSendable(snap); err != nil {
		t.Fatalf("service_type is not a send precondition: %v", err)
	}
}
