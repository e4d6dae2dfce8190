package ui

import (
	"errors"
	"net/http"
	"testing"
)

type resultProps struct {
	ID string
}

func TestResultOK(t *testing.T) {
	r := OK(resultProps{ID: "a"})
	if r.GetProps().ID != "a" {
		t.Errorf("GetProps() = %+v", r.GetProps())
	}
	if r.GetErr() != nil || r.ShouldSkip() || r.GetRedirect() != "" || r.GetStatus() != 0 {
		t.Errorf("unexpected defaults: %+v", r)
	}
}

func TestResultErr(t *testing.T) {
	err := errors.New("nope")
	r := Err(resultProps{ID: "a"}, err)
	if !errors.Is(r.GetErr(), err) {
		t.Errorf("GetErr() = %v", r.GetErr())
	}
	if r.GetProps().ID != "a" {
		t.Error("props should be kept for fallback rendering")
	}
}

func TestResultSkipAndRedirect(t *testing.T) {
	if !Skip[resultProps]().ShouldSkip() {
		t.Error("Skip should skip")
	}
	if got := Redirect[resultProps]("/home").GetRedirect(); got != "/home" {
		t.Errorf("GetRedirect() = %q", got)
	}
}

func TestResultChaining(t *testing.T) {
	r := OK(resultProps{}).
		Flash(FlashSuccess, "one").
		Flash(FlashInfo, "two").
		Trigger("note:created", map[string]any{"id": "n1"}).
		TriggerAfterSettle("url:sync").
		PushURL("/companies/c1").
		Header("Cache-Control", "no-store").
		Status(http.StatusCreated)

	if len(r.GetFlashes()) != 2 || r.GetFlashes()[1].Message != "two" {
		t.Errorf("GetFlashes() = %v", r.GetFlashes())
	}
	if r.GetTrigger() != "note:created" || r.GetTriggerData()["id"] != "n1" {
		t.Errorf("trigger = %q %v", r.GetTrigger(), r.GetTriggerData())
	}
	if r.GetTriggerAfterSettle() != "url:sync" {
		t.Errorf("GetTriggerAfterSettle() = %q", r.GetTriggerAfterSettle())
	}
	h := r.GetHeaders()
	if h["HX-Push-Url"] != "/companies/c1" || h["Cache-Control"] != "no-store" {
		t.Errorf("GetHeaders() = %v", h)
	}
	if r.GetStatus() != http.StatusCreated {
		t.Errorf("GetStatus() = %d", r.GetStatus())
	}
}

func TestResultIsAValue(t *testing.T) {
	base := OK(resultProps{})
	_ = base.Flash(FlashError, "x")
	if len(base.GetFlashes()) != 0 {
		t.Error("Flash mutated the receiver")
	}
}
