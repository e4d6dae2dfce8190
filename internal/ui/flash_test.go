package ui

import (
	"context"
	"strings"
	"testing"
)

func TestRenderFlashesOOBEmpty(t *testing.T) {
	if got := RenderFlashesOOB(nil); got != "" {
		t.Errorf("RenderFlashesOOB(nil) = %q", got)
	}
}

func TestRenderFlashesOOB(t *testing.T) {
	got := RenderFlashesOOB([]Flash{
		{Level: FlashSuccess, Message: "Saved"},
		{Level: FlashError, Message: "Write failed"},
	})
	if !strings.HasPrefix(got, `<div id="toasts" hx-swap-oob="beforeend">`) || !strings.HasSuffix(got, `</div>`) {
		t.Errorf("wrapper missing: %q", got)
	}
	if strings.Count(got, `class="toast toast-`) != 2 {
		t.Errorf("want two toasts: %q", got)
	}
	if !strings.Contains(got, `toast-error`) || !strings.Contains(got, "Write failed") {
		t.Errorf("error toast missing: %q", got)
	}
}

func TestRenderFlashesOOBEscaping(t *testing.T) {
	got := RenderFlashesOOB([]Flash{{Level: `x"><script>`, Message: `<b>&</b>`}})
	if strings.Contains(got, "<script>") || strings.Contains(got, "<b>") {
		t.Errorf("unescaped output: %q", got)
	}
	flashes := parseFlashesFromHTML(got)
	if len(flashes) != 1 || flashes[0].Message != "<b>&</b>" {
		t.Errorf("round trip = %v", flashes)
	}
}

func TestToastContainer(t *testing.T) {
	var sb strings.Builder
	if err := ToastContainer().Render(context.Background(), &sb); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), `id="toasts"`) {
		t.Errorf("ToastContainer() = %q", sb.String())
	}
}
