//go:build !integration

package imagegen

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/domain/model"
)

func TestFallbackGenerator(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	req := model.GenerationRequest{ID: "01TEST", Room: model.RoomKitchen, Style: model.StyleModern}

	t.Run("primary success skips the fallback", func(t *testing.T) {
		primary := &NoopGenerator{URL: "https://primary/img.png"}
		secondary := &NoopGenerator{URL: "https://secondary/img.png"}
		g := NewFallbackGenerator(primary, secondary, &logger)

		url, err := g.Generate(ctx, req)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if url != "https://primary/img.png" {
			t.Errorf("expected primary result, got %q", url)
		}
	})

	t.Run("primary failure falls through to the secondary", func(t *testing.T) {
		primary := &NoopGenerator{Err: errors.New("replicate down")}
		secondary := &NoopGenerator{URL: "https://secondary/img.png"}
		g := NewFallbackGenerator(primary, secondary, &logger)

		url, err := g.Generate(ctx, req)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if url != "https://secondary/img.png" {
			t.Errorf("expected secondary result, got %q", url)
		}
	})

	t.Run("both failing surfaces the secondary error", func(t *testing.T) {
		primary := &NoopGenerator{Err: errors.New("primary down")}
		secondary := &NoopGenerator{Err: errors.New("secondary down")}
		g := NewFallbackGenerator(primary, secondary, &logger)

		if _, err := g.Generate(ctx, req); err == nil || err.Error() != "secondary down" {
			t.Fatalf("expected secondary error, got %v", err)
		}
	})

	t.Run("canceled context does not try the fallback", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		primary := &NoopGenerator{Err: errors.New("canceled")}
		secondary := &NoopGenerator{URL: "https://secondary/img.png"}
		g := NewFallbackGenerator(primary, secondary, &logger)

		if _, err := g.Generate(cctx, req); err == nil {
			t.Fatal("expected an error after cancellation")
		}
	})
}

func TestPromptRendering(t *testing.T) {
	req := model.GenerationRequest{Room: model.RoomLivingRoom, Style: model.StyleJapandi}
	got := req.Prompt()
	want := "A beautiful living room, Japandi interior design, Japanese minimalism meets Scandinavian, natural wood, clean lines, zen atmosphere, wabi-sabi aesthetic, photorealistic, 8k, high quality, professional photography"
	if got != want {
		t.Errorf("prompt mismatch:\n got %q\nwant %q", got, want)
	}
}
