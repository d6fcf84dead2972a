package enrich

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"PinCurator/internal/domain"
)

func TestComposerHashtagCount(t *testing.T) {
	t.Parallel()

	pool := []string{"HomeDecor", "InteriorDesign", "DreamHome", "HomeInspo", "AffiliateMarketing"}
	composer := NewComposer(pool, "#Ad #CommissionsEarned", rand.New(rand.NewSource(7)))

	allowed := map[string]bool{}
	for _, tag := range pool {
		allowed["#"+tag] = true
	}

	for i := 0; i < 50; i++ {
		text := composer.Compose("Base copy.")

		lines := strings.Split(text, "\n")
		if len(lines) != 4 {
			t.Fatalf("unexpected layout: %q", text)
		}
		if lines[0] != "Base copy." {
			t.Fatalf("base text missing: %q", lines[0])
		}
		if lines[3] != "#Ad #CommissionsEarned" {
			t.Fatalf("disclaimer missing: %q", lines[3])
		}

		tags := strings.Fields(lines[2])
		if len(tags) != 3 {
			t.Fatalf("expected exactly 3 hashtags, got %d: %v", len(tags), tags)
		}
		seen := map[string]bool{}
		for _, tag := range tags {
			if !strings.HasPrefix(tag, "#") {
				t.Fatalf("hashtag missing marker: %q", tag)
			}
			if !allowed[tag] {
				t.Fatalf("hashtag %q is not from the pool", tag)
			}
			if seen[tag] {
				t.Fatalf("hashtag %q repeated", tag)
			}
			seen[tag] = true
		}
	}
}

func TestComposerSmallPool(t *testing.T) {
	t.Parallel()

	composer := NewComposer([]string{"OnlyOne"}, "#Ad", rand.New(rand.NewSource(1)))
	text := composer.Compose("Base.")
	if !strings.Contains(text, "#OnlyOne") {
		t.Fatalf("expected the single pool tag, got %q", text)
	}
}

func TestTemplateGeneratorInterpolates(t *testing.T) {
	t.Parallel()

	gen := NewTemplateGenerator(rand.New(rand.NewSource(3)))
	product := domain.Product{ID: "P1", Name: "Velvet Cushion", Price: "19.99"}

	for i := 0; i < 10; i++ {
		text, err := gen.Generate(context.Background(), product)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if text == "" {
			t.Fatalf("generated text must be non-empty")
		}
		if !strings.Contains(text, "Velvet Cushion") {
			t.Fatalf("product name missing from %q", text)
		}
	}
}

func TestComposerConcurrentUse(t *testing.T) {
	t.Parallel()

	pool := []string{"HomeDecor", "InteriorDesign", "DreamHome", "HomeInspo", "AffiliateMarketing"}
	composer := NewComposer(pool, "#Ad", rand.New(rand.NewSource(7)))
	generator := NewTemplateGenerator(rand.New(rand.NewSource(7)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				base, err := generator.Generate(context.Background(), domain.Product{Name: "Lamp", Price: "12.00"})
				if err != nil {
					t.Errorf("Generate returned error: %v", err)
					return
				}
				out := composer.Compose(base)
				if !strings.HasSuffix(out, "#Ad") {
					t.Errorf("disclaimer missing from %q", out)
					return
				}
			}
		}()
	}
	wg.Wait()
}
