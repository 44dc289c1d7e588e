package services_test

import (
	"context"
	"testing"

	"jwbindex/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithCategory(ctx, "VODStudio")

	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if key, ok := services.CategoryFromContext(ctx); !ok || key != "VODStudio" {
		t.Fatalf("unexpected category: %v %v", key, ok)
	}
}

func TestBlankCategoryPreservesContext(t *testing.T) {
	ctx := services.WithCategory(context.Background(), "")
	if _, ok := services.CategoryFromContext(ctx); ok {
		t.Fatal("expected no category value")
	}
}
