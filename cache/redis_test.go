package cache

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
)

func TestDisabledCacheIsInert(t *testing.T) {
	ctx := context.Background()
	c := NewCategories(nil, time.Minute)
	c.StoreCategories(ctx, []models.Category{{Name: "Maths"}})
	if _, ok := c.Categories(ctx); ok {
		t.Fatalf("disabled cache must miss")
	}
	c.InvalidateCategories(ctx)

	claims := NewClaims(nil, "reminder:")
	ok, err := claims.Claim(ctx, "booking", time.Minute)
	if err != nil || !ok {
		t.Fatalf("claims without redis always succeed, got %v %v", ok, err)
	}
}
