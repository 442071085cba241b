package cache_test

import (
	"testing"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/cache"
)

func TestInMemory_SetGetDelete(t *testing.T) {
	c := cache.New[*domain.UserProfile](5 * time.Minute)

	c.Set("uid-1", &domain.UserProfile{ID: "uid-1", Email: "ana@example.com"})

	got, ok := c.Get("uid-1")
	if !ok {
		t.Fatal("expected cached profile")
	}
	if got.Email != "ana@example.com" {
		t.Errorf("expected cached email, got %q", got.Email)
	}

	c.Delete("uid-1")
	if _, ok := c.Get("uid-1"); ok {
		t.Fatal("expected entry gone after delete")
	}
}

func TestInMemory_MissOnUnknownKey(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestInMemory_SetOverwrites(t *testing.T) {
	c := cache.New[int](5 * time.Minute)

	c.Set("credits", 5)
	c.Set("credits", 20)

	got, ok := c.Get("credits")
	if !ok || got != 20 {
		t.Fatalf("expected overwritten value 20, got %d (ok=%v)", got, ok)
	}
}

func TestInMemory_EntriesExpire(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("slug", "visado-de-trabajo")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("slug"); ok {
		t.Fatal("expected entry to be expired")
	}
}
