package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(rdb, time.Minute), mr
}

func TestPutGetDelete(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	sess := &Session{ID: "s1", Subject: "user1", State: PasswordVerified, CreatedAt: 1, UpdatedAt: 1}
	if err := st.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Subject != "user1" || got.State != PasswordVerified {
		t.Errorf("Get = %+v", got)
	}

	if err := st.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = st.Get(ctx, "s1")
	if got != nil {
		t.Errorf("session survived Delete: %+v", got)
	}
}

func TestGet_Expired(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	_ = st.Put(ctx, &Session{ID: "s1", Subject: "user1", State: PasswordVerified})
	mr.FastForward(2 * time.Minute)

	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expired session still readable: %+v", got)
	}
}
