package agent

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formdoc/dialogue"
	"github.com/tbxark/formdoc/types"
)

func TestMemoryCacheTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache[string](time.Minute)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := c.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("get = %q, %v", v, ok)
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Fatal("expired entry still visible")
	}
	if n := c.Sweep(); n != 1 {
		t.Errorf("swept %d entries, want 1", n)
	}

	forever := NewMemoryCache[string](0)
	_ = forever.Set(ctx, "k", "v")
	forever.now = func() time.Time { return now.Add(1000 * time.Hour) }
	if ok, _ := forever.Exists(ctx, "k"); !ok {
		t.Fatal("entry without ttl expired")
	}
	_ = forever.Del(ctx, "k")
	if ok, _ := forever.Exists(ctx, "k"); ok {
		t.Fatal("deleted entry still visible")
	}
}

func TestStoreNamespacesAndKey(t *testing.T) {
	t.Parallel()
	core := NewMemoryCache[int](0)
	a := NewStore[int](core, "a", StateKeyFromContext)
	b := NewStore[int](core, "b", StateKeyFromContext)

	if err := a.Set(context.Background(), 1); !errors.Is(err, ErrNoStateKey) {
		t.Fatalf("expected ErrNoStateKey, got %v", err)
	}
	if _, _, err := a.Get(WithStateKey(context.Background(), "")); !errors.Is(err, ErrNoStateKey) {
		t.Fatalf("empty key must not resolve, got %v", err)
	}

	ctx := WithStateKey(context.Background(), "s1")
	_ = a.Set(ctx, 1)
	_ = b.Set(ctx, 2)
	if v, _, _ := a.Get(ctx); v != 1 {
		t.Errorf("a = %d", v)
	}
	if v, _, _ := b.Get(ctx); v != 2 {
		t.Errorf("b = %d", v)
	}
	if ok, _ := core.Exists(ctx, "a:s1"); !ok {
		t.Error("namespace not applied to the key")
	}
}

func TestStateReadWriter(t *testing.T) {
	t.Parallel()
	rw := NewMemoryStateReadWriter(time.Hour)
	ctx := WithStateKey(context.Background(), "7")

	st, err := rw.Read(ctx)
	if err != nil || st.Stage != types.StageSelectingCategory {
		t.Fatalf("fresh state = %+v, %v", st, err)
	}
	st.Category = "ОМС"
	st.Stage = ""
	if err := rw.Write(ctx, st); err != nil {
		t.Fatal(err)
	}
	got, _ := rw.Read(ctx)
	if got.Category != "ОМС" || got.Stage != types.StageSelectingCategory {
		t.Errorf("stored state = %+v", got)
	}
	other, _ := rw.Read(WithStateKey(context.Background(), "8"))
	if other.Category != "" {
		t.Error("sessions share state")
	}
	_ = rw.Remove(ctx)
	if got, _ := rw.Read(ctx); got.Category != "" {
		t.Error("removed state still readable")
	}
	if def, err := rw.Read(context.Background()); err != nil || def == nil {
		t.Errorf("context without key falls back to the default session: %v", err)
	}
}

func TestHistoryStore(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistoryStore(0, KeepSystemLastNTrimmer{N: 2})
	ctx := WithStateKey(context.Background(), "1")

	hist, err := h.Append(ctx, schema.SystemMessage("sys"), schema.UserMessage("a"), schema.UserMessage("a"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("duplicate or nil message kept: %d", len(hist))
	}
	hist, _ = h.Append(ctx, schema.AssistantMessage("b", nil), schema.UserMessage("c"))
	if len(hist) != 3 || hist[0].Role != schema.System || hist[1].Content != "b" || hist[2].Content != "c" {
		t.Fatalf("trimmed history = %v", hist)
	}
	loaded, _ := h.Load(ctx)
	if len(loaded) != 3 {
		t.Errorf("loaded %d messages", len(loaded))
	}
	_ = h.Clear(ctx)
	if loaded, _ := h.Load(ctx); len(loaded) != 0 {
		t.Error("history not cleared")
	}
	if _, err := h.Append(context.Background(), schema.UserMessage("x")); !errors.Is(err, ErrNoStateKey) {
		t.Errorf("history needs a session key, got %v", err)
	}
}

func TestKeepSystemLastNTrimmerZero(t *testing.T) {
	t.Parallel()
	hist := []*schema.Message{schema.UserMessage("a"), schema.SystemMessage("s"), schema.UserMessage("b")}
	got := KeepSystemLastNTrimmer{}.Trim(hist)
	if len(got) != 1 || got[0].Role != schema.System {
		t.Fatalf("got %v", got)
	}
}

func TestKeyedMutex(t *testing.T) {
	t.Parallel()
	var km keyedMutex
	var wg sync.WaitGroup
	counter := 0
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("k")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d", counter)
	}
	if len(km.locks) != 0 {
		t.Errorf("locks leaked: %d", len(km.locks))
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := DialRedis(ctx, addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer rdb.Close()

	rw := NewStateReadWriter(NewRedisCache[*State](rdb, "formdoc-test:", time.Minute))
	sctx := WithStateKey(ctx, "redis-"+time.Now().Format("150405.000000"))
	defer rw.Remove(sctx)

	seq := dialogue.NewSequencer([]types.FieldName{"name", "diagnosis"}, types.DefaultRules(), nil)
	if err := seq.Submit("Иванов"); err != nil {
		t.Fatal(err)
	}
	st := &State{Stage: types.StageFilling, Category: "ОМС", Selected: []string{"ОМС"}, Sequencer: seq}
	if err := rw.Write(sctx, st); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := rw.Read(sctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Sequencer == nil || got.Sequencer.Index != 1 || got.Sequencer.Answers["name"] != "Иванов" {
		t.Fatalf("round trip lost the dialogue: %+v", got.Sequencer)
	}
	if _, ok, _ := NewRedisCache[string](rdb, "formdoc-test:", 0).Get(ctx, "missing"); ok {
		t.Error("missing key reported as present")
	}
}
