package basecamp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
)

func TestCreateHashDeterministic(t *testing.T) {
	a := CreateHash(http.MethodGet, "projects.json", Params{"b": 2, "a": 1})
	b := CreateHash(http.MethodGet, "projects.json", Params{"a": 1, "b": 2})

	if a != b {
		t.Errorf("Expected equal fingerprints regardless of param order, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected hex sha256 (64 chars), got %d", len(a))
	}
}

func TestCreateHashDistinguishesRequests(t *testing.T) {
	base := CreateHash(http.MethodGet, "projects.json", nil)

	others := map[string]string{
		"method":   CreateHash(http.MethodPost, "projects.json", nil),
		"resource": CreateHash(http.MethodGet, "projects/1.json", nil),
		"params":   CreateHash(http.MethodGet, "projects.json", Params{"page": 2}),
		"binary":   CreateHash(http.MethodGet, "projects.json", Params{BinaryParam: []byte("x")}),
	}

	for name, fp := range others {
		if fp == base {
			t.Errorf("Expected %s to change the fingerprint", name)
		}
	}

	if CreateHash("GET", "ab", nil) == CreateHash("GETa", "b", nil) {
		t.Error("Expected field boundaries to be part of the fingerprint")
	}
}

func TestCreateHashBinaryStringAndBytesMatch(t *testing.T) {
	a := CreateHash(http.MethodPost, "attachments.json", Params{BinaryParam: "payload"})
	b := CreateHash(http.MethodPost, "attachments.json", Params{BinaryParam: []byte("payload")})

	if a != b {
		t.Error("Expected string and []byte binary params to hash alike")
	}
}

func TestCreateHashUnencodableParam(t *testing.T) {
	ch := make(chan int)
	a := CreateHash(http.MethodPost, "x.json", Params{"c": ch})
	b := CreateHash(http.MethodPost, "x.json", Params{"c": ch})

	if a != b {
		t.Error("Expected fallback encoding to be stable")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Errorf("Expected miss, got found=%v err=%v", found, err)
	}

	if err := store.Put(ctx, "fp", "v1"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	if err := store.Put(ctx, "fp", "v2"); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}

	v, found, err := store.Get(ctx, "fp")
	if err != nil || !found || v != "v2" {
		t.Errorf("Expected v2, got %q found=%v err=%v", v, found, err)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", store.Len())
	}

	store.Delete("fp")
	if _, found, _ := store.Get(ctx, "fp"); found {
		t.Error("Expected entry to be deleted")
	}

	_ = store.Put(ctx, "a", "1")
	_ = store.Put(ctx, "b", "2")
	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Expected empty store after Clear, got %d", store.Len())
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("fp-%d", i%10)
			_ = store.Put(ctx, key, fmt.Sprintf("v%d", i))
			_, _, _ = store.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("Expected 10 entries, got %d", store.Len())
	}
}

func TestSharedMemoryStore(t *testing.T) {
	if SharedMemoryStore() != SharedMemoryStore() {
		t.Fatal("Expected SharedMemoryStore to return one instance")
	}

	fp := CreateHash(http.MethodGet, "shared-test.json", nil)
	a := New(testAccount(), WithValidatorStore(SharedMemoryStore()))
	b := New(testAccount(), WithValidatorStore(SharedMemoryStore()))

	if err := a.store.Put(context.Background(), fp, "shared"); err != nil {
		t.Fatal(err)
	}
	if v, found, _ := b.store.Get(context.Background(), fp); !found || v != "shared" {
		t.Errorf("Expected shared validator, got %q", v)
	}
	SharedMemoryStore().Delete(fp)
}

func TestValidatorFromHeader(t *testing.T) {
	tests := map[string]string{
		`"abc123"`:   `"abc123"`,
		`abc123`:     `abc123`,
		` "abc" `:    `"abc"`,
		`W/"weak-1"`: `W/"weak-1"`,
		``:           "",
	}

	for in, want := range tests {
		h := http.Header{}
		if in != "" {
			h.Set("ETag", in)
		}
		if got := validatorFromHeader(h); got != want {
			t.Errorf("validatorFromHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func BenchmarkCreateHash(b *testing.B) {
	params := Params{"subject": "Hello", "content": "World", "subscribers": []int{1, 2, 3}}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		CreateHash(http.MethodPost, "projects/1/messages.json", params)
	}
}
