package registry_test

import (
	"context"
	"testing"

	"github.com/buitanlan/jobsharp/registry"
)

type emailArgs struct {
	To string `json:"to"`
}

type emailHandler struct {
	called bool
	got    emailArgs
}

func (h *emailHandler) Handle(_ context.Context, args emailArgs) registry.Result {
	h.called = true
	h.got = args
	return registry.Succeed("sent")
}

func TestRegister_DeserializesAndDispatches(t *testing.T) {
	r := registry.New()
	h := &emailHandler{}
	registry.Register(r, "SendEmail", h)

	fn, ok := r.Get("SendEmail")
	if !ok {
		t.Fatal("Get(\"SendEmail\") = false, want true")
	}

	result := fn(context.Background(), `{"to":"a@example.com"}`)
	if !result.Success {
		t.Fatalf("result.Success = false, want true (error=%q)", result.ErrorMessage)
	}
	if !h.called {
		t.Fatal("handler was never invoked")
	}
	if h.got.To != "a@example.com" {
		t.Errorf("got.To = %q, want %q", h.got.To, "a@example.com")
	}
}

func TestRegister_EmptyArguments(t *testing.T) {
	r := registry.New()
	h := &emailHandler{}
	registry.Register(r, "SendEmail", h)

	fn, _ := r.Get("SendEmail")
	result := fn(context.Background(), "")
	if !result.Success {
		t.Fatalf("result.Success = false, want true (error=%q)", result.ErrorMessage)
	}
	if h.got.To != "" {
		t.Errorf("got.To = %q, want zero value", h.got.To)
	}
}

func TestRegister_MalformedPayloadAbandons(t *testing.T) {
	r := registry.New()
	h := &emailHandler{}
	registry.Register(r, "SendEmail", h)

	fn, _ := r.Get("SendEmail")
	result := fn(context.Background(), `not json`)
	if result.Success {
		t.Fatal("result.Success = true, want false for malformed payload")
	}
	if result.ShouldRetry {
		t.Error("result.ShouldRetry = true, want false: deserialization failures are non-retryable")
	}
	if h.called {
		t.Error("handler was invoked despite malformed payload")
	}
}

func TestRegisterFunc_BypassesDeserialization(t *testing.T) {
	r := registry.New()
	var gotArgs string
	r.RegisterFunc("Raw", func(_ context.Context, arguments string) registry.Result {
		gotArgs = arguments
		return registry.Succeed("ok")
	})

	fn, ok := r.Get("Raw")
	if !ok {
		t.Fatal("Get(\"Raw\") = false, want true")
	}
	fn(context.Background(), "opaque-payload")
	if gotArgs != "opaque-payload" {
		t.Errorf("gotArgs = %q, want %q", gotArgs, "opaque-payload")
	}
}

func TestGet_Unregistered(t *testing.T) {
	r := registry.New()
	if _, ok := r.Get("DoesNotExist"); ok {
		t.Error("Get on unregistered type returned ok=true")
	}
}

func TestNames(t *testing.T) {
	r := registry.New()
	registry.Register(r, "A", &emailHandler{})
	registry.Register(r, "B", &emailHandler{})

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Errorf("Names() = %v, want both A and B", names)
	}
}

func TestResultConstructors(t *testing.T) {
	if s := registry.Succeed("done"); !s.Success || s.ResultPayload != "done" {
		t.Errorf("Succeed(...) = %+v, want Success=true ResultPayload=%q", s, "done")
	}
	if f := registry.Fail("boom"); f.Success || !f.ShouldRetry || f.ErrorMessage != "boom" {
		t.Errorf("Fail(...) = %+v, want Success=false ShouldRetry=true", f)
	}
	if a := registry.Abandon("fatal"); a.Success || a.ShouldRetry || a.ErrorMessage != "fatal" {
		t.Errorf("Abandon(...) = %+v, want Success=false ShouldRetry=false", a)
	}
	fd := registry.FailWithDelay("slow", 5)
	if fd.RetryDelay != 5 {
		t.Errorf("FailWithDelay(...).RetryDelay = %v, want 5", fd.RetryDelay)
	}
}
