package observability

import (
	"context"
	"testing"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned %v", err)
	}

	_, span := Tracer.Start(context.Background(), "test")
	span.End()
}
