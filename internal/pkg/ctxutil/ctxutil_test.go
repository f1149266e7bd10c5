package ctxutil

import (
	"context"
	"testing"
)

func TestRequestDataRoundTrip(t *testing.T) {
	ctx := WithRequestData(context.Background(), &RequestData{EmployeeID: 7, SessionID: "s"})
	if got := EmployeeID(ctx); got != 7 {
		t.Fatalf("EmployeeID: want 7, got %d", got)
	}
	if EmployeeID(context.Background()) != 0 {
		t.Fatalf("EmployeeID on empty ctx should be 0")
	}
}

func TestDefault(t *testing.T) {
	//nolint:staticcheck // nil context on purpose
	if Default(nil) == nil {
		t.Fatalf("Default(nil) returned nil")
	}
}
