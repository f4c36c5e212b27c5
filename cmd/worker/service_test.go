package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/feedbackhq/feedbackd/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestPingAllHealthy(t *testing.T) {
	ok := func(context.Context) error { return nil }
	err := pingAll(context.Background(), testLogger(), []dependencyPing{
		{"database", ok},
		{"redis", ok},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPingAllReportsEveryFailure(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	err := pingAll(context.Background(), testLogger(), []dependencyPing{
		{"database", down},
		{"redis", ok},
		{"pubsub", down},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := multierr.Errors(err); len(got) != 2 {
		t.Fatalf("expected both failed pings reported, got %v", got)
	}
	msg := err.Error()
	if !strings.Contains(msg, "database ping failed") || !strings.Contains(msg, "pubsub ping failed") {
		t.Fatalf("error must name every unreachable dependency: %q", msg)
	}
}
