package eventbus

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/uwcoe/persondir/pkg/logging"
)

type nameChanged struct {
	personID string
}

func TestPublisher_Publish_NoSubscribers(t *testing.T) {
	type unrelated struct{}
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.DebugLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *nameChanged) {
		t.Error("should not be called")
	})
	publisher.Publish(&unrelated{})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Publish_NoSubscribersQuietAboveDebug(t *testing.T) {
	type unrelated struct{}
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.InfoLevel)
	publisher := NewEventPublisher(log)
	publisher.Publish(&unrelated{})

	if output := logBuffer.String(); output != "" {
		t.Errorf("unmatched events should not log above debug, got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	called := false
	var got string
	publisher.Subscribe(func(e *nameChanged) {
		called = true
		got = e.personID
	})
	publisher.Publish(&nameChanged{personID: "165736"})
	if !called {
		t.Error("should be called")
	}
	if got != "165736" {
		t.Errorf("expected: %v, got: %v", "165736", got)
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel))
	handler := func(e *nameChanged) {}
	publisher.Subscribe(handler)
	if publisher.SubscribersCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", publisher.SubscribersCount())
	}
	publisher.Unsubscribe(handler)
	if publisher.SubscribersCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", publisher.SubscribersCount())
	}
}

func TestMatchSignature(t *testing.T) {
	type other struct{}
	if !MatchSignature(func(e *nameChanged) {}, []interface{}{&nameChanged{}}) {
		t.Error("expected true")
	}
	if MatchSignature(func(e *nameChanged) {}, []interface{}{&other{}}) {
		t.Error("expected false")
	}
	if MatchSignature(func(e *nameChanged) {}, []interface{}{}) {
		t.Error("expected false")
	}
	if !MatchSignature(func(ctx context.Context) {}, []interface{}{context.Background()}) {
		t.Error("expected true")
	}
}

func TestPublisher_PanicRecovery(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.ErrorLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *nameChanged) {
		panic("intentional panic for testing")
	})
	reached := false
	publisher.Subscribe(func(e *nameChanged) {
		reached = true
	})

	publisher.Publish(&nameChanged{personID: "1"})

	if !strings.Contains(logBuffer.String(), "panicked") {
		t.Errorf("expected panic to be logged, got: %q", logBuffer.String())
	}
	if !reached {
		t.Error("later subscriber should still run after an earlier panic")
	}
}
