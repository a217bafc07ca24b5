package messaging

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestMessageCarrier(t *testing.T) {
	msg := &kafka.Message{}
	carrier := NewMessageCarrier(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	carrier.Set("baggage", "tenant=demo")

	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("expected traceparent header, got %q", got)
	}

	carrier.Set("traceparent", "00-abc-def-02")
	if got := carrier.Get("traceparent"); got != "00-abc-def-02" {
		t.Errorf("expected overwritten traceparent, got %q", got)
	}
	if len(msg.Headers) != 2 {
		t.Errorf("expected 2 headers after overwrite, got %d", len(msg.Headers))
	}

	keys := carrier.Keys()
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %v", keys)
	}

	if got := carrier.Get("missing"); got != "" {
		t.Errorf("expected empty value for missing key, got %q", got)
	}
}
