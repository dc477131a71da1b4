package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("owner_id", "65f1a2b3c4d5e6f708192a3b"),
		attribute.String("kind", "contact"),
		attribute.String("outcome", "ready"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "owner_id" {
			t.Fatalf("owner_id must not be a metric label")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordDeploy(context.Background(), "failed", "upstream_error")
	m.RecordQRScan(context.Background())

	NewNoop().RecordInteraction(context.Background(), "visit")
}
