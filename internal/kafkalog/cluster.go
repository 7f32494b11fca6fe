package kafkalog

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// ClusterID fetches the Kafka cluster id via a metadata request. The id
// is used purely to tag clients and log lines with the cluster they talk
// to; callers treat failures as a diagnostic gap, not a hard error.
func ClusterID(ctx context.Context, brokers []string, clientID string) (string, error) {
	client := &kafka.Client{
		Addr: kafka.TCP(brokers...),
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}

	meta, err := client.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return "", fmt.Errorf("metadata request failed: %w", err)
	}
	if meta.ClusterID == "" {
		return "", fmt.Errorf("brokers did not report a cluster id")
	}
	return meta.ClusterID, nil
}
