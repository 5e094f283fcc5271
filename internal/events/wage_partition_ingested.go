package events

import "time"

const (
	WagePartitionIngestedTopic           = "wages.partition.ingested.v1"
	WagePartitionIngestedDeadLetterTopic = "wages.partition.ingested.v1.dlq"
	WagePartitionIngestedType            = "wage_partition_ingested"
)

// WagePartitionIngestedEvent is emitted once per ingestion job that reaches
// the completed state. Consumers regenerate the partition's artifacts.
type WagePartitionIngestedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	JobID        string    `json:"job_id"`
	Location     string    `json:"location"`
	Year         int       `json:"year"`
	TotalRecords int       `json:"total_records"`
	OccurredAt   time.Time `json:"occurred_at"`
}
