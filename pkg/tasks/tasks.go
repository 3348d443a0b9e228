// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ReportTask represents one daily report email waiting to be delivered.
type ReportTask struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	RecommendationID uint   `json:"recommendation_id"`
	To               string `json:"to"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
	Lang             string `json:"lang"`
}
