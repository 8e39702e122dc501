package model

import "time"

// Schema records which request shape a submission was accepted under.
type Schema string

const (
	SchemaMarketing Schema = "marketing"
	SchemaEnhanced  Schema = "enhanced"
	SchemaBasic     Schema = "basic"
)

// StatusNew is the status every submission is created with.
// Later transitions belong to the admin tooling.
const StatusNew = "new"

// Submission represents one accepted contact form submission.
// Optional fields are nil when the matched schema does not carry them.
type Submission struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`

	Subject  *string `json:"subject"`
	Company  *string `json:"company"`
	Phone    *string `json:"phone"`
	Website  *string `json:"website"`
	Service  *string `json:"service"`  // serviceId (enhanced) or serviceInterest (marketing)
	Budget   *string `json:"budget"`   // enhanced only
	Timeline *string `json:"timeline"` // enhanced and marketing
	Location *string `json:"location"` // marketing only
	Price    *string `json:"price"`    // marketing only
	PageURL  *string `json:"page_url"` // marketing only

	IPAddress *string   `json:"ip_address"`
	UserAgent *string   `json:"user_agent"`
	Schema    Schema    `json:"schema"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
