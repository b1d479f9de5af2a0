// Package visitor defines the interfaces for accessing visitor, session, and
// lead entities. These repositories abstract the persistence details so the
// application services stay decoupled from the database.
// Note: hot session state lives in the cache layer; these types are the
// durable record.
package visitor

import "time"

// Visitor is the durable identity behind one browser/device context. It can
// optionally be linked to a Lead once the visitor identifies themselves.
type Visitor struct {
	ID        string    `json:"id"`
	LeadID    *string   `json:"leadId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one browsing session generated by the client SDK and registered
// with the collector.
type Session struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitorId"`
	Consent   string    `json:"consent"`
	StartedAt time.Time `json:"startedAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Lead is an identified visitor: a customer id reported through an identify
// event, optionally enriched with contact details.
type Lead struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Email      string    `json:"email,omitempty"`
	FirstName  string    `json:"firstName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VisitorRepository defines the operations for persisting Visitor entities.
type VisitorRepository interface {
	FindByID(id string) (*Visitor, error)
	Create(visitor *Visitor) error
	LinkToLead(visitorID, leadID string) error
	Exists(visitorID string) (bool, error)
	Count() (int, error)
}

// SessionRepository defines the operations for persisting Session entities.
type SessionRepository interface {
	FindByID(id string) (*Session, error)
	Upsert(session *Session) error
	Touch(sessionID string, at time.Time) error
	Count() (int, error)
}

// LeadRepository defines the operations for persisting Lead entities.
type LeadRepository interface {
	FindByCustomerID(customerID string) (*Lead, error)
	Store(lead *Lead) error
	All(limit int) ([]*Lead, error)
	Count() (int, error)
}
