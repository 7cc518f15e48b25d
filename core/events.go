package core

// Event is a real-time notification delivered to the connected clients of one organization.
type Event struct {
	Name           string      `json:"event"`
	OrganizationID int         `json:"-"`
	Payload        interface{} `json:"data"`
}

// Broadcaster fans events out to connected clients. Broadcast must not block.
type Broadcaster interface {
	Broadcast(ev Event)
}
