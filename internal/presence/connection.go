package presence

// IdentityKind tags the single authoritative identity of a connection.
type IdentityKind string

const (
	KindRoom    IdentityKind = "room"
	KindVisitor IdentityKind = "visitor"
	KindAdmin   IdentityKind = "admin"
)

func (k IdentityKind) Valid() bool {
	switch k {
	case KindRoom, KindVisitor, KindAdmin:
		return true
	}

	return false
}

const sendBufferSize = 16

// Connection is one live transport session. It is owned by the Registry:
// the registry creates it on Register and closes Send on Unregister.
// Outbound frames (rpc.Request notifications and rpc.Response replies)
// are queued on Send and drained by the transport's writer.
type Connection struct {
	Id   string
	Kind IdentityKind
	Name string
	Send chan any
}

func newConnection(id string, kind IdentityKind, name string) *Connection {
	return &Connection{
		Id:   id,
		Kind: kind,
		Name: name,
		Send: make(chan any, sendBufferSize),
	}
}

// ConnectionInfo is a point-in-time snapshot of a registered connection.
type ConnectionInfo struct {
	Id     string       `json:"id"`
	Kind   IdentityKind `json:"kind"`
	Name   string       `json:"name"`
	Groups []string     `json:"groups"`
}
