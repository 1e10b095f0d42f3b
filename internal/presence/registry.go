package presence

import (
	"errors"
	"sort"
	"sync"

	"github.com/VladGeana/radar/internal/ierr"
	"go.uber.org/zap"
)

var (
	ErrInvalidIdentity     = errors.New("identity name required")
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrConnectionNotFound  = errors.New("connection not registered")
)

// Registry tracks every currently-open connection, its identity and its
// group membership. Connections always occupy the group named after their
// own identity; additional groups come and go through Join and Leave.
type Registry struct {
	logger *zap.Logger
	mu     sync.RWMutex

	connections        map[string]*Connection
	connectionsByGroup map[string]map[string]struct{}
	groupsByConnection map[string]map[string]struct{}
}

func NewRegistry(
	logger *zap.Logger,
) *Registry {
	return &Registry{
		logger:             logger,
		connections:        make(map[string]*Connection),
		connectionsByGroup: make(map[string]map[string]struct{}),
		groupsByConnection: make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Register(id string, kind IdentityKind, name string) (*Connection, error) {
	if name == "" || !kind.Valid() {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, ErrInvalidIdentity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[id]; ok {
		return nil, ierr.New(ierr.ErrorCodeAlreadyExists, ErrDuplicateConnection)
	}

	conn := newConnection(id, kind, name)
	r.connections[id] = conn

	// Every connection opens its own named group.
	r.joinLocked(id, name)

	r.logger.Debug("connection registered",
		zap.String("connectionId", id),
		zap.String("kind", string(kind)),
		zap.String("name", name))

	return conn, nil
}

// Unregister removes the connection from every group and closes its send
// channel. Unknown ids are a no-op, so the call is idempotent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unregisterLocked(id)
}

func (r *Registry) unregisterLocked(id string) {
	conn, ok := r.connections[id]
	if !ok {
		return
	}

	for group := range r.groupsByConnection[id] {
		members, ok := r.connectionsByGroup[group]
		if !ok {
			panic("inconsistent state: group not found in connectionsByGroup")
		}

		delete(members, id)
		if len(members) == 0 {
			delete(r.connectionsByGroup, group)
		}
	}

	delete(r.groupsByConnection, id)
	delete(r.connections, id)
	close(conn.Send)
}

func (r *Registry) Join(id string, group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[id]; !ok {
		return ierr.New(ierr.ErrorCodeNotFound, ErrConnectionNotFound)
	}

	r.joinLocked(id, group)

	return nil
}

func (r *Registry) joinLocked(id string, group string) {
	if _, ok := r.connectionsByGroup[group]; !ok {
		r.connectionsByGroup[group] = make(map[string]struct{})
	}

	r.connectionsByGroup[group][id] = struct{}{}

	if _, ok := r.groupsByConnection[id]; !ok {
		r.groupsByConnection[id] = make(map[string]struct{})
	}

	r.groupsByConnection[id][group] = struct{}{}
}

func (r *Registry) Leave(id string, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups, ok := r.groupsByConnection[id]
	if !ok {
		return
	}

	delete(groups, group)

	members, ok := r.connectionsByGroup[group]
	if !ok {
		return
	}

	delete(members, id)
	if len(members) == 0 {
		delete(r.connectionsByGroup, group)
	}
}

// IsOnline reports whether some open connection carries the given
// identity name.
func (r *Registry) IsOnline(name string) bool {
	_, ok := r.FindByName(name)

	return ok
}

func (r *Registry) FindByName(name string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, conn := range r.connections {
		if conn.Name == name {
			return conn, true
		}
	}

	return nil, false
}

// SendToGroup queues a frame on every member of a group. Sends happen
// under the read lock, so a concurrent Unregister cannot close a channel
// mid-send. Members that cannot accept the frame are evicted.
func (r *Registry) SendToGroup(group string, frame any) {
	r.mu.RLock()

	ids := r.connectionsByGroup[group]

	connections := make([]*Connection, 0, len(ids))
	for id := range ids {
		if conn, ok := r.connections[id]; ok {
			connections = append(connections, conn)
		}
	}

	staleIds := r.sendLocked(connections, frame)

	r.mu.RUnlock()

	r.evict(staleIds)
}

// SendToAll queues a frame on every open connection.
func (r *Registry) SendToAll(frame any) {
	r.mu.RLock()

	connections := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		connections = append(connections, conn)
	}

	staleIds := r.sendLocked(connections, frame)

	r.mu.RUnlock()

	r.evict(staleIds)
}

// SendTo queues a frame on a single connection. Unknown ids are a no-op.
func (r *Registry) SendTo(id string, frame any) {
	r.mu.RLock()

	var staleIds []string
	if conn, ok := r.connections[id]; ok {
		staleIds = r.sendLocked([]*Connection{conn}, frame)
	}

	r.mu.RUnlock()

	r.evict(staleIds)
}

// sendLocked requires at least the read lock and returns the ids of
// connections whose send buffer is full.
func (r *Registry) sendLocked(connections []*Connection, frame any) []string {
	var staleIds []string

	for _, conn := range connections {
		select {
		case conn.Send <- frame:
		default:
			r.logger.Warn("connection send channel is full, closing connection",
				zap.String("connectionId", conn.Id))

			staleIds = append(staleIds, conn.Id)
		}
	}

	return staleIds
}

func (r *Registry) evict(ids []string) {
	if len(ids) == 0 {
		return
	}

	r.mu.Lock()

	for _, id := range ids {
		r.unregisterLocked(id)
	}

	r.mu.Unlock()
}

// GroupSize returns the member count of a group; unknown groups count
// zero, they are never an error.
func (r *Registry) GroupSize(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectionsByGroup[group])
}

// Groups returns a fresh name-to-occupancy mapping computed from current
// state.
func (r *Registry) Groups() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make(map[string]int, len(r.connectionsByGroup))
	for group, members := range r.connectionsByGroup {
		groups[group] = len(members)
	}

	return groups
}

// Snapshot returns a point-in-time view of every registered connection.
// Each call re-reads current state.
func (r *Registry) Snapshot() []ConnectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ConnectionInfo, 0, len(r.connections))
	for id, conn := range r.connections {
		groups := make([]string, 0, len(r.groupsByConnection[id]))
		for group := range r.groupsByConnection[id] {
			groups = append(groups, group)
		}
		sort.Strings(groups)

		infos = append(infos, ConnectionInfo{
			Id:     conn.Id,
			Kind:   conn.Kind,
			Name:   conn.Name,
			Groups: groups,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Id < infos[j].Id
	})

	return infos
}
