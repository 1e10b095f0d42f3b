package presence

import "sort"

type Occupancy struct {
	Room  string `json:"room"`
	Count int    `json:"count"`
}

type RoomInfo struct {
	Name string `json:"name"`
	Id   string `json:"id"`
}

// Directory derives room views from the live registry. Nothing is cached:
// membership only changes on connect and disconnect, which are rare next
// to message volume, so every call is a fresh read.
type Directory struct {
	registry *Registry
}

func NewDirectory(registry *Registry) *Directory {
	return &Directory{
		registry: registry,
	}
}

func (d *Directory) Groups() map[string]int {
	return d.registry.Groups()
}

// OccupancyOf returns the member count of a group. A group that does not
// exist occupies zero; absence is not an error.
func (d *Directory) OccupancyOf(name string) int {
	return d.registry.GroupSize(name)
}

// Occupied lists groups holding more than one member.
func (d *Directory) Occupied() []Occupancy {
	groups := d.registry.Groups()

	occupied := make([]Occupancy, 0, len(groups))
	for name, count := range groups {
		if count > 1 {
			occupied = append(occupied, Occupancy{Room: name, Count: count})
		}
	}

	sort.Slice(occupied, func(i, j int) bool {
		return occupied[i].Room < occupied[j].Room
	})

	return occupied
}

// Available lists rooms whose own connection is online, regardless of
// occupancy.
func (d *Directory) Available() []RoomInfo {
	return d.byKind(KindRoom)
}

// Visitors lists the visitor identities currently online.
func (d *Directory) Visitors() []RoomInfo {
	return d.byKind(KindVisitor)
}

func (d *Directory) byKind(kind IdentityKind) []RoomInfo {
	rooms := make([]RoomInfo, 0)
	for _, info := range d.registry.Snapshot() {
		if info.Kind == kind {
			rooms = append(rooms, RoomInfo{Name: info.Name, Id: info.Id})
		}
	}

	return rooms
}
