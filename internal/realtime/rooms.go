package realtime

// RoomFlavor distinguishes the two independent room partitions.
type RoomFlavor string

const (
	RoomWorkspace RoomFlavor = "workspace"
	RoomBoard     RoomFlavor = "board"
)

// roomIndex maps a room id to its member connection ids for one flavor. Rooms
// are created lazily on first join and deleted when their member set empties.
//
// roomIndex carries no lock of its own: both partitions plus the per-client
// current-room fields are guarded by the hub's single lock, so a join reads
// and writes both representations atomically with respect to any reader.
type roomIndex struct {
	rooms map[string]map[string]bool
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		rooms: make(map[string]map[string]bool),
	}
}

// join adds connID to roomID's member set, creating the room if absent.
// Joining twice is a no-op.
func (ri *roomIndex) join(roomID, connID string) {
	members, ok := ri.rooms[roomID]
	if !ok {
		members = make(map[string]bool)
		ri.rooms[roomID] = members
	}
	members[connID] = true
}

// leave removes connID from roomID, deleting the room entry when the set
// empties. Leaving a non-member or an absent room is a no-op.
func (ri *roomIndex) leave(roomID, connID string) {
	members, ok := ri.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(ri.rooms, roomID)
	}
}

// members returns a snapshot copy of roomID's member set; an absent room
// yields an empty slice, not an error.
func (ri *roomIndex) members(roomID string) []string {
	members, ok := ri.rooms[roomID]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// size returns roomID's current member count.
func (ri *roomIndex) size(roomID string) int {
	return len(ri.rooms[roomID])
}

// count returns the number of live rooms in this partition.
func (ri *roomIndex) count() int {
	return len(ri.rooms)
}
