package messages

// Role is the part a player takes in a game. The leader issues
// instructions, the follower carries them out.
type Role int

const (
	RoleNone Role = iota
	RoleFollower
	RoleLeader
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "LEADER"
	case RoleFollower:
		return "FOLLOWER"
	default:
		return "NONE"
	}
}

// Opposite returns the other seated role.
func (r Role) Opposite() Role {
	switch r {
	case RoleLeader:
		return RoleFollower
	case RoleFollower:
		return RoleLeader
	default:
		return RoleNone
	}
}

// RoomRequestType enumerates room management requests.
type RoomRequestType int

const (
	RoomRequestTypeNone RoomRequestType = iota
	RoomRequestTypeStats
	RoomRequestTypeJoin
	RoomRequestTypeCancel
	RoomRequestTypeLeave
	RoomRequestTypeMapSample
	RoomRequestTypeJoinFollowerOnly
	RoomRequestTypeJoinLeaderOnly
)

// RoomManagementRequest asks the server to seat, unseat or describe
// players. JoinGameWithInstructionUUID pins the join to a replayed game
// reconstructed at that instruction.
type RoomManagementRequest struct {
	Type                        RoomRequestType `json:"type"`
	JoinGameWithInstructionUUID string          `json:"join_game_with_instruction_uuid,omitempty"`
}

// JoinResponse reports the outcome of a join attempt.
type JoinResponse struct {
	Joined          bool   `json:"joined"`
	PlaceInQueue    int    `json:"place_in_queue"`
	Role            Role   `json:"role"`
	BootedFromQueue bool   `json:"booted_from_queue"`
	BootReason      string `json:"boot_reason,omitempty"`
}

// LeaveRoomNotice tells a player they are no longer seated, with a reason.
type LeaveRoomNotice struct {
	Reason string `json:"reason"`
}

// StatsResponse summarizes server occupancy.
type StatsResponse struct {
	NumberOfGames  int `json:"number_of_games"`
	PlayersInGame  int `json:"players_in_game"`
	PlayersWaiting int `json:"players_waiting"`
}

// RoomResponseType enumerates room management responses.
type RoomResponseType int

const (
	RoomResponseTypeNone RoomResponseType = iota
	RoomResponseTypeStats
	RoomResponseTypeJoinResponse
	RoomResponseTypeLeaveNotice
	RoomResponseTypeError
	RoomResponseTypeMapSample
)

// RoomManagementResponse is the server's answer to a RoomManagementRequest.
// Only the field matching Type is populated.
type RoomManagementResponse struct {
	Type         RoomResponseType `json:"type"`
	Stats        *StatsResponse   `json:"stats,omitempty"`
	JoinResponse *JoinResponse    `json:"join_response,omitempty"`
	LeaveNotice  *LeaveRoomNotice `json:"leave_notice,omitempty"`
	MapUpdate    *MapUpdate       `json:"map_update,omitempty"`
	Error        string           `json:"error,omitempty"`
}
