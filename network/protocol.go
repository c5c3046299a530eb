package network

const (
	MsgTypeHeartbeat    = 1
	MsgTypeJoinRequest  = 101
	MsgTypeLeaveRoom    = 102
	MsgTypeCreateRoom   = 103
	MsgTypePlayerAction = 201
	MsgTypePlayerJoined = 301
	MsgTypePlayerLeft   = 302
	MsgTypeRoomState    = 303
	MsgTypeJoinFailed   = 401
	MsgTypeActionFailed = 402
)
