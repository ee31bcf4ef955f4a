package consts

const (
	// Redis pub/sub channel layout used by the push gateway.
	BoardChannelPrefix     = "board:"
	WorkspaceChannelPrefix = "workspace:"
	PresenceChannel        = "presence"

	// Key prefix for cached board snapshots.
	SnapshotKeyPrefix = "bs"

	SSEDataPrefix = "data: "
)
