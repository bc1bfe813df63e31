package consts

const (
	ProfileKey        = "parley:profile:"
	PresenceOnlineKey = "parley:presence:online"
)

const (
	PresenceJobLock = "parley:lock:presence"
)
