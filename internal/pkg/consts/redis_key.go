package consts

const (
	AccountSnapshotLock = "lock:account:snapshot:"
)
