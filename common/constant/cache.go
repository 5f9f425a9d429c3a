package constant

const (
	AuthRevokedTokenKey = "auth:revoked:%s"
)
