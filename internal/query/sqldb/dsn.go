package sqldb

import "regexp"

// containerHostPattern matches the docker-compose service alias "host" used
// as the DSN host, followed by a port or path separator.
var containerHostPattern = regexp.MustCompile(`@host([:/])`)

// NormalizeDSN points a DSN at the loopback host when it names the "host"
// container alias, so one DATABASE_URL works inside and outside compose.
func NormalizeDSN(dsn string) string {
	return containerHostPattern.ReplaceAllString(dsn, "@localhost$1")
}
