package infra

const (
	// RedisNamespace — базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "mysched"
)

const (
	// RedisKeyRateLimit — префикс бакетов fixed-window счётчиков guard'а.
	// Полный ключ: mysched:guard:rl:<scope>:<subject>:<bucket>
	RedisKeyRateLimit = RedisNamespace + ":guard:rl:"

	// RedisKeyRevokedSession — префикс отозванных сессий (logout).
	// Полный ключ: mysched:auth:revoked:<jti>, TTL = остаток жизни токена.
	RedisKeyRevokedSession = RedisNamespace + ":auth:revoked:"
)
