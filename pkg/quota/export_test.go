package quota

var ValidateCatalog = validateCatalog

func RedisKey(r *RedisCounter, k Key) string { return r.key(k) }
