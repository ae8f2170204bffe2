// Package redis connects to the Redis server that can back usage counters.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	counter := quota.NewRedisCounter(client,
//	    quota.WithKeyPrefix(cfg.KeyPrefix),
//	    quota.WithRetention(cfg.CounterRetention),
//	)
//
// Healthcheck adapts the client to the func(context.Context) error check shape
// used by the HTTP server.
package redis
