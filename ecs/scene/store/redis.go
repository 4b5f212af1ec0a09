package store

import (
	"context"
	"errors"
	"slices"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs/scene"
)

// Redis stores scenes as JSON strings under <prefix>scene:<name> and keeps
// the set of names under <prefix>scenes.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a store using client. prefix namespaces every key.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(name string) string {
	return r.prefix + "scene:" + name
}

func (r *Redis) index() string {
	return r.prefix + "scenes"
}

func (r *Redis) Save(ctx context.Context, name string, doc *scene.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrapf(err, "encode %s", name)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(name), data, 0)
		pipe.SAdd(ctx, r.index(), name)
		return nil
	})
	return eris.Wrapf(err, "save %s", name)
}

func (r *Redis) Load(ctx context.Context, name string) (*scene.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", name)
	}
	return scene.Decode(data, scene.FormatJSON)
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, r.index()).Result()
	if err != nil {
		return nil, eris.Wrap(err, "list scenes")
	}
	slices.Sort(names)
	return names, nil
}

func (r *Redis) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(name))
		pipe.SRem(ctx, r.index(), name)
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "delete %s", name)
	}
	if del.Val() == 0 {
		return eris.Wrap(ErrNotFound, name)
	}
	return nil
}
