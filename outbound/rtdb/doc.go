package rtdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

type reads interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// reader loads documents and key indexes once per commit attempt. Inside a
// transaction every key is watched before it is read.
type reader struct {
	ctx     context.Context
	cmd     reads
	tx      *redis.Tx
	docs    map[string]any
	members map[string][]string
}

func newReader(ctx context.Context, cmd reads, tx *redis.Tx) *reader {
	return &reader{
		ctx:     ctx,
		cmd:     cmd,
		tx:      tx,
		docs:    make(map[string]any),
		members: make(map[string][]string),
	}
}

func (r *reader) watch(keys ...string) error {
	if r.tx == nil || len(keys) == 0 {
		return nil
	}
	return r.tx.Watch(r.ctx, keys...).Err()
}

func (r *reader) get(key string) (any, error) {
	if doc, ok := r.docs[key]; ok {
		return doc, nil
	}

	if err := r.watch(key); err != nil {
		return nil, err
	}

	data, err := r.cmd.Get(r.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.docs[key] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doc, err := decode(key, data)
	if err != nil {
		return nil, err
	}
	r.docs[key] = doc
	return doc, nil
}

func (r *reader) getMany(keys []string) ([]any, error) {
	var missing []string
	for _, key := range keys {
		if _, ok := r.docs[key]; !ok {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		if err := r.watch(missing...); err != nil {
			return nil, err
		}

		values, err := r.cmd.MGet(r.ctx, missing...).Result()
		if err != nil {
			return nil, err
		}

		for i, key := range missing {
			s, ok := values[i].(string)
			if !ok {
				r.docs[key] = nil
				continue
			}

			doc, err := decode(key, []byte(s))
			if err != nil {
				return nil, err
			}
			r.docs[key] = doc
		}
	}

	out := make([]any, len(keys))
	for i, key := range keys {
		out[i] = r.docs[key]
	}
	return out, nil
}

func (r *reader) index(key string) ([]string, error) {
	if members, ok := r.members[key]; ok {
		return members, nil
	}

	if err := r.watch(key); err != nil {
		return nil, err
	}

	members, err := r.cmd.SMembers(r.ctx, key).Result()
	if err != nil {
		return nil, err
	}
	r.members[key] = members
	return members, nil
}

func decode(key string, data []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, nil
}

// read returns the value at segs, assembling inner nodes from the documents
// and indexes below them.
func (c *Client) read(r *reader, segs []string) (any, error) {
	if loc, ok := c.locate(segs); ok {
		doc, err := r.get(loc.key)
		if err != nil {
			return nil, err
		}
		return getAt(doc, loc.sub), nil
	}

	named, wild := c.layout.children(segs)
	names := named
	out := make(map[string]any)

	if wild {
		members, err := r.index(c.indexKey(segs))
		if err != nil {
			return nil, err
		}
		names = append(append([]string(nil), named...), members...)
	} else {
		fields, err := r.get(c.fieldsKey(segs))
		if err != nil {
			return nil, err
		}
		for k, v := range Map(fields) {
			out[k] = v
		}
	}

	var docKeys, docNames []string
	for _, name := range names {
		child := joinSegs(segs, []string{name})
		if n, ok := c.layout.docRoot(child); ok && n == len(child) {
			docKeys = append(docKeys, c.docKey(child))
			docNames = append(docNames, name)
			continue
		}

		v, err := c.read(r, child)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[name] = v
		}
	}

	docs, err := r.getMany(docKeys)
	if err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if doc != nil {
			out[docNames[i]] = doc
		}
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// plan collects the document and index writes of one commit.
type plan struct {
	docs    map[string]any
	order   []string
	added   map[string][]string
	removed map[string][]string
}

func newPlan() *plan {
	return &plan{
		docs:    make(map[string]any),
		added:   make(map[string][]string),
		removed: make(map[string][]string),
	}
}

func (p *plan) put(key string, doc any) {
	if _, ok := p.docs[key]; !ok {
		p.order = append(p.order, key)
	}
	p.docs[key] = doc
}

func (p *plan) track(key, member string, present bool) {
	if present {
		p.added[key] = append(p.added[key], member)
	} else {
		p.removed[key] = append(p.removed[key], member)
	}
}

func (p *plan) apply(ctx context.Context, pipe redis.Pipeliner) error {
	for _, key := range p.order {
		doc := p.docs[key]
		if doc == nil {
			pipe.Del(ctx, key)
			continue
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", key, err)
		}
		pipe.Set(ctx, key, data, 0)
	}

	for key, members := range p.removed {
		pipe.SRem(ctx, key, toArgs(members)...)
	}
	for key, members := range p.added {
		pipe.SAdd(ctx, key, toArgs(members)...)
	}
	return nil
}

func toArgs(members []string) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m
	}
	return out
}

// write plans storing next at segs. Inner nodes are split over the
// documents below them; wildcard children missing from next are removed.
func (c *Client) write(r *reader, segs []string, next any, p *plan) error {
	if loc, ok := c.locate(segs); ok {
		doc, err := r.get(loc.key)
		if err != nil {
			return err
		}

		updated := setAt(clone(doc), loc.sub, next)
		if doc != nil || updated != nil {
			p.put(loc.key, updated)
		}
		c.trackRoot(loc.root, loc.doc, updated != nil, p)
		return nil
	}

	rest := make(map[string]any)
	if next != nil {
		m := Map(next)
		if m == nil {
			return fmt.Errorf("%w: %s only holds children", ErrInvalidPath, strings.Join(segs, "/"))
		}
		for k, v := range m {
			rest[k] = v
		}
	}

	named, wild := c.layout.children(segs)
	for _, name := range named {
		if err := c.write(r, joinSegs(segs, []string{name}), rest[name], p); err != nil {
			return err
		}
		delete(rest, name)
	}

	if wild {
		existing, err := r.index(c.indexKey(segs))
		if err != nil {
			return err
		}
		for _, name := range existing {
			if _, ok := rest[name]; ok {
				continue
			}
			if err := c.write(r, joinSegs(segs, []string{name}), nil, p); err != nil {
				return err
			}
		}

		for name, v := range rest {
			if !validKey(name) {
				return fmt.Errorf("%w: %q", ErrInvalidPath, strings.Join(segs, "/")+"/"+name)
			}
			if err := c.write(r, joinSegs(segs, []string{name}), v, p); err != nil {
				return err
			}
		}
	} else {
		fieldsKey := c.fieldsKey(segs)
		fields, err := r.get(fieldsKey)
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			p.put(fieldsKey, rest)
			c.trackRoot(segs, false, true, p)
		} else if fields != nil {
			p.put(fieldsKey, nil)
		}
	}

	if next == nil && len(segs) > 1 && c.layout.wildChild(segs[:len(segs)-1], segs[len(segs)-1]) {
		p.track(c.indexKey(segs[:len(segs)-1]), segs[len(segs)-1], false)
	}
	return nil
}

// trackRoot keeps the key indexes of wildcard ancestors in step with a
// document. Only a removed document root drops its own index entry.
func (c *Client) trackRoot(root []string, docRoot, present bool, p *plan) {
	last := len(root) - 1
	for i := 1; i <= last; i++ {
		if !c.layout.wildChild(root[:i], root[i]) {
			continue
		}

		switch {
		case present:
			p.track(c.indexKey(root[:i]), root[i], true)
		case docRoot && i == last:
			p.track(c.indexKey(root[:i]), root[i], false)
		}
	}
}
