// Package boltstore persists the device-local session cache in a BoltDB
// file. Keys inside the bucket match the wire names the front end and the
// UI contexts agreed on long ago: userEmail, subscriptionStatus, userId,
// access_token, refresh_token.
package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/open-rails/tutorkit/session"
)

const sessionBucket = "session"

const (
	keyEmail        = "userEmail"
	keyStatus       = "subscriptionStatus"
	keyUserID       = "userId"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// SessionCache is the durable implementation of bus.CacheStore.
type SessionCache struct {
	db *bbolt.DB
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*SessionCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("boltstore: cache path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	return &SessionCache{db: db}, nil
}

func (c *SessionCache) Close() error { return c.db.Close() }

// Write replaces the whole entry in one transaction. Two contexts racing a
// session store therefore leave one payload intact, never a blend of both.
func (c *SessionCache) Write(ctx context.Context, e session.Entry) error {
	_ = ctx
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionBucket)); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket([]byte(sessionBucket))
		if err != nil {
			return err
		}
		fields := map[string]string{
			keyEmail:       e.Email,
			keyStatus:      e.SubscriptionStatus,
			keyUserID:      e.UserID,
			keyAccessToken: e.AccessToken,
		}
		if e.RefreshToken != "" {
			fields[keyRefreshToken] = e.RefreshToken
		}
		for k, v := range fields {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *SessionCache) Read(ctx context.Context) (session.Entry, session.State, error) {
	_ = ctx
	var e session.Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return nil
		}
		e.Email = string(b.Get([]byte(keyEmail)))
		e.SubscriptionStatus = string(b.Get([]byte(keyStatus)))
		e.UserID = string(b.Get([]byte(keyUserID)))
		e.AccessToken = string(b.Get([]byte(keyAccessToken)))
		e.RefreshToken = string(b.Get([]byte(keyRefreshToken)))
		return nil
	})
	if err != nil {
		return session.Entry{}, session.SignedOut, err
	}
	if !e.Complete() {
		return session.Entry{}, session.SignedOut, nil
	}
	return e, session.SignedIn, nil
}

func (c *SessionCache) Clear(ctx context.Context) error {
	_ = ctx
	return c.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(sessionBucket))
		if err == bbolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}
