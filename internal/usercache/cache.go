// Package usercache はユーザーレコードのプロセス内メモ化を提供する。
// キャッシュはセッションごとに生成され、サインアウト時に破棄される。
// 値は不変のため、同一キーへの並行書き込みはラストライト勝ちで安全。
// TTLも上限もなく、寿命はセッションと等しい（既知の制限として許容する）。
package usercache

import (
	"sync"

	"github.com/hitoshi/memedeck/internal/model"
)

// Recorder はキャッシュのヒット/ミスを記録するインターフェース。
// metrics.Collectorの部分集合として定義する。
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// Cache はユーザーIDをキーとするユーザーレコードのキャッシュ。
type Cache struct {
	mu       sync.RWMutex
	users    map[string]model.UserRecord
	recorder Recorder // nilの場合は記録しない
}

// New はCacheを生成する。
func New() *Cache {
	return &Cache{
		users: make(map[string]model.UserRecord),
	}
}

// NewWithRecorder はヒット/ミスを記録するCacheを生成する。
func NewWithRecorder(recorder Recorder) *Cache {
	c := New()
	c.recorder = recorder
	return c
}

// Get はキャッシュからユーザーレコードを取得する。
func (c *Cache) Get(id string) (model.UserRecord, bool) {
	c.mu.RLock()
	user, ok := c.users[id]
	c.mu.RUnlock()

	if c.recorder != nil {
		if ok {
			c.recorder.RecordCacheHit()
		} else {
			c.recorder.RecordCacheMiss()
		}
	}
	return user, ok
}

// Put はユーザーレコードをキャッシュに格納する。
// 同一キーへの重複書き込みは等価な値で上書きされるだけであり許容する
// （シングルフライトによる重複排除は行わない）。
func (c *Cache) Put(id string, user model.UserRecord) {
	c.mu.Lock()
	c.users[id] = user
	c.mu.Unlock()
}

// Len は現在のエントリ数を返す。テストおよびメトリクス用。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
