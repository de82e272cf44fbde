package cache

import (
	"time"

	badger "github.com/dgraph-io/badger"
	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/zip"
)

// BadgerCache keeps gzip-compressed page bodies on disk with a TTL,
// so a rerun inside the TTL does not hit the retailer again
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerCache returns a Cache, takes path to cache dir on disk (created if necessary)
func NewBadgerCache(dir string, ttl time.Duration) (c Cache, err error) {
	l := log.New()
	l.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	l.SetLevel(log.WarnLevel)

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(l))
	if err != nil {
		return c, err
	}
	return BadgerCache{
		db:  db,
		ttl: ttl,
	}, nil
}

func (b BadgerCache) Load(key string) (payload []byte, err error) {
	var zipped []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		zipped, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	return zip.Unzip(zipped)
}

func (b BadgerCache) Store(updates map[string][]byte) (err error) {
	var payload []byte
	txn := b.db.NewTransaction(true)
	for k, v := range updates {
		payload, err = zip.Zip(v)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(k), payload).WithTTL(b.ttl)
		if err := txn.SetEntry(e); err == badger.ErrTxnTooBig {
			_ = txn.Commit()
			txn = b.db.NewTransaction(true)
			_ = txn.SetEntry(e)
		}
	}

	return txn.Commit()
}

func (b BadgerCache) Close() {
	b.db.Close()
}
