// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package reliable

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
	"go.etcd.io/bbolt"
	"go.uber.org/multierr"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/compression/zstd"
)

const (
	backupFileName = "state.db"
	openTimeout    = time.Second
)

var (
	metaBucket        = []byte("meta")
	collectionsBucket = []byte("collections")

	idKey       = []byte("id")
	createdKey  = []byte("created")
	kindKey     = []byte("kind")
	encodingKey = []byte("encoding")
	payloadKey  = []byte("payload")
	checksumKey = []byte("checksum")
)

// record is the serialized form of a dictionary entry or a queue item.
// Queue items have no key.
type record struct {
	Key   []byte `msgpack:"k,omitempty"`
	Value []byte `msgpack:"v"`
}

// BackupInfo describes a backup handed to a BackupAsync callback.
type BackupInfo struct {
	// ID uniquely identifies the backup.
	ID uuid.UUID
	// Path is the backup file. It is removed once the callback returns.
	Path string
	// Collections lists the names of the collections in the backup.
	Collections []string
	// CreatedAt is when the backup was taken.
	CreatedAt time.Time
}

// BackupCallback receives a backup. It must copy or restore the file before
// returning.
type BackupCallback func(ctx context.Context, info BackupInfo) error

// BackupAsync writes the current content of every collection to a temporary
// bbolt file and hands it to callback.
//
// The backup is best effort: it reflects the collections at the time each
// one is exported, including changes of transactions that are still running.
func (m *StateManager) BackupAsync(ctx context.Context, callback BackupCallback) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "fabricmock-backup-*")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(dir))
	}()

	info := BackupInfo{
		ID:        uuid.New(),
		Path:      filepath.Join(dir, backupFileName),
		CreatedAt: time.Now().UTC(),
	}

	if info.Collections, err = m.writeBackup(info); err != nil {
		return err
	}

	m.logger.Infof("backup=(%s) written with %d collections", info.ID, len(info.Collections))
	return callback(ctx, info)
}

// RestoreAsync replaces the content of the registered collections with the
// content found in the backup file at path, then publishes Rebuilt.
// Collections of the backup that are not registered are skipped since their
// element types are unknown.
func (m *StateManager) RestoreAsync(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payloads, err := readBackup(path)
	if err != nil {
		return err
	}

	// every payload is checked and decoded before any collection changes
	applies := make([]func(), 0, len(payloads))
	for _, s := range m.stores() {
		p, ok := payloads[s.Name()]
		if !ok {
			continue
		}

		if p.kind != s.Kind() {
			return gerrors.NewErrInvalidBackup(
				gerrors.NewErrCollectionTypeMismatch(s.Name(), s.Kind().String(), p.kind.String()))
		}

		apply, err := s.decode(p.records)
		if err != nil {
			return gerrors.NewErrInvalidBackup(fmt.Errorf("collection=(%s): %w", s.Name(), err))
		}
		applies = append(applies, apply)
	}

	for _, apply := range applies {
		apply()
	}

	m.logger.Infof("state restored from %s", path)
	m.stateChanges.Publish(&StateManagerChanged{Action: Rebuilt})
	return nil
}

func (m *StateManager) writeBackup(info BackupInfo) (names []string, err error) {
	db, err := bbolt.Open(info.Path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		created, err := info.CreatedAt.MarshalBinary()
		if err != nil {
			return err
		}
		if err := multierr.Combine(
			meta.Put(idKey, []byte(info.ID.String())),
			meta.Put(createdKey, created),
		); err != nil {
			return err
		}

		root, err := tx.CreateBucket(collectionsBucket)
		if err != nil {
			return err
		}

		for _, s := range m.stores() {
			if err := writeStore(root, s); err != nil {
				return fmt.Errorf("collection=(%s): %w", s.Name(), err)
			}
			names = append(names, s.Name())
		}
		return nil
	})
	return names, err
}

func writeStore(root *bbolt.Bucket, s store) error {
	records, err := s.export()
	if err != nil {
		return err
	}

	encoded, err := msgpack.Marshal(records)
	if err != nil {
		return err
	}

	payload, err := zstd.Compress(encoded)
	if err != nil {
		return err
	}

	bucket, err := root.CreateBucket([]byte(s.Name()))
	if err != nil {
		return err
	}

	return multierr.Combine(
		bucket.Put(kindKey, []byte(s.Kind().String())),
		bucket.Put(encodingKey, []byte(zstd.Name)),
		bucket.Put(payloadKey, payload),
		bucket.Put(checksumKey, binary.BigEndian.AppendUint64(nil, xxh3.Hash(payload))),
	)
}

type payload struct {
	kind    Kind
	records []record
}

func readBackup(path string) (payloads map[string]payload, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, gerrors.NewErrInvalidBackup(err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: true, Timeout: openTimeout})
	if err != nil {
		return nil, gerrors.NewErrInvalidBackup(err)
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	payloads = make(map[string]payload)
	err = db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(collectionsBucket)
		if root == nil {
			return errors.New("missing collections bucket")
		}

		return root.ForEachBucket(func(name []byte) error {
			p, err := readStore(root.Bucket(name))
			if err != nil {
				return fmt.Errorf("collection=(%s): %w", name, err)
			}
			payloads[string(name)] = p
			return nil
		})
	})
	if err != nil {
		return nil, gerrors.NewErrInvalidBackup(err)
	}
	return payloads, nil
}

func readStore(bucket *bbolt.Bucket) (payload, error) {
	kind, ok := parseKind(string(bucket.Get(kindKey)))
	if !ok {
		return payload{}, fmt.Errorf("unknown kind %q", bucket.Get(kindKey))
	}

	if encoding := string(bucket.Get(encodingKey)); encoding != zstd.Name {
		return payload{}, fmt.Errorf("unsupported encoding %q", encoding)
	}

	compressed := bucket.Get(payloadKey)
	checksum := bucket.Get(checksumKey)
	if len(checksum) != 8 || binary.BigEndian.Uint64(checksum) != xxh3.Hash(compressed) {
		return payload{}, errors.New("payload checksum mismatch")
	}

	// bbolt values are only valid during the transaction; Decompress copies.
	decoded, err := zstd.Decompress(compressed)
	if err != nil {
		return payload{}, err
	}

	var records []record
	if err := msgpack.Unmarshal(decoded, &records); err != nil {
		return payload{}, err
	}
	return payload{kind: kind, records: records}, nil
}
