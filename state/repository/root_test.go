// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package repository

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/backend/persistence/ldb"
	pmemory "github.com/Fantom-foundation/ServiceState/go/backend/persistence/memory"
	"github.com/Fantom-foundation/ServiceState/go/backend/source/memory"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
	"github.com/golang/mock/gomock"
	"github.com/syndtr/goleveldb/leveldb"
)

type testBackends struct {
	accounts *memory.Source[common.Address, account.State]
	codes    *memory.Source[common.Address, []byte]
}

func newTestRoot(t *testing.T, storage persistence.StoragePersistence) (*Root, testBackends) {
	t.Helper()
	backends := testBackends{
		accounts: memory.NewSource[common.Address, account.State](),
		codes:    memory.NewSource[common.Address, []byte](),
	}
	root, err := NewRoot(backends.accounts, backends.codes, storage, Parameters{})
	if err != nil {
		t.Fatalf("failed to create root; %s", err)
	}
	return root, backends
}

// blobOf produces the serialized form of the given slots.
func blobOf(slots map[common.Key]common.Value) []byte {
	c := NewStorageCache()
	for key, value := range slots {
		c.Put(key, value)
	}
	return SerializeStorage(c)
}

func TestNewRoot_RequiresAllBackends(t *testing.T) {
	accounts := memory.NewSource[common.Address, account.State]()
	codes := memory.NewSource[common.Address, []byte]()
	if _, err := NewRoot(accounts, codes, nil, Parameters{}); !errors.Is(err, ErrMissingBackend) {
		t.Errorf("missing persistence not detected: %v", err)
	}
	if _, err := NewRoot(nil, codes, pmemory.NewPersistence(), Parameters{}); !errors.Is(err, ErrMissingBackend) {
		t.Errorf("missing account source not detected: %v", err)
	}
}

func TestRoot_LazyLoadRestoresPersistedStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	address := common.Address{1}
	blob := blobOf(map[common.Key]common.Value{{1}: {10}, {2}: {20}})

	storage.EXPECT().Exists(address).Return(true, nil)
	storage.EXPECT().Get(address).Return(blob, nil)

	root, _ := newTestRoot(t, storage)
	for i := 0; i < 2; i++ {
		if value, err := root.GetStorageValue(address, common.Key{2}); err != nil || value != (common.Value{20}) {
			t.Errorf("unexpected value: %v, %v", value, err)
		}
	}
	slots, err := root.storage.Get(address)
	if err != nil {
		t.Fatalf("failed to get storage: %v", err)
	}
	if slots.HasModified() {
		t.Errorf("loaded storage must not be modified")
	}
	if got := slotsOf(slots); len(got) != 2 || got[common.Key{1}] != (common.Value{10}) {
		t.Errorf("unexpected content: %v", got)
	}
}

func TestRoot_LazyLoadCreatesEmptyStorageForUnknownAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	address := common.Address{1}
	storage.EXPECT().Exists(address).Return(false, nil)

	root, _ := newTestRoot(t, storage)
	slots, err := root.storage.Get(address)
	if err != nil {
		t.Fatalf("failed to get storage: %v", err)
	}
	if slots.HasModified() || len(slotsOf(slots)) != 0 {
		t.Errorf("storage of unknown account should be empty and clean")
	}
}

func TestRoot_LoadFailuresAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	injected := errors.New("injected")
	storage.EXPECT().Exists(common.Address{1}).Return(false, injected)
	storage.EXPECT().Exists(common.Address{2}).Return(true, nil)
	storage.EXPECT().Get(common.Address{2}).Return(make([]byte, 10), nil)

	root, _ := newTestRoot(t, storage)
	if _, err := root.GetStorageValue(common.Address{1}, common.Key{}); !errors.Is(err, injected) {
		t.Errorf("persistence failure not reported: %v", err)
	}
	if _, err := root.GetStorageValue(common.Address{2}, common.Key{}); !errors.Is(err, ErrMalformedBlob) {
		t.Errorf("malformed blob not reported: %v", err)
	}
}

// fillStorages gives the accounts 1, 2 and 3 slots, resulting in blobs of
// 64, 128 and 192 bytes.
func fillStorages(t *testing.T, r *Repository, addresses []common.Address) {
	t.Helper()
	for i, address := range addresses {
		for j := 0; j <= i; j++ {
			if err := r.AddStorageRow(address, common.Key{byte(j)}, common.Value{byte(i + 1)}); err != nil {
				t.Fatalf("failed to set storage: %v", err)
			}
		}
	}
}

func TestRoot_FlushPersistsAllStoragesInAddressOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	storage.EXPECT().Exists(gomock.Any()).Return(false, nil).Times(3)

	// inserted out of order on purpose
	addresses := []common.Address{{0x80}, {0x01}, {0x7F}}
	root, _ := newTestRoot(t, storage)
	fillStorages(t, root.Repository, addresses)

	gomock.InOrder(
		storage.EXPECT().Persist(common.Address{0x01}, gomock.Len(128), int64(0), int64(0)),
		storage.EXPECT().Persist(common.Address{0x7F}, gomock.Len(192), int64(0), int64(0)),
		storage.EXPECT().Persist(common.Address{0x80}, gomock.Len(64), int64(0), int64(0)),
	)

	if ok, err := root.flushStorage(64 + 128 + 192); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
	if root.storage.Len() != 0 {
		t.Errorf("storage cache should be empty after flush")
	}
}

func TestRoot_FlushExceedingTheLimitKeepsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	storage.EXPECT().Exists(gomock.Any()).Return(false, nil).Times(3)

	addresses := []common.Address{{0x80}, {0x01}, {0x7F}}
	root, _ := newTestRoot(t, storage)
	fillStorages(t, root.Repository, addresses)

	// no Persist call is expected
	if ok, err := root.flushStorage(64 + 128 + 192 - 1); err != nil || ok {
		t.Fatalf("flush should have been skipped: %t, %v", ok, err)
	}
	if root.storage.Len() != 3 || !root.storage.HasModified() {
		t.Errorf("storage cache changed by skipped flush")
	}
	for i, address := range addresses {
		for j := 0; j <= i; j++ {
			value, err := root.GetStorageValue(address, common.Key{byte(j)})
			if err != nil || value != (common.Value{byte(i + 1)}) {
				t.Errorf("lost value of %v/%d: %v, %v", address, j, value, err)
			}
		}
	}
}

func TestRoot_FlushStorageLimitIsGivenInKilobytes(t *testing.T) {
	root, _ := newTestRoot(t, pmemory.NewPersistence())
	address := common.Address{1}
	for i := 0; i < 17; i++ {
		root.AddStorageRow(address, common.Key{byte(i)}, common.Value{1})
	}

	// 17 slots need 1088 bytes
	if ok, err := root.FlushStorageIfTotalSizeBelow(1); err != nil || ok {
		t.Errorf("flush exceeding one kilobyte should be skipped: %t, %v", ok, err)
	}
	if ok, err := root.FlushStorageIfTotalSizeBelow(2); err != nil || !ok {
		t.Errorf("flush within two kilobytes should succeed: %t, %v", ok, err)
	}
}

func TestRoot_FlushPassesAccountTimestamps(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	address := common.Address{1}
	storage.EXPECT().Exists(address).Return(false, nil)
	storage.EXPECT().Persist(address, blobOf(map[common.Key]common.Value{{1}: {2}}), int64(100), int64(200))

	root, _ := newTestRoot(t, storage)
	root.SetExpirationTime(address, 100)
	root.SetCreateTimeMs(address, 200)
	root.AddStorageRow(address, common.Key{1}, common.Value{2})

	if ok, err := root.Flush(); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
}

func TestRoot_FlushOfAccountWithoutStateUsesZeroTimestamps(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	address := common.Address{1}
	storage.EXPECT().Exists(address).Return(false, nil)
	storage.EXPECT().Persist(address, gomock.Len(RecordSize), int64(0), int64(0))

	root, backends := newTestRoot(t, storage)
	root.AddStorageRow(address, common.Key{1}, common.Value{2})

	if ok, err := root.Flush(); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
	if backends.accounts.Len() != 0 {
		t.Errorf("flush must not create accounts")
	}
}

func TestRoot_PersistenceFailuresAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	injected := errors.New("injected")
	storage.EXPECT().Exists(gomock.Any()).Return(false, nil).Times(2)
	storage.EXPECT().Persist(common.Address{1}, gomock.Any(), gomock.Any(), gomock.Any()).Return(injected)

	root, _ := newTestRoot(t, storage)
	root.AddStorageRow(common.Address{1}, common.Key{1}, common.Value{1})
	root.AddStorageRow(common.Address{2}, common.Key{1}, common.Value{1})

	if _, err := root.Flush(); !errors.Is(err, injected) {
		t.Errorf("persistence failure not reported: %v", err)
	}
	if root.storage.Len() != 2 || !root.storage.HasModified() {
		t.Errorf("failed flush must keep the storage cache")
	}
}

func TestRoot_FlushWithoutModificationsSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := persistence.NewMockStoragePersistence(ctrl)
	storage.EXPECT().Exists(common.Address{1}).Return(false, nil)

	root, _ := newTestRoot(t, storage)
	root.GetStorageValue(common.Address{1}, common.Key{1})

	if ok, err := root.Flush(); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
	if root.storage.Len() != 0 {
		t.Errorf("storage cache should be reset")
	}
}

func TestRoot_FlushCommitsAccountsAndCodes(t *testing.T) {
	root, backends := newTestRoot(t, pmemory.NewPersistence())
	address := common.Address{1}
	root.SetNonce(address, 5)
	root.SaveCode(address, []byte{0x60, 0x00})

	if backends.accounts.Len() != 0 || backends.codes.Len() != 0 {
		t.Errorf("modifications reached the sources before flush")
	}
	if _, err := root.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	state, found, _ := backends.accounts.Get(address)
	if !found || state.Nonce != 5 || state.CodeHash != common.Keccak256([]byte{0x60, 0x00}) {
		t.Errorf("account not committed: %+v, %t", state, found)
	}
	if code, found, _ := backends.codes.Get(address); !found || !bytes.Equal(code, []byte{0x60, 0x00}) {
		t.Errorf("code not committed: %v, %t", code, found)
	}
}

func TestRoot_FlushedStoragesAreReloadedFromPersistence(t *testing.T) {
	storage := pmemory.NewPersistence()
	root, _ := newTestRoot(t, storage)
	address := common.Address{1}
	root.AddStorageRow(address, common.Key{1}, common.Value{1})
	root.AddStorageRow(address, common.Key{2}, common.Value{2})

	if ok, err := root.Flush(); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
	if value, err := root.GetStorageValue(address, common.Key{2}); err != nil || value != (common.Value{2}) {
		t.Errorf("value not restored: %v, %v", value, err)
	}

	// a modification after reload is persisted on top of the restored slots
	root.AddStorageRow(address, common.Key{1}, common.Value{})
	if ok, err := root.Flush(); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
	blob, _ := storage.Get(address)
	if !bytes.Equal(blob, blobOf(map[common.Key]common.Value{{2}: {2}})) {
		t.Errorf("unexpected persisted blob: %x", blob)
	}
}

func TestRoot_EmptyStorageCacheIsIdempotent(t *testing.T) {
	root, _ := newTestRoot(t, pmemory.NewPersistence())
	root.AddStorageRow(common.Address{1}, common.Key{1}, common.Value{1})
	for i := 0; i < 2; i++ {
		root.EmptyStorageCache()
		if root.storage.Len() != 0 {
			t.Errorf("storage cache not empty after reset %d", i)
		}
	}
	if value, _ := root.GetStorageValue(common.Address{1}, common.Key{1}); value != (common.Value{}) {
		t.Errorf("dropped value still visible")
	}
}

func TestRoot_LevelDbBackedStateSurvivesReopening(t *testing.T) {
	dir := t.TempDir()
	address := common.Address{1}

	open := func() (*Root, func()) {
		db, err := leveldb.OpenFile(dir+"/state", nil)
		if err != nil {
			t.Fatalf("failed to open LevelDB; %s", err)
		}
		storage, err := ldb.Open(dir + "/storage")
		if err != nil {
			t.Fatalf("failed to open persistence; %s", err)
		}
		accounts, codes := NewLevelDbSources(db)
		root, err := NewRoot(accounts, codes, storage, Parameters{ReadCacheSize: 16})
		if err != nil {
			t.Fatalf("failed to create root; %s", err)
		}
		return root, func() {
			storage.Close()
			db.Close()
		}
	}

	root, closeRoot := open()
	root.SetExpirationTime(address, 1234)
	root.AddStorageRow(address, common.Key{1}, common.Value{42})
	if ok, err := root.Flush(); err != nil || !ok {
		t.Fatalf("flush failed: %t, %v", ok, err)
	}
	closeRoot()

	root, closeRoot = open()
	defer closeRoot()
	if got, err := root.GetExpirationTime(address); err != nil || got != 1234 {
		t.Errorf("expiration time lost: %d, %v", got, err)
	}
	if value, err := root.GetStorageValue(address, common.Key{1}); err != nil || value != (common.Value{42}) {
		t.Errorf("storage lost: %v, %v", value, err)
	}
}
