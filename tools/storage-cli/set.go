// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/backend/source/memory"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
	"github.com/Fantom-foundation/ServiceState/go/state/repository"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	slotFlag = cli.StringSliceFlag{
		Name:     "slot",
		Usage:    "a key=value pair of hex encoded words; a zero value deletes the slot",
		Required: true,
	}
	expirationFlag = cli.Int64Flag{
		Name:  "expiration",
		Usage: "the expiration time recorded with the storage",
	}
	createTimeFlag = cli.Int64Flag{
		Name:  "created",
		Usage: "the creation time recorded with the storage",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit-kb",
		Usage: "the maximum size of the written storage in kilobytes",
		Value: repository.DefaultStorageLimitKb,
	}
)

var setCommand = cli.Command{
	Action: setSlots,
	Name:   "set",
	Usage:  "updates storage slots of an account and persists the result",
	Flags:  append([]cli.Flag{&addressFlag, &slotFlag, &expirationFlag, &createTimeFlag, &limitFlag}, databaseFlags...),
}

const errSizeLimitExceeded = common.ConstError("storage exceeds size limit")

func setSlots(ctx *cli.Context) (err error) {
	address, err := common.ParseAddress(ctx.String(addressFlag.Name))
	if err != nil {
		return err
	}
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, log)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log, &err)

	root, err := repository.NewRoot(
		memory.NewSource[common.Address, account.State](),
		memory.NewSource[common.Address, []byte](),
		db,
		repository.Parameters{
			StorageLimitKb: ctx.Int(limitFlag.Name),
			Logger:         log,
		},
	)
	if err != nil {
		return err
	}

	// Account metadata is not managed by this tool; keep what was persisted
	// unless overridden.
	metadata, err := db.GetMetadata(address)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return err
	}
	if ctx.IsSet(expirationFlag.Name) {
		metadata.ExpirationTime = ctx.Int64(expirationFlag.Name)
	}
	if ctx.IsSet(createTimeFlag.Name) {
		metadata.CurrentTime = ctx.Int64(createTimeFlag.Name)
	}
	if err := root.SetExpirationTime(address, metadata.ExpirationTime); err != nil {
		return err
	}
	if err := root.SetCreateTimeMs(address, metadata.CurrentTime); err != nil {
		return err
	}

	for _, slot := range ctx.StringSlice(slotFlag.Name) {
		key, value, err := parseSlot(slot)
		if err != nil {
			return err
		}
		if err := root.AddStorageRow(address, key, value); err != nil {
			return err
		}
	}

	ok, err := root.Flush()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w of %d KB", errSizeLimitExceeded, ctx.Int(limitFlag.Name))
	}
	log.Info("storage updated", zap.Stringer("address", address))
	return nil
}

func parseSlot(str string) (common.Key, common.Value, error) {
	key, value, found := strings.Cut(str, "=")
	if !found {
		return common.Key{}, common.Value{}, fmt.Errorf("invalid slot %q, expected key=value", str)
	}
	k, err := parseWord(key)
	if err != nil {
		return common.Key{}, common.Value{}, err
	}
	v, err := parseWord(value)
	if err != nil {
		return common.Key{}, common.Value{}, err
	}
	return common.Key(k), common.Value(v), nil
}
