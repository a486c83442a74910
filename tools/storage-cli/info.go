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
	"fmt"

	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/repository"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var getInfoCommand = cli.Command{
	Action: getInfo,
	Name:   "info",
	Usage:  "prints summary information about the persisted storage of an account",
	Flags:  append([]cli.Flag{&addressFlag}, databaseFlags...),
}

func getInfo(ctx *cli.Context) (err error) {
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

	out := ctx.App.Writer
	exists, err := db.Exists(address)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(out, "Account %v has no persisted storage\n", address)
		return nil
	}

	log.Debug("fetching storage", zap.Stringer("address", address))
	blob, err := db.Get(address)
	if err != nil {
		return err
	}
	slots, err := repository.DeserializeStorage(blob)
	if err != nil {
		return err
	}
	metadata, err := db.GetMetadata(address)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Account:         %v\n", address)
	fmt.Fprintf(out, "Blob size:       %d bytes\n", len(blob))
	fmt.Fprintf(out, "Slots:           %d\n", slots.Len())
	fmt.Fprintf(out, "Expiration time: %d\n", metadata.ExpirationTime)
	fmt.Fprintf(out, "Persisted at:    %d\n", metadata.CurrentTime)
	return nil
}
