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
	"sort"

	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/repository"
	"github.com/urfave/cli/v2"
)

var dumpCommand = cli.Command{
	Action: dump,
	Name:   "dump",
	Usage:  "prints all persisted storage slots of an account, ordered by key",
	Flags:  append([]cli.Flag{&addressFlag}, databaseFlags...),
}

func dump(ctx *cli.Context) (err error) {
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

	exists, err := db.Exists(address)
	if err != nil || !exists {
		return err
	}
	blob, err := db.Get(address)
	if err != nil {
		return err
	}
	slots, err := repository.DeserializeStorage(blob)
	if err != nil {
		return err
	}

	keys := make([]common.Key, 0, slots.Len())
	values := map[common.Key]common.Value{}
	slots.ForEach(func(key common.Key, value common.Value) {
		keys = append(keys, key)
		values[key] = value
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(&keys[j]) < 0 })
	for _, key := range keys {
		fmt.Fprintf(ctx.App.Writer, "%v: %v\n", key, values[key])
	}
	return nil
}
