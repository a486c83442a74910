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

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/urfave/cli/v2"
)

var variantsCommand = cli.Command{
	Action: listVariants,
	Name:   "variants",
	Usage:  "lists the supported persistence variants",
}

func listVariants(ctx *cli.Context) error {
	for _, variant := range persistence.GetAllVariants() {
		fmt.Fprintln(ctx.App.Writer, variant)
	}
	return nil
}
