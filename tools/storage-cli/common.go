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
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	_ "github.com/Fantom-foundation/ServiceState/go/backend/persistence/ldb"
	_ "github.com/Fantom-foundation/ServiceState/go/backend/persistence/memory"
	_ "github.com/Fantom-foundation/ServiceState/go/backend/persistence/pebble"
	_ "github.com/Fantom-foundation/ServiceState/go/backend/persistence/sqlite"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "enables debug logging",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "a TOML file with a [Persistence] section",
	}
	variantFlag = cli.StringFlag{
		Name:  "variant",
		Usage: "the persistence variant, one of the names listed by the variants command",
	}
	dbDirectoryFlag = cli.StringFlag{
		Name:  "dir",
		Usage: "the targeted directory",
	}
	addressFlag = cli.StringFlag{
		Name:     "address",
		Usage:    "the hex encoded account address",
		Required: true,
	}
)

// databaseFlags are the flags selecting the inspected persistence.
var databaseFlags = []cli.Flag{&configFlag, &variantFlag, &dbDirectoryFlag}

// fileConfig is the layout of the TOML config file.
type fileConfig struct {
	Persistence persistence.Config
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfig(file string, cfg *fileConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// resolveConfig merges the config file, if any, with the given flag values.
// Non-empty flag values take precedence.
func resolveConfig(file, variant, dir string) (persistence.Config, error) {
	cfg := fileConfig{}
	if file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return persistence.Config{}, err
		}
	}
	if variant != "" {
		cfg.Persistence.Variant = persistence.Variant(variant)
	}
	if dir != "" {
		cfg.Persistence.Directory = dir
	}
	return cfg.Persistence, nil
}

func newLogger(ctx *cli.Context) (*zap.Logger, error) {
	if !ctx.Bool(verboseFlag.Name) {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// openDatabase opens the persistence selected by the command's flags.
func openDatabase(ctx *cli.Context, log *zap.Logger) (persistence.Database, error) {
	cfg, err := resolveConfig(ctx.String(configFlag.Name), ctx.String(variantFlag.Name), ctx.String(dbDirectoryFlag.Name))
	if err != nil {
		return nil, err
	}
	log.Info("opening storage", zap.String("variant", string(cfg.Variant)), zap.String("dir", cfg.Directory))
	return persistence.Open(cfg)
}

// closeDatabase closes the database, reporting a failure through err unless
// err is already set.
func closeDatabase(db persistence.Database, log *zap.Logger, err *error) {
	log.Info("closing storage")
	if closeError := db.Close(); closeError != nil {
		if *err == nil {
			*err = closeError
		} else {
			log.Error("failure closing storage", zap.Error(closeError))
		}
	}
}

// parseWord parses a hex encoded 32-byte word. Shorter inputs are treated as
// big-endian numbers and padded on the left.
func parseWord(str string) ([common.WordSize]byte, error) {
	var res [common.WordSize]byte
	str = strings.TrimPrefix(str, "0x")
	if len(str)%2 == 1 {
		str = "0" + str
	}
	data, err := hex.DecodeString(str)
	if err != nil {
		return res, fmt.Errorf("invalid word %q; %w", str, err)
	}
	if len(data) > common.WordSize {
		return res, fmt.Errorf("%w: word %q has %d bytes, at most %d allowed", common.ErrInvalidLength, str, len(data), common.WordSize)
	}
	copy(res[common.WordSize-len(data):], data)
	return res, nil
}
