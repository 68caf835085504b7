package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	CommandServe   Command = "serve"
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はdistroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// MigrateAction はmigrateサブコマンドの操作。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
)

// Invocation は解析済みのコマンドライン。
// Stepsは MigrateDown のときのみ意味を持つ。
type Invocation struct {
	Command Command
	Migrate MigrateAction
	Steps   int
}

// ParseCommand はコマンドライン引数を解析する。
// 引数が空、または未知のサブコマンドはserveとして扱う。
//
//	migrate            未適用のマイグレーションをすべて適用
//	migrate down [N]   直近N件（既定1件）を巻き戻す
//	migrate version    現在のスキーマバージョンを表示
func ParseCommand(args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{Command: CommandServe}, nil
	}

	switch Command(args[0]) {
	case CommandMigrate:
		return parseMigrate(args[1:])
	case CommandHealthcheck:
		return Invocation{Command: CommandHealthcheck}, nil
	default:
		return Invocation{Command: CommandServe}, nil
	}
}

func parseMigrate(args []string) (Invocation, error) {
	inv := Invocation{Command: CommandMigrate, Migrate: MigrateUp}
	if len(args) == 0 {
		return inv, nil
	}

	switch MigrateAction(args[0]) {
	case MigrateUp:
	case MigrateVersion:
		inv.Migrate = MigrateVersion
	case MigrateDown:
		inv.Migrate = MigrateDown
		inv.Steps = 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return Invocation{}, fmt.Errorf("migrate down: steps must be a positive integer, got %q", args[1])
			}
			inv.Steps = n
		}
	default:
		return Invocation{}, fmt.Errorf("migrate: unknown action %q (want up, down or version)", args[0])
	}
	return inv, nil
}
