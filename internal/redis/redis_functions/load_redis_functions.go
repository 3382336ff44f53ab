package redis_functions

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RevealFire publishes a draw-result only while the room's reveal fence
// still holds the caller's token.
const RevealFire = "reveal_fire"

//go:embed *.lua
var fs embed.FS

// libraries returns the embedded Lua sources keyed by file name.
func libraries() (map[string]string, error) {
	files, err := fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("read embed dir: %w", err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".lua") {
			continue
		}
		code, err := fs.ReadFile(f.Name())
		if err != nil {
			return nil, err
		}
		out[f.Name()] = string(code)
	}
	return out, nil
}

// LoadAll loads or replaces every embedded library in Redis. It must run
// before the first draw is scheduled.
func LoadAll(ctx context.Context, rdb *redis.Client) error {
	libs, err := libraries()
	if err != nil {
		return err
	}
	for name, code := range libs {
		if err := rdb.FunctionLoadReplace(ctx, code).Err(); err != nil {
			return fmt.Errorf("load lua %s: %w", name, err)
		}
		zap.L().Info("lua function loaded", zap.String("file", name))
	}
	return nil
}
