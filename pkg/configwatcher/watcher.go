package configwatcher

import (
	"context"
	"path/filepath"
	"quizsmith/internal/config"
	"quizsmith/pkg/debounce"
	"quizsmith/pkg/logger"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigReloader 配置重新加载成功后被调用
type ConfigReloader func(cfg *config.Config)

// Loader 从目录加载配置，测试中可替换
type Loader func(dir string) (*config.Config, error)

// WatchConfig 监听配置文件，写入后静默 quiet 时间再重新加载；ctx 结束时退出
func WatchConfig(ctx context.Context, configPath string, quiet time.Duration, load Loader, reloader ConfigReloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	// 监听目录而不是文件本身，编辑器通过重命名替换文件时不会丢失监听
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	d := debounce.New(quiet)
	defer d.Cancel(absPath)

	reload := func() {
		newCfg, err := load(filepath.Dir(absPath))
		if err != nil {
			logger.Log.Error("Failed to reload config", zap.Error(err))
			return
		}
		logger.Log.Info("Config reloaded", zap.String("path", absPath))
		reloader(newCfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// 防抖处理
				d.Trigger(absPath, reload)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
