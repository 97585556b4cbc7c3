package config

import (
	"path/filepath"
	"sync"

	"code-sourcery.de/time-elapsed/logger"
	"github.com/fsnotify/fsnotify"
)

var fileModificationCount int64 = 0
var mu sync.Mutex
var fileChangedCond = sync.NewCond(&mu)

var watcher *fsnotify.Watcher = nil

type reloadListener struct {
	id       int
	listener func(*Config)
}

var listenersMutex sync.Mutex
var reloadListeners []reloadListener
var nextListenerId = 0

// OnReload registers a function that receives every successfully reloaded
// configuration. Calling the returned function removes the registration again.
func OnReload(listener func(*Config)) func() {
	listenersMutex.Lock()
	defer listenersMutex.Unlock()
	nextListenerId++
	id := nextListenerId
	reloadListeners = append(reloadListeners, reloadListener{id: id, listener: listener})
	return func() {
		listenersMutex.Lock()
		defer listenersMutex.Unlock()
		for idx, entry := range reloadListeners {
			if entry.id == id {
				reloadListeners = append(reloadListeners[:idx:idx], reloadListeners[idx+1:]...)
				return
			}
		}
	}
}

func listenerCount() int {
	listenersMutex.Lock()
	defer listenersMutex.Unlock()
	return len(reloadListeners)
}

func StopWatching() {
	if watcher != nil {
		log.Info("Stopping config file watcher")
		_ = watcher.Close()
	}
}

func watchFile(filePath string) {
	log.Info("Watching for changes on " + filePath)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				log.Info("Config file watcher got closed")
				return
			}
			log.Trace("event:" + event.String())
			isWriteOrCreate := event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
			if isWriteOrCreate && filepath.Base(event.Name) == filepath.Base(filePath) {
				log.Debug("config file modified:" + event.String())
				mu.Lock()
				fileModificationCount++
				mu.Unlock()
				fileChangedCond.Signal()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				log.Error("Config file watcher failed:" + err.Error())
			}
		}
	}
}

// applyReload pushes a freshly loaded configuration to the logger and all listeners.
func applyReload(newConfig *Config) {
	currentLvl := logger.GetLogLevel()
	newLvl := newConfig.GetLogLevel()
	if newLvl != currentLvl {
		log.Info("Log level change detected: " + currentLvl.String() + " -> " + newLvl.String())
		logger.SetLogLevel(newLvl)
	} else {
		log.Trace("Log level stays the same: " + newLvl.String())
	}

	listenersMutex.Lock()
	listeners := make([]func(*Config), 0, len(reloadListeners))
	for _, entry := range reloadListeners {
		listeners = append(listeners, entry.listener)
	}
	listenersMutex.Unlock()

	for _, listener := range listeners {
		listener(newConfig)
	}
}

// Reload reads the config file again and hands the result to the logger and
// all reload listeners. A file that fails to load leaves everything as it was.
func Reload(filePath string) error {
	log.Info("Reloading configuration from " + filePath)
	newConfig, err := LoadConfig(filePath, false)
	if err != nil {
		log.Warn("Configuration reload failed, keeping previous configuration: " + err.Error())
		return err
	}
	applyReload(newConfig)
	return nil
}

func StartWatching(filePath string) error {

	var err error
	watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("Failed to create watcher: " + err.Error())
		return err
	}
	err = watcher.Add(filepath.Dir(filePath))
	if err != nil {
		_ = watcher.Close()
		watcher = nil
		log.Error("Failed to add directory " + filepath.Dir(filePath) + " to watcher: " + err.Error())
		return err
	}
	go watchFile(filePath)
	go func() {

		mu.Lock()
		currentModificationCount := fileModificationCount
		mu.Unlock()
		for {
			mu.Lock()
			for fileModificationCount == currentModificationCount {
				fileChangedCond.Wait()
			}
			currentModificationCount = fileModificationCount
			mu.Unlock()

			_ = Reload(filePath)
		}
	}()
	return nil
}
