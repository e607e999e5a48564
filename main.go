/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/testbed"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "assets/config.toml", "path to the TOML configuration")
	debug := flag.Bool("debug", false, "debug logging with the hitbox overlay and stats enabled")
	showVersion := flag.Bool("version", false, "print the version and exit")
	headless := flag.Bool("headless", false, "run without a window")
	frames := flag.Uint64("frames", 0, "stop after this many frames, 0 runs until quit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := run(*configPath, *debug, *headless, *frames); err != nil {
		core.LogError(err.Error())
		os.Exit(1)
	}
}

func run(configPath string, debug, headless bool, frames uint64) error {
	config, err := engine.LoadApplicationConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("config '%s' not found, using defaults", configPath)
		config = engine.DefaultApplicationConfig()
	} else if err != nil {
		return err
	}
	if debug {
		config.Log.Level = "debug"
		config.Debug.ShowHitboxes = true
		config.Debug.ShowStats = true
	}

	tb := testbed.NewTestGame(config, testbed.DefaultLayout())

	opts := []engine.Option{engine.WithFrameLimit(frames)}
	if headless {
		opts = append(opts, engine.WithHeadless())
	}
	e, err := engine.New(tb.Game, opts...)
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	go func() {
		// capture sigterm and other system call here
		<-sigCh
		e.Quit()
	}()

	runErr := e.Run()
	if headless {
		core.LogInfo("%s after %d frames", tb, e.Frame())
	}
	return errors.Join(runErr, e.Shutdown())
}
