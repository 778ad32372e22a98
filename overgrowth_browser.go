package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/mogaika/overgrowth_browser/config"
	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/status"
	"github.com/mogaika/overgrowth_browser/vfs"
	"github.com/mogaika/overgrowth_browser/web"

	_ "github.com/mogaika/overgrowth_browser/pack/anm"
	_ "github.com/mogaika/overgrowth_browser/pack/phxbn"
)

func main() {
	var addr, dir, configPath, webPath string
	var watch bool
	flag.StringVar(&configPath, "config", "", "Path to settings yaml")
	flag.StringVar(&addr, "i", "", "Address of server, overrides settings")
	flag.StringVar(&dir, "dir", "", "Path to folder with .phxbn and .anm files, overrides settings")
	flag.BoolVar(&watch, "watch", true, "Reload files changed on disk")
	flag.StringVar(&webPath, "web", "", "Path to folder with web ui data, empty to disable")
	flag.Parse()

	s := config.DefaultSettings()
	if configPath != "" {
		var err error
		if s, err = config.LoadSettings(configPath); err != nil {
			log.Fatal(err)
		}
	}
	if addr != "" {
		s.Web.Addr = addr
	}
	if dir != "" {
		s.Data.Dir = dir
	} else if configPath == "" {
		flag.PrintDefaults()
		return
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "watch" {
			s.Data.Watch = watch
		}
	})
	if err := s.Apply(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	hub := status.DefaultHub()
	go hub.Run(ctx)

	cache := pack.NewInstanceCache()
	if s.Data.Watch {
		go func() {
			if err := cache.Watch(ctx, s.Data.Dir, func(fileName string) {
				status.Info("%s changed on disk", fileName)
			}); err != nil {
				log.Printf("[main] Watch stopped: %v", err)
			}
		}()
	}

	if err := web.StartServer(ctx, s.Web.Addr, vfs.NewDirectoryDriver(s.Data.Dir), cache, webPath); err != nil {
		log.Fatal(err)
	}
}
