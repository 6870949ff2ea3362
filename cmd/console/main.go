package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/cmlabs-hris/attendance-console-go/internal/config"
	"github.com/cmlabs-hris/attendance-console-go/internal/geocluster"
	appHTTP "github.com/cmlabs-hris/attendance-console-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/sse"
	authService "github.com/cmlabs-hris/attendance-console-go/internal/service/auth"
	directoryService "github.com/cmlabs-hris/attendance-console-go/internal/service/directory"
	mapviewService "github.com/cmlabs-hris/attendance-console-go/internal/service/mapview"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	clusterOpts := geocluster.DefaultOptions()
	if cfg.Map.TuningFile != "" {
		clusterOpts, err = geocluster.LoadOptions(cfg.Map.TuningFile)
		if err != nil {
			log.Fatal("Failed to load map tuning file: ", err)
		}
	}

	hub := sse.NewHub()
	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.Expiration, hub)

	authSvc := authService.NewAuthService(cfg.Upstream, sessions)
	mapSvc := mapviewService.NewMapViewService(clusterOpts, cfg.Map.PageLimit, hub)
	directorySvc := directoryService.NewDirectoryService()

	authHandler := appHTTP.NewAuthHandler(authSvc, mapSvc, sessions)
	mapHandler := appHTTP.NewMapHandler(mapSvc, hub)
	directoryHandler := appHTTP.NewDirectoryHandler(directorySvc)

	router := appHTTP.NewRouter(cfg, sessions, authHandler, mapHandler, directoryHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Console running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
