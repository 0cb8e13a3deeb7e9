package main

import (
	"log"

	server "github.com/lanekit/auth-service/cmd"
	"github.com/lanekit/auth-service/internal/utils"
)

func main() {
	cfg, appCfg, err := server.InitConfig()
	if err != nil {
		log.Fatalf("❌ Failed to initialize configuration: %v", err)
	}

	db, redisCache, err := server.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to setup database: %v", err)
	}
	defer db.Close()

	svcs, err := server.SetupServices(db, redisCache, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to setup services: %v", err)
	}

	stopWorker := server.StartEmailWorker(redisCache, cfg)
	defer stopWorker()

	app := server.SetupFiberApp(db, svcs)

	portHost := utils.GetListenAddress(appCfg)
	log.Printf("🔐 Auth service listening at http://localhost:%s", appCfg.HTTPPort)
	log.Fatal(app.Listen(portHost))
}
